package policy

// CustomPolicyID is the ID of the policy built from configured targets.
const CustomPolicyID = "custom"

// CustomPolicy holds user-configured application identifiers.
type CustomPolicy struct {
	ids []string
}

// NewCustomPolicy creates a policy from configured identifiers.
func NewCustomPolicy(ids []string) *CustomPolicy {
	cp := make([]string, len(ids))
	copy(cp, ids)
	return &CustomPolicy{ids: cp}
}

func (p *CustomPolicy) ID() string {
	return CustomPolicyID
}

func (p *CustomPolicy) Name() string {
	return "Custom targets"
}

func (p *CustomPolicy) ApplicationIDs() []string {
	out := make([]string, len(p.ids))
	copy(out, p.ids)
	return out
}

// Ensure CustomPolicy implements AppPolicy.
var _ AppPolicy = (*CustomPolicy)(nil)
