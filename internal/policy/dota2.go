package policy

// Dota2Policy implements AppPolicy for blocking Dota 2.
type Dota2Policy struct{}

// NewDota2Policy creates a new Dota 2 blocking policy.
func NewDota2Policy() *Dota2Policy {
	return &Dota2Policy{}
}

func (p *Dota2Policy) ID() string {
	return "dota2"
}

func (p *Dota2Policy) Name() string {
	return "Dota 2"
}

// ApplicationIDs returns the Dota 2 identifiers.
// Dota 2 ships through Steam, so the bundle id lives under valvesoftware.
func (p *Dota2Policy) ApplicationIDs() []string {
	return []string{
		"com.valvesoftware.dota2",
		"dota2",
		"dota_osx64",
	}
}

// Ensure Dota2Policy implements AppPolicy.
var _ AppPolicy = (*Dota2Policy)(nil)
