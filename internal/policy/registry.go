package policy

import (
	"fmt"
	"sort"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// builtins maps built-in policy IDs to constructors.
var builtins = map[string]func() AppPolicy{
	"steam": func() AppPolicy { return NewSteamPolicy() },
	"dota2": func() AppPolicy { return NewDota2Policy() },
}

// BuiltinIDs returns the IDs of all built-in policies, sorted.
func BuiltinIDs() []string {
	ids := make([]string, 0, len(builtins))
	for id := range builtins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Registry holds all app blocking policies.
type Registry struct {
	policies map[string]AppPolicy
}

// NewRegistry creates a registry with all default policies.
func NewRegistry() *Registry {
	r := &Registry{
		policies: make(map[string]AppPolicy),
	}

	// Register default policies
	r.Register(NewSteamPolicy())
	r.Register(NewDota2Policy())

	return r
}

// NewRegistryWithPolicies creates a registry with custom policies (for testing).
func NewRegistryWithPolicies(policies ...AppPolicy) *Registry {
	r := &Registry{
		policies: make(map[string]AppPolicy),
	}
	for _, p := range policies {
		r.Register(p)
	}
	return r
}

// NewRegistryFromConfig enables the named built-in policies and adds a
// custom policy for extra identifiers when there are any.
func NewRegistryFromConfig(builtinIDs []string, extra []string) (*Registry, error) {
	r := NewRegistryWithPolicies()
	for _, id := range builtinIDs {
		ctor, ok := builtins[id]
		if !ok {
			return nil, fmt.Errorf("unknown policy %q (available: %v)", id, BuiltinIDs())
		}
		r.Register(ctor())
	}
	if len(extra) > 0 {
		r.Register(NewCustomPolicy(extra))
	}
	return r, nil
}

// Register adds a policy to the registry.
func (r *Registry) Register(p AppPolicy) {
	r.policies[p.ID()] = p
}

// Get returns a policy by ID.
func (r *Registry) Get(id string) (AppPolicy, bool) {
	p, ok := r.policies[id]
	return p, ok
}

// GetAll returns all registered policies ordered by ID.
func (r *Registry) GetAll() []AppPolicy {
	result := make([]AppPolicy, 0, len(r.policies))
	for _, id := range r.List() {
		result = append(result, r.policies[id])
	}
	return result
}

// List returns all policy IDs, sorted.
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.policies))
	for id := range r.policies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TargetSet returns the union of every policy's identifiers.
func (r *Registry) TargetSet() domain.TargetSet {
	return TargetSetOf(r.GetAll()...)
}
