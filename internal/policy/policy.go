// Package policy implements the Strategy pattern for app-specific blocking rules.
// Each policy (Steam, Dota2, user-configured) contributes application
// identifiers to the deny-list.
package policy

import "github.com/eliteGoblin/focusd/app_block/internal/domain"

// AppPolicy defines the strategy interface for blocking an application.
type AppPolicy interface {
	// ID returns unique identifier (e.g., "steam", "dota2").
	ID() string

	// Name returns human-readable name for display.
	Name() string

	// ApplicationIDs returns the identifiers that count as this app being
	// in the foreground: macOS bundle identifiers and Linux process names.
	// Matching is exact.
	ApplicationIDs() []string
}

// TargetSetOf builds the immutable deny-list from a set of policies.
func TargetSetOf(policies ...AppPolicy) domain.TargetSet {
	var ids []string
	for _, p := range policies {
		ids = append(ids, p.ApplicationIDs()...)
	}
	return domain.NewTargetSet(ids...)
}
