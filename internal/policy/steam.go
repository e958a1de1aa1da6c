package policy

// SteamPolicy implements AppPolicy for blocking Steam.
type SteamPolicy struct{}

// NewSteamPolicy creates a new Steam blocking policy.
func NewSteamPolicy() *SteamPolicy {
	return &SteamPolicy{}
}

func (p *SteamPolicy) ID() string {
	return "steam"
}

func (p *SteamPolicy) Name() string {
	return "Steam"
}

// ApplicationIDs returns the Steam client identifiers.
func (p *SteamPolicy) ApplicationIDs() []string {
	return []string{
		// macOS bundle identifier
		"com.valvesoftware.steam",

		// Linux process names
		"steam",
		"steamwebhelper",
		"steam_osx",
	}
}

// Ensure SteamPolicy implements AppPolicy.
var _ AppPolicy = (*SteamPolicy)(nil)
