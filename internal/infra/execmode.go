package infra

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
)

// ExecMode represents the execution mode of the application.
type ExecMode string

const (
	// ExecModeUser installs for the invoking user only (no sudo required)
	ExecModeUser ExecMode = "user"
	// ExecModeSystem installs for every user session (sudo required)
	ExecModeSystem ExecMode = "system"
)

// AutostartLabel names the launchd job and the XDG desktop entry.
const AutostartLabel = "com.focusd.appblock"

// ExecModeConfig holds install paths for a platform and mode.
type ExecModeConfig struct {
	Mode          ExecMode
	Platform      string // runtime.GOOS the paths were resolved for
	BinaryPath    string // Where the binary should be installed
	AutostartDir  string // Directory holding the login entry
	AutostartPath string // Full path to the login entry
	IsRoot        bool
}

// DetectExecMode resolves paths for the running platform and effective UID.
func DetectExecMode() *ExecModeConfig {
	return ResolveExecMode(runtime.GOOS, os.Geteuid() == 0, GetRealUserHome())
}

// ResolveExecMode computes paths without touching the environment
// beyond $XDG_CONFIG_HOME.
func ResolveExecMode(goos string, isRoot bool, home string) *ExecModeConfig {
	cfg := &ExecModeConfig{Mode: ExecModeUser, Platform: goos, IsRoot: isRoot}
	if isRoot {
		cfg.Mode = ExecModeSystem
		cfg.BinaryPath = "/usr/local/bin/appblock"
	} else {
		cfg.BinaryPath = filepath.Join(home, ".local", "bin", "appblock")
	}

	switch goos {
	case "darwin":
		// LaunchAgents run inside the GUI session, which the dialog needs.
		if isRoot {
			cfg.AutostartDir = "/Library/LaunchAgents"
		} else {
			cfg.AutostartDir = filepath.Join(home, "Library", "LaunchAgents")
		}
		cfg.AutostartPath = filepath.Join(cfg.AutostartDir, AutostartLabel+".plist")
	default:
		if isRoot {
			cfg.AutostartDir = "/etc/xdg/autostart"
		} else {
			base := os.Getenv("XDG_CONFIG_HOME")
			if base == "" {
				base = filepath.Join(home, ".config")
			}
			cfg.AutostartDir = filepath.Join(base, "autostart")
		}
		cfg.AutostartPath = filepath.Join(cfg.AutostartDir, AutostartLabel+".desktop")
	}
	return cfg
}

// String returns a human-readable description of the mode.
func (m ExecMode) String() string {
	switch m {
	case ExecModeSystem:
		return "system (all users, root)"
	case ExecModeUser:
		return "user (current user, non-root)"
	default:
		return "unknown"
	}
}

// GetRealUserHome returns the invoking user's home, even under sudo.
func GetRealUserHome() string {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		if u, err := user.Lookup(sudoUser); err == nil {
			return u.HomeDir
		}
	}
	home, _ := os.UserHomeDir()
	return home
}
