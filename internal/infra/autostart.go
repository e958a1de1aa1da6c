package infra

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// LaunchAgent plist; RunAtLoad fires `boot` at every login.
const launchAgentTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>

    <key>ProgramArguments</key>
    <array>
        <string>{{.ExecutablePath}}</string>
        <string>boot</string>
    </array>

    <key>RunAtLoad</key>
    <true/>

    <key>StandardOutPath</key>
    <string>{{.LogPath}}</string>

    <key>StandardErrorPath</key>
    <string>{{.ErrorLogPath}}</string>

    <key>ProcessType</key>
    <string>Interactive</string>
</dict>
</plist>`

// XDG autostart entry, picked up by the desktop session at login.
const desktopEntryTemplate = `[Desktop Entry]
Type=Application
Name=App Monitor
Comment=Restores app blocking after login
Exec="{{.ExecutablePath}}" boot
X-GNOME-Autostart-enabled=true
NoDisplay=true
Terminal=false
`

const logDir = "/var/tmp"

type autostartTemplateData struct {
	Label          string
	ExecutablePath string
	LogPath        string
	ErrorLogPath   string
}

// AutostartManagerImpl implements domain.AutostartManager for launchd and XDG.
type AutostartManagerImpl struct {
	platform string
	dir      string
	path     string
	// run executes launchctl; replaced in tests.
	run func(name string, args ...string) error
}

// NewAutostartManager creates a manager for the resolved platform paths.
func NewAutostartManager(config *ExecModeConfig) domain.AutostartManager {
	return &AutostartManagerImpl{
		platform: config.Platform,
		dir:      config.AutostartDir,
		path:     config.AutostartPath,
		run:      runCommand,
	}
}

func runCommand(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (m *AutostartManagerImpl) usesLaunchd() bool {
	return m.platform == "darwin"
}

// render produces the entry content for execPath.
func (m *AutostartManagerImpl) render(execPath string) ([]byte, error) {
	tmplStr := desktopEntryTemplate
	if m.usesLaunchd() {
		tmplStr = launchAgentTemplate
	}

	tmpl, err := template.New("autostart").Parse(tmplStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse autostart template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, autostartTemplateData{
		Label:          AutostartLabel,
		ExecutablePath: execPath,
		LogPath:        filepath.Join(logDir, "appblock.boot.log"),
		ErrorLogPath:   filepath.Join(logDir, "appblock.boot.error.log"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute autostart template: %w", err)
	}
	return buf.Bytes(), nil
}

func (m *AutostartManagerImpl) write(execPath string) error {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return err
	}
	content, err := m.render(execPath)
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, content, 0644)
}

// Install writes the entry and, on macOS, loads it.
func (m *AutostartManagerImpl) Install(execPath string) error {
	if err := m.write(execPath); err != nil {
		return err
	}
	return m.load()
}

// Uninstall unloads and removes the entry.
func (m *AutostartManagerImpl) Uninstall() error {
	_ = m.unload()
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsInstalled checks if the entry file exists.
func (m *AutostartManagerImpl) IsInstalled() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// NeedsUpdate checks if the entry exists but differs from what execPath would produce.
func (m *AutostartManagerImpl) NeedsUpdate(execPath string) bool {
	if !m.IsInstalled() {
		return false // needs install, not update
	}
	current, err := os.ReadFile(m.path)
	if err != nil {
		return true
	}
	expected, err := m.render(execPath)
	if err != nil {
		return true
	}
	return !bytes.Equal(current, expected)
}

// Update rewrites the entry and reloads it.
func (m *AutostartManagerImpl) Update(execPath string) error {
	_ = m.unload()
	if err := m.write(execPath); err != nil {
		return err
	}
	return m.load()
}

// GetPath returns the entry file path.
func (m *AutostartManagerImpl) GetPath() string {
	return m.path
}

// load is a no-op for XDG; the session reads the directory at login.
func (m *AutostartManagerImpl) load() error {
	if !m.usesLaunchd() {
		return nil
	}
	return m.run("launchctl", "load", m.path)
}

func (m *AutostartManagerImpl) unload() error {
	if !m.usesLaunchd() {
		return nil
	}
	return m.run("launchctl", "unload", m.path)
}

// Ensure AutostartManagerImpl implements domain.AutostartManager.
var _ domain.AutostartManager = (*AutostartManagerImpl)(nil)
