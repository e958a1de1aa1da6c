package infra

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// Status notification posted when monitoring starts.
const (
	MonitorActiveTitle   = "App Monitor Active"
	MonitorActiveMessage = "Monitoring for blocked applications"
)

// DesktopNotifier posts a desktop notification (osascript or notify-send).
type DesktopNotifier struct {
	logger *zap.Logger
	run    func(name string, args ...string) error
}

// NewDesktopNotifier creates a notifier for the running platform.
func NewDesktopNotifier(logger *zap.Logger) *DesktopNotifier {
	return &DesktopNotifier{logger: logger, run: runCommand}
}

// Notify implements domain.Notifier.
func (n *DesktopNotifier) Notify(title, message string) error {
	var err error
	if runtime.GOOS == "darwin" {
		script := fmt.Sprintf(`display notification "%s" with title "%s"`,
			appleScriptQuote(message), appleScriptQuote(title))
		err = n.run("osascript", "-e", script)
	} else {
		err = n.run("notify-send", "--app-name=appblock", title, message)
	}
	if err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	n.logger.Debug("notification posted", zap.String("title", title))
	return nil
}

// Ensure DesktopNotifier implements domain.Notifier.
var _ domain.Notifier = (*DesktopNotifier)(nil)
