package infra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// Notice is the text of the blocking surface.
type Notice struct {
	Title   string
	Message string
	Button  string
}

// DialogPresenter shows a modal system dialog per intervention
// (osascript on macOS, zenity elsewhere). The dialog is a child process;
// dismissal is its exit.
type DialogPresenter struct {
	notice  Notice
	logger  *zap.Logger
	command func(n Notice, app domain.ApplicationID) *exec.Cmd

	mu      sync.Mutex
	current *exec.Cmd
}

// NewDialogPresenter creates a presenter for the running platform.
func NewDialogPresenter(notice Notice, logger *zap.Logger) *DialogPresenter {
	return &DialogPresenter{
		notice:  notice,
		logger:  logger,
		command: dialogCommand,
	}
}

func dialogCommand(n Notice, app domain.ApplicationID) *exec.Cmd {
	if runtime.GOOS == "darwin" {
		script := fmt.Sprintf(`display dialog "%s" with title "%s" buttons {"%s"} default button 1 with icon stop`,
			appleScriptQuote(n.Message), appleScriptQuote(n.Title), appleScriptQuote(n.Button))
		return exec.Command("osascript", "-e", script)
	}
	return exec.Command("zenity", "--error", "--no-wrap",
		"--title", n.Title, "--text", n.Message, "--ok-label", n.Button)
}

func appleScriptQuote(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// Present starts the dialog; dismissed runs once when it exits.
func (p *DialogPresenter) Present(ctx context.Context, app domain.ApplicationID, dismissed func()) error {
	cmd := p.command(p.notice, app)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start dialog: %w", err)
	}

	p.mu.Lock()
	p.current = cmd
	p.mu.Unlock()

	go func() {
		defer dismissed()
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("dialog watcher panicked", zap.Any("panic", r))
			}
		}()

		err := cmd.Wait()

		p.mu.Lock()
		if p.current == cmd {
			p.current = nil
		}
		p.mu.Unlock()

		p.logger.Debug("dialog dismissed", zap.String("app", string(app)), zap.Error(err))
	}()
	return nil
}

// Dismiss kills a showing dialog; its watcher then releases the gate.
func (p *DialogPresenter) Dismiss() error {
	p.mu.Lock()
	cmd := p.current
	p.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to dismiss dialog: %w", err)
	}
	return nil
}

// Ensure DialogPresenter implements domain.InterventionPresenter.
var _ domain.InterventionPresenter = (*DialogPresenter)(nil)

// LogPresenter is the headless surface: it logs the block and is
// dismissed immediately.
type LogPresenter struct {
	notice Notice
	logger *zap.Logger
}

// NewLogPresenter creates a headless presenter.
func NewLogPresenter(notice Notice, logger *zap.Logger) *LogPresenter {
	return &LogPresenter{notice: notice, logger: logger}
}

// Present implements domain.InterventionPresenter.
func (p *LogPresenter) Present(ctx context.Context, app domain.ApplicationID, dismissed func()) error {
	p.logger.Warn(p.notice.Title,
		zap.String("app", string(app)),
		zap.String("message", p.notice.Message))
	dismissed()
	return nil
}

// Dismiss implements domain.InterventionPresenter.
func (p *LogPresenter) Dismiss() error { return nil }

// Ensure LogPresenter implements domain.InterventionPresenter.
var _ domain.InterventionPresenter = (*LogPresenter)(nil)
