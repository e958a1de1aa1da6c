//go:build darwin

package infra

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

const frontmostScript = `tell application "System Events" to get bundle identifier of first application process whose frontmost is true`

// OsascriptProvider asks System Events for the frontmost bundle identifier.
// Requires the Accessibility/Automation permission.
type OsascriptProvider struct {
	logger *zap.Logger
}

// NewFrontmostProvider returns the osascript provider.
func NewFrontmostProvider(logger *zap.Logger) domain.FrontmostProvider {
	return &OsascriptProvider{logger: logger}
}

// Frontmost implements domain.FrontmostProvider.
func (p *OsascriptProvider) Frontmost(ctx context.Context) (domain.ApplicationID, error) {
	out, err := exec.CommandContext(ctx, "osascript", "-e", frontmostScript).Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("osascript failed: %s", strings.TrimSpace(string(ee.Stderr)))
		}
		return "", fmt.Errorf("osascript failed: %w", err)
	}
	id := strings.TrimSpace(string(out))
	if id == "missing value" {
		return "", nil
	}
	return domain.ApplicationID(id), nil
}

// Ensure OsascriptProvider implements domain.FrontmostProvider.
var _ domain.FrontmostProvider = (*OsascriptProvider)(nil)
