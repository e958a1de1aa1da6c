//go:build !linux && !darwin

package infra

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

type unsupportedProvider struct{}

// NewFrontmostProvider returns a provider that always fails, so the
// monitor runs degraded instead of crashing.
func NewFrontmostProvider(logger *zap.Logger) domain.FrontmostProvider {
	return unsupportedProvider{}
}

func (unsupportedProvider) Frontmost(ctx context.Context) (domain.ApplicationID, error) {
	return "", fmt.Errorf("foreground detection not supported on %s", runtime.GOOS)
}
