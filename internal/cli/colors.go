package cli

import (
	apperrors "github.com/agbru/logfit/internal/errors"
	"github.com/agbru/logfit/internal/ui"
)

// CLIColorProvider implements apperrors.ColorProvider using the current
// ui theme.
type CLIColorProvider struct{}

var _ apperrors.ColorProvider = CLIColorProvider{}

// Red returns the error color.
func (CLIColorProvider) Red() string { return ui.ColorRed() }

// Yellow returns the warning color.
func (CLIColorProvider) Yellow() string { return ui.ColorYellow() }

// Reset returns the reset sequence.
func (CLIColorProvider) Reset() string { return ui.ColorReset() }
