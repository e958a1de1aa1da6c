package domain

import "errors"

var (
	// ErrObservationUnavailable means the host could not be queried for
	// foreground activity (permission revoked, no display). Recoverable.
	ErrObservationUnavailable = errors.New("foreground activity unavailable")

	// ErrInterventionPresentation means the blocking surface could not be shown.
	ErrInterventionPresentation = errors.New("intervention presentation failed")

	// ErrSettingsUnavailable means the persisted settings could not be read or written.
	ErrSettingsUnavailable = errors.New("settings unavailable")
)
