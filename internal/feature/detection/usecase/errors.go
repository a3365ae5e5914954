package usecase

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is the parent of every error caused by invalid detection settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrUnknownMethod is returned when a requested detection method is not registered.
	ErrUnknownMethod = fmt.Errorf("%w: unknown detection method", ErrConfiguration)
	// ErrUnknownStrategy is returned when a requested decision strategy is not registered.
	ErrUnknownStrategy = fmt.Errorf("%w: unknown decision strategy", ErrConfiguration)
	// ErrDuplicateName is returned when two implementations share a registry name.
	ErrDuplicateName = errors.New("duplicate registry name")
	// ErrSessionNotFound is returned by a SessionStore for fingerprints without state.
	ErrSessionNotFound = errors.New("session not found")
	// ErrWaitTimeout is returned when a PROCESSING session did not finish within the wait budget.
	ErrWaitTimeout = errors.New("timed out waiting for detection session")
	// ErrSettingsNotFound is returned when an identity has no stored settings.
	ErrSettingsNotFound = errors.New("settings not found")
)
