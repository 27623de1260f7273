package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure modes shared across the fixer engine,
// the plugin registry, and the service controller. Callers classify with
// errors.Is; the chat workflow converts all of them into user-facing text.
var (
	// ErrNotFound covers unresolved plugins, services, and config files.
	ErrNotFound = errors.New("not found")

	// ErrValidationFailed means the pre-restart configuration test reported
	// a broken config. No restart strategy runs after this.
	ErrValidationFailed = errors.New("configuration validation failed")

	// ErrRestartExhausted means every restart strategy in the fallback chain
	// failed. The wrapping error carries the most specific diagnostic.
	ErrRestartExhausted = errors.New("all restart strategies failed")
)

// InitError reports a plugin that could not be constructed or initialized.
// The registry does not cache the failed instance, so a later Get retries.
type InitError struct {
	Name string
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initializing plugin %q: %v", e.Name, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }
