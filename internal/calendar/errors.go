package calendar

import (
	"errors"
	"fmt"

	"github.com/vaidrix/meetingbot/internal/google"
)

// ErrUnauthenticated is returned by every gateway operation when no OAuth
// credential has been stored yet. It is the credential store's sentinel so
// callers can test either package's error with errors.Is.
var ErrUnauthenticated = google.ErrNotAuthenticated

// ProviderError wraps a failure reported by the Google Calendar backend:
// rate limits, an invalid calendar id, network faults. It is distinct from
// ErrUnauthenticated, which means no credential exists at all.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("calendar %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// providerErr wraps err as a ProviderError unless it already carries the
// unauthenticated sentinel.
func providerErr(op string, err error) error {
	if errors.Is(err, ErrUnauthenticated) {
		return err
	}
	return &ProviderError{Op: op, Err: err}
}
