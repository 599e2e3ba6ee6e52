package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// SynthesisError reports a failed call to the chat backend. It is returned
// by Pipeline.Process and is distinct from the empty-result fallbacks.
type SynthesisError struct {
	// StatusCode is the upstream HTTP status, or 0 when none was received.
	StatusCode int
	Err        error
}

func (e *SynthesisError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("synthesis failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// IsAuthFailure reports whether the backend rejected the credentials.
func (e *SynthesisError) IsAuthFailure() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

type httpStatuser interface {
	HTTPStatus() int
}

func newSynthesisError(err error) *SynthesisError {
	se := &SynthesisError{Err: err}
	var hs httpStatuser
	if errors.As(err, &hs) {
		se.StatusCode = hs.HTTPStatus()
	}
	return se
}
