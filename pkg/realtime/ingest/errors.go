package ingest

import (
	"errors"
	"fmt"
)

var ErrBodyTooLarge = errors.New("response body exceeds limit")

// FeedTransportError is a failed request for the feed. StatusCode is zero when no
// response was received.
type FeedTransportError struct {
	StatusCode int
	Cause      error
}

func (e *FeedTransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("feed request failed with status %d: %v", e.StatusCode, e.Cause)
	}

	return fmt.Sprintf("feed request failed: %v", e.Cause)
}

func (e *FeedTransportError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the request may succeed if repeated
func (e *FeedTransportError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}

type FeedDecodeError struct {
	Cause error
}

func (e *FeedDecodeError) Error() string {
	return fmt.Sprintf("failed to decode feed: %v", e.Cause)
}

func (e *FeedDecodeError) Unwrap() error {
	return e.Cause
}
