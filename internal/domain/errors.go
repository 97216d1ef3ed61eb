package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrRemote matches every *RemoteError via errors.Is
	ErrRemote = errors.New("remote request failed")

	// ErrNotFoundLocally indicates the artwork is not in the loaded catalog
	ErrNotFoundLocally = errors.New("artwork not loaded")

	// ErrConcurrentToggle indicates a toggle for the same artwork and kind is in flight
	ErrConcurrentToggle = errors.New("toggle already in progress")

	// ErrFetchInFlight indicates the catalog is already fetching
	ErrFetchInFlight = errors.New("catalog fetch already in progress")

	// ErrPersist indicates the remote change succeeded but the ledger could not be saved
	ErrPersist = errors.New("failed to persist engagement ledger")
)

// RemoteError is returned when the API call fails or returns a non-success envelope
type RemoteError struct {
	Op        string // Endpoint name, e.g. "artworks.like"
	Status    int    // HTTP status, 0 if the request never completed
	Code      int    // Envelope code, 0 if absent
	Message   string // Envelope message or transport error text
	RequestID string // X-Request-ID sent with the request
	Err       error  // Underlying transport error, if any
}

func (e *RemoteError) Error() string {
	switch {
	case e.Status == 0:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Code != 0:
		return fmt.Sprintf("%s: %s (status %d, code %d)", e.Op, e.Message, e.Status, e.Code)
	default:
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool { return target == ErrRemote }
