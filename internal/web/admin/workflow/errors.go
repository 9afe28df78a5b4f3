package workflow

import "github.com/Laisky/errors/v2"

var (
	// ErrBusy rejects a second submission while one is in flight.
	ErrBusy = errors.New("another request is in progress")
	// ErrInvalidTransition rejects an operation the current state does not allow.
	ErrInvalidTransition = errors.New("invalid workflow transition")
	// ErrDeletePending rejects a delete request while another confirmation is open.
	ErrDeletePending = errors.New("another delete is awaiting confirmation")
)
