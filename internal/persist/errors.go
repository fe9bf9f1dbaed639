package persist

import "errors"

var (
	// ErrBusy is returned when an operation of the same class is still in flight.
	ErrBusy = errors.New("operation already in progress")
	// ErrNoTarget is returned when a save is requested before the session knows
	// which itinerary to save to.
	ErrNoTarget = errors.New("no save target")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("coordinator closed")
)
