package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of failure categories reported by a Store.
type Kind int

const (
	// KindGeneric covers network failures and any unclassified server error.
	KindGeneric Kind = iota
	KindNotFound
	KindAccessDenied
	KindAuthRequired
	KindMaxDaysExceeded
	KindMaxActivitiesExceeded
)

// String returns the wire code for the kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindAccessDenied:
		return "ACCESS_DENIED"
	case KindAuthRequired:
		return "AUTH_REQUIRED"
	case KindMaxDaysExceeded:
		return "MAX_DAYS_EXCEEDED"
	case KindMaxActivitiesExceeded:
		return "MAX_ACTIVITIES_EXCEEDED"
	default:
		return "GENERIC"
	}
}

// KindFromCode parses a wire code. Unknown codes map to KindGeneric.
func KindFromCode(code string) (Kind, bool) {
	switch code {
	case "NOT_FOUND":
		return KindNotFound, true
	case "ACCESS_DENIED", "FORBIDDEN":
		return KindAccessDenied, true
	case "AUTH_REQUIRED", "UNAUTHORIZED":
		return KindAuthRequired, true
	case "MAX_DAYS_EXCEEDED":
		return KindMaxDaysExceeded, true
	case "MAX_ACTIVITIES_EXCEEDED":
		return KindMaxActivitiesExceeded, true
	}
	return KindGeneric, false
}

// kindFromStatus maps an HTTP status to a kind when the body carries no code.
func kindFromStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindAuthRequired
	case http.StatusForbidden:
		return KindAccessDenied
	case http.StatusNotFound:
		return KindNotFound
	default:
		return KindGeneric
	}
}

// Error is the tagged error returned by every Store operation.
type Error struct {
	Op      string // "load", "save", "delete activity", ...
	Kind    Kind
	Status  int // HTTP status code (0 for network errors)
	Message string
	Err     error // underlying cause, if any
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s: [%s] HTTP %d: %s", e.Op, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: [%s] %s", e.Op, e.Kind, msg)
}

// Unwrap returns the underlying error for error chain compatibility.
func (e *Error) Unwrap() error { return e.Err }

// Recoverable reports whether retrying the same request may succeed:
// network failures, 5xx, 408 and 429.
func (e *Error) Recoverable() bool {
	if e.Kind != KindGeneric {
		return false
	}
	switch {
	case e.Status == 0:
		return e.Err != nil
	case e.Status == http.StatusRequestTimeout, e.Status == http.StatusTooManyRequests:
		return true
	case e.Status >= 500:
		return true
	}
	return false
}

// KindOf extracts the kind from err. Errors that did not come from a Store
// are KindGeneric.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindGeneric
}

// Is reports whether err is a Store error of kind k.
func Is(err error, k Kind) bool {
	var re *Error
	return errors.As(err, &re) && re.Kind == k
}

// IsRecoverable reports whether err is a Store error worth retrying.
func IsRecoverable(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Recoverable()
}

// Message returns the user-facing message carried by err.
func Message(err error) string {
	var re *Error
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func networkError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindGeneric, Err: err, Message: err.Error()}
}
