package editor

import (
	"errors"

	"github.com/tripcraft/itinerary-editor/internal/docstore"
	"github.com/tripcraft/itinerary-editor/internal/persist"
	"github.com/tripcraft/itinerary-editor/internal/remote"
)

var (
	// ErrAuthRequired is returned by New without a logged-in user.
	ErrAuthRequired = errors.New("authentication required")
	// ErrNotOpen is returned by document operations before a successful Open.
	ErrNotOpen = errors.New("session not open")
	// ErrAlreadyOpen is returned by a second Open.
	ErrAlreadyOpen = errors.New("session already open")

	ErrBusy            = persist.ErrBusy
	ErrLastDay         = docstore.ErrLastDay
	ErrIndexOutOfRange = docstore.ErrIndexOutOfRange
	ErrUnknownField    = docstore.ErrUnknownField
)

type (
	ValidationError = docstore.ValidationError
	QuotaError      = docstore.QuotaError
	RemoteError     = remote.Error
	Kind            = remote.Kind
)

const (
	KindGeneric               = remote.KindGeneric
	KindNotFound              = remote.KindNotFound
	KindAccessDenied          = remote.KindAccessDenied
	KindAuthRequired          = remote.KindAuthRequired
	KindMaxDaysExceeded       = remote.KindMaxDaysExceeded
	KindMaxActivitiesExceeded = remote.KindMaxActivitiesExceeded
)

// IsValidationError reports a draft rejected locally.
func IsValidationError(err error) bool { return docstore.IsValidationError(err) }

// IsQuotaError reports a mutation rejected locally for exceeding a limit.
func IsQuotaError(err error) bool { return docstore.IsQuotaError(err) }

// KindOf classifies a remote failure.
func KindOf(err error) Kind { return remote.KindOf(err) }
