package persist

// Status is the save indicator state machine:
// Idle → Saving → {Saved | Error} → Idle.
type Status int

const (
	Idle Status = iota
	Saving
	Saved
	Error
)

func (s Status) String() string {
	switch s {
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	case Error:
		return "error"
	default:
		return "idle"
	}
}

// Channel identifies which persistence path triggered a save.
type Channel int

const (
	// Immediate saves follow structural mutations.
	Immediate Channel = iota
	// Debounced saves follow free-text edits once typing stops.
	Debounced
	// Explicit saves are requested by the user.
	Explicit
)

func (c Channel) String() string {
	switch c {
	case Debounced:
		return "debounced"
	case Explicit:
		return "explicit"
	default:
		return "immediate"
	}
}
