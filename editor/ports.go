package editor

// Navigator moves the user between views.
type Navigator interface {
	// Navigate pushes a new location.
	Navigate(path string)
	// Replace swaps the current location without a history entry.
	Replace(path string)
	// Confirm asks the user a yes/no question.
	Confirm(message string) bool
}

// Level is the severity of a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a user-facing message.
type Notice struct {
	Level   Level
	Kind    Kind
	Message string
}

// Notifier shows notices to the user.
type Notifier interface {
	Notify(Notice)
}

// User is the logged-in identity. ID must be non-empty.
type User struct {
	ID string
}

type nopNavigator struct{}

func (nopNavigator) Navigate(string)     {}
func (nopNavigator) Replace(string)      {}
func (nopNavigator) Confirm(string) bool { return true }

type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}
