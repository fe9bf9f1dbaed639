package saveq

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Config groups all tunables. Values are taken from environment variables
// with the prefix "ITINERARY_SAVEQ_". Example: ITINERARY_SAVEQ_MAX_ATTEMPTS=3.
type Config struct {
	Shards         int           `envconfig:"SHARDS"          default:"1"`
	QueueSize      int           `envconfig:"QUEUE_SIZE"      default:"16"`
	EnqueueTimeout time.Duration `envconfig:"ENQUEUE_TIMEOUT" default:"100ms"`

	// MaxAttempts of 1 disables retries: a failed save surfaces immediately.
	MaxAttempts int           `envconfig:"MAX_ATTEMPTS" default:"1"`
	BaseBackoff time.Duration `envconfig:"BASE_BACKOFF" default:"200ms"`
	MaxInterval time.Duration `envconfig:"MAX_INTERVAL" default:"5s"`

	// ErrorHandler is called synchronously after a Job's final non-nil error.
	ErrorHandler func(error)    `envconfig:"-"`
	Logger       zerolog.Logger `envconfig:"-"`
}

// LoadConfig populates Config from environment variables (prefix ITINERARY_SAVEQ_).
func LoadConfig() (Config, error) {
	c := Config{Logger: zerolog.Nop()}
	return c, envconfig.Process("ITINERARY_SAVEQ", &c)
}
