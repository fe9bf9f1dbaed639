// Command itinctl inspects itinerary payloads, runs the local dev server and
// drives editing sessions against a remote itinerary API.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tripcraft/itinerary-editor/internal/config"
	"github.com/tripcraft/itinerary-editor/internal/logger"
)

var (
	apiURL string
	userID string
	debug  bool
)

const commandTimeout = 30 * time.Second

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "itinctl",
		Short:         "itinctl edits and inspects travel itineraries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Logger = logger.Console(cmd.ErrOrStderr(), logLevel())
			zerolog.SetGlobalLevel(log.Logger.GetLevel())

			if debug {
				_ = os.Setenv("ITINERARY_DEBUG", "true")
				log.Debug().Msg("debug logging enabled")
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", getEnv("ITINERARY_API_URL", "http://localhost:8080"), "Base URL of the itinerary API")
	rootCmd.PersistentFlags().StringVar(&userID, "user", getEnv("ITINERARY_API_USER", ""), "Logged-in user id, sent as the bearer token")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newNormalizeCmd())
	rootCmd.AddCommand(newTotalsCmd())
	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newEditCmd())

	return rootCmd
}

// logLevel is "debug" under --debug, else ITINERARY_LOG_LEVEL. A config that
// fails to load is reported by the command that needs it.
func logLevel() string {
	if debug {
		return "debug"
	}
	cfg, err := config.New()
	if err != nil {
		return "info"
	}
	return cfg.LogLevel
}

// loadConfig reads ITINERARY_* settings; flags win over the environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if userID != "" {
		cfg.User = userID
	}
	return cfg, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
