package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tripcraft/itinerary-editor/internal/devserver"
	"github.com/tripcraft/itinerary-editor/internal/logger"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local itinerary API backed by sqlite or postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.DevAddr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			openCtx, cancel := context.WithTimeout(ctx, commandTimeout)
			store, err := devserver.Open(openCtx, cfg.DevDBDriver, cfg.DevSQLitePath, cfg.DevPostgresDSN)
			cancel()
			if err != nil {
				return err
			}

			log.Info().
				Str("addr", cfg.DevAddr).
				Str("driver", cfg.DevDBDriver).
				Msg("starting dev server")

			srvLog := logger.New("itinerary-devserver")
			return devserver.New(cfg.DevAddr, store, srvLog).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to ITINERARY_DEV_ADDR)")
	return cmd
}
