package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tripcraft/itinerary-editor/internal/itinerary"
	"github.com/tripcraft/itinerary-editor/internal/normalize"
)

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [file]",
		Short: "Print the canonical form of a server itinerary payload (stdin when no file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), doc)
		},
	}
}

func newTotalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "totals [file]",
		Short: "Print day, activity and cost totals of an itinerary payload",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args)
			if err != nil {
				return err
			}
			t := itinerary.CalculateTotals(doc)
			fmt.Fprintf(cmd.OutOrStdout(), "Days: %d\nActivities: %d\nCost: %d VND\n", t.TotalDays, t.TotalActivities, t.TotalCost)
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <itinerary-id> [file]",
		Short: "Upload an original itinerary to the dev server",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readInput(cmd, args[1:])
			if err != nil {
				return err
			}
			if !json.Valid(body) {
				return fmt.Errorf("seed %s: input is not valid JSON", args[0])
			}
			if userID == "" {
				return fmt.Errorf("--user is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			resp, err := resty.New().
				SetBaseURL(apiURL).
				SetAuthToken(userID).
				R().
				SetContext(ctx).
				SetHeader("Content-Type", "application/json").
				SetPathParam("id", args[0]).
				SetBody(body).
				Put("/api/originals/{id}")
			if err != nil {
				return fmt.Errorf("seed %s: %w", args[0], err)
			}
			if resp.IsError() {
				return fmt.Errorf("seed %s: %s: %s", args[0], resp.Status(), resp.String())
			}

			log.Debug().Str("itinerary_id", args[0]).Int("bytes", len(body)).Msg("original seeded")
			fmt.Fprintf(cmd.OutOrStdout(), "Original seeded: %s\n", args[0])
			return nil
		},
	}
}

func readDocument(cmd *cobra.Command, args []string) (itinerary.Document, error) {
	body, err := readInput(cmd, args)
	if err != nil {
		return itinerary.Document{}, err
	}
	raw := map[string]any{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return itinerary.Document{}, fmt.Errorf("decode payload: %w", err)
	}
	// Envelope responses carry the document under "data".
	if data, ok := raw["data"].(map[string]any); ok {
		raw = data
	}
	return normalize.Normalize(raw), nil
}

// readInput reads args[0], or the command's stdin when it is absent or "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", args[0], err)
	}
	return b, nil
}
