package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tripcraft/itinerary-editor/editor"
	"github.com/tripcraft/itinerary-editor/internal/itinerary"
	"github.com/tripcraft/itinerary-editor/internal/remote"
	"github.com/tripcraft/itinerary-editor/internal/saveq"
)

var (
	itineraryID string
	customizing bool
)

// cliNavigator logs navigation requests; a one-shot command never leaves.
type cliNavigator struct{}

func (cliNavigator) Navigate(path string) { log.Info().Str("path", path).Msg("navigate") }
func (cliNavigator) Replace(path string)  { log.Debug().Str("path", path).Msg("route replaced") }
func (cliNavigator) Confirm(string) bool  { return true }

type cliNotifier struct{}

func (cliNotifier) Notify(n editor.Notice) {
	ev := log.Info()
	if n.Level == editor.LevelError {
		ev = log.Error().Stringer("kind", n.Kind)
	}
	ev.Msg(n.Message)
}

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit an itinerary through a customization session",
	}
	cmd.PersistentFlags().StringVarP(&itineraryID, "itinerary", "i", "", "Itinerary id (required)")
	cmd.PersistentFlags().BoolVar(&customizing, "customizing", false, "The id names an existing customized copy")
	_ = cmd.MarkPersistentFlagRequired("itinerary")

	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newSetTextCmd("set-summary", "Replace the summary", (*editor.Session).SetSummary))
	cmd.AddCommand(newSetTextCmd("set-destination", "Replace the destination", (*editor.Session).SetDestination))
	cmd.AddCommand(newAddDayCmd())
	cmd.AddCommand(newDeleteDayCmd())
	cmd.AddCommand(newAddActivityCmd())
	cmd.AddCommand(newDeleteActivityCmd())
	cmd.AddCommand(newMoveActivityCmd())
	cmd.AddCommand(newAddTipCmd())
	cmd.AddCommand(newSaveCmd())
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the document under edit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, func(ctx context.Context, s *editor.Session) error {
				return printJSON(cmd.OutOrStdout(), s.Document())
			})
		},
	}
}

func newSetTextCmd(use, short string, set func(*editor.Session, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <text>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, func(ctx context.Context, s *editor.Session) error {
				return set(s, args[0])
			})
		},
	}
}

func newAddDayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-day",
		Short: "Append an empty day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, func(ctx context.Context, s *editor.Session) error {
				return s.AddDay(ctx)
			})
		},
	}
}

func newDeleteDayCmd() *cobra.Command {
	var day int
	cmd := &cobra.Command{
		Use:   "delete-day",
		Short: "Delete a day and renumber the rest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, func(ctx context.Context, s *editor.Session) error {
				return s.DeleteDay(ctx, day-1)
			})
		},
	}
	cmd.Flags().IntVar(&day, "day", 0, "Day number, starting at 1 (required)")
	_ = cmd.MarkFlagRequired("day")
	return cmd
}

func newAddActivityCmd() *cobra.Command {
	var day int
	var cost int64
	var name, at, duration, actType, location string

	cmd := &cobra.Command{
		Use:   "add-activity",
		Short: "Add an activity to a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := editor.Activity{
				Activity: name,
				Time:     at,
				Duration: duration,
				Cost:     cost,
				Location: location,
			}
			if actType != "" {
				t, err := itinerary.ParseActivityType(actType)
				if err != nil {
					return err
				}
				draft.Type = t
			}
			return runSession(cmd, func(ctx context.Context, s *editor.Session) error {
				added, err := s.AddActivity(ctx, day-1, draft)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Activity added: %s - %s\n", added.ActivityID, added.Activity)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&day, "day", 1, "Day number, starting at 1")
	cmd.Flags().StringVar(&name, "name", "", "Activity name (required)")
	cmd.Flags().StringVar(&at, "time", "", "Start time, HH:MM (required)")
	cmd.Flags().StringVar(&duration, "duration", "", "Duration, e.g. \"1 hour\"")
	cmd.Flags().Int64Var(&cost, "cost", 0, "Cost in VND")
	cmd.Flags().StringVar(&actType, "type", "", "Activity type, e.g. food or culture")
	cmd.Flags().StringVar(&location, "location", "", "Location")
	return cmd
}

func newDeleteActivityCmd() *cobra.Command {
	var day, index int
	cmd := &cobra.Command{
		Use:   "delete-activity",
		Short: "Delete an activity from a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, func(ctx context.Context, s *editor.Session) error {
				return s.DeleteActivity(ctx, day-1, index-1)
			})
		},
	}
	cmd.Flags().IntVar(&day, "day", 1, "Day number, starting at 1")
	cmd.Flags().IntVar(&index, "index", 0, "Activity position within the day, starting at 1 (required)")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}

func newMoveActivityCmd() *cobra.Command {
	var (
		day, index int
		direction  string
	)
	cmd := &cobra.Command{
		Use:   "move-activity",
		Short: "Swap an activity with its neighbour",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var dir editor.Direction
			switch strings.ToLower(direction) {
			case "up":
				dir = editor.Up
			case "down":
				dir = editor.Down
			default:
				return fmt.Errorf("--direction must be up or down, got %q", direction)
			}
			return runSession(cmd, func(ctx context.Context, s *editor.Session) error {
				return s.MoveActivity(ctx, day-1, index-1, dir)
			})
		},
	}
	cmd.Flags().IntVar(&day, "day", 1, "Day number, starting at 1")
	cmd.Flags().IntVar(&index, "index", 0, "Activity position within the day, starting at 1 (required)")
	cmd.Flags().StringVar(&direction, "direction", "up", "up or down")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}

func newAddTipCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "add-tip <content>",
		Short: "Add a travel tip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, func(ctx context.Context, s *editor.Session) error {
				tip, err := s.AddTip(ctx, editor.Tip{Content: args[0], Category: itinerary.TipCategory(category)})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tip added: %s [%s]\n", tip.ID, tip.Category)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", string(itinerary.TipGeneral), "Tip category")
	return cmd
}

func newSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Save the whole document and reload it from the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, func(ctx context.Context, s *editor.Session) error {
				return s.Save(ctx)
			})
		},
	}
}

// runSession opens the itinerary named by --itinerary, runs op, flushes any
// pending text edit and prints a one-line summary of the result.
func runSession(cmd *cobra.Command, op func(context.Context, *editor.Session) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.User == "" {
		return fmt.Errorf("--user: %w", editor.ErrAuthRequired)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	client, err := remote.NewClient(cfg.APIURL, cfg.User,
		remote.WithHTTPTimeout(cfg.HTTPTimeout),
		remote.WithLoadRetry(cfg.LoadMaxAttempts, cfg.LoadBackoff),
		remote.WithLogger(log.Logger),
	)
	if err != nil {
		return err
	}

	qcfg, err := saveq.LoadConfig()
	if err != nil {
		return fmt.Errorf("save queue config: %w", err)
	}
	qcfg.Logger = log.Logger
	qcfg.ErrorHandler = func(err error) {
		log.Debug().Err(err).Msg("save job failed")
	}
	exec := saveq.NewExecutor(qcfg)
	defer exec.Stop()

	s, err := editor.New(client, editor.User{ID: cfg.User},
		editor.WithNavigator(cliNavigator{}),
		editor.WithNotifier(cliNotifier{}),
		editor.WithLogger(log.Logger),
		editor.WithDebounce(cfg.Debounce),
		editor.WithStatusWindows(cfg.SavedDisplay, cfg.ErrorDisplay),
		editor.WithRedirectDelay(cfg.RedirectDelay),
		editor.WithExecutor(exec),
		editor.WithStatusListener(func(st editor.Status) {
			log.Debug().Stringer("status", st).Msg("save status")
		}),
	)
	if err != nil {
		return err
	}
	if err := s.Open(ctx, editor.Route{ItineraryID: itineraryID, Customizing: customizing}); err != nil {
		_ = s.Close(ctx)
		return fmt.Errorf("open %s: %w", itineraryID, err)
	}

	opErr := op(ctx, s)
	ids, totals := s.Identity(), s.Totals()
	closeErr := s.Close(ctx)
	if opErr != nil {
		return opErr
	}
	if closeErr != nil {
		return fmt.Errorf("save %s: %w", ids.CustomizedAIID, closeErr)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Itinerary %s: %d days, %d activities, %d VND\n",
		ids.CustomizedAIID, totals.TotalDays, totals.TotalActivities, totals.TotalCost)
	return nil
}
