// Command errandctl is the operator's view of the errand log: daily summaries,
// record lookups and a header check, without going through chat.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ananth-NQI/errandguy-backend/internal/app"
	"github.com/Ananth-NQI/errandguy-backend/internal/config"
	"github.com/Ananth-NQI/errandguy-backend/internal/logger"
	"github.com/Ananth-NQI/errandguy-backend/internal/services"
)

var (
	jsonOutput bool
	verbose    bool
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "errandctl",
	Short:         "Inspect the My Errand Guy errand log",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var summaryCmd = &cobra.Command{
	Use:   "summary [YYYY-MM-DD]",
	Short: "Print the daily summary (today by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(ctx context.Context, _ *services.ErrandService, summary *services.SummaryService) error {
			date := summary.Today()
			if len(args) == 1 {
				date = args[0]
			}
			report, err := summary.Summarize(ctx, date)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd, report)
			}
			fmt.Fprintln(cmd.OutOrStdout(), services.RenderSummary(report))
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <errand-id>",
	Short: "Print one errand record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(ctx context.Context, errands *services.ErrandService, _ *services.SummaryService) error {
			rec, err := errands.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd, rec)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Errand:     %s\n", rec.ID)
			fmt.Fprintf(out, "Status:     %s\n", rec.Status)
			fmt.Fprintf(out, "Requester:  %s\n", rec.RequesterName)
			fmt.Fprintf(out, "Receiver:   %s\n", rec.ReceiverName)
			fmt.Fprintf(out, "Pickup:     %s\n", rec.PickupLocation)
			fmt.Fprintf(out, "Drop-off:   %s\n", rec.DropoffLocation)
			fmt.Fprintf(out, "Driver:     %s\n", rec.Driver)
			fmt.Fprintf(out, "Updated:    %s\n", rec.LastUpdatedAt)
			fmt.Fprintf(out, "Paid:       %t\n", rec.Paid)
			return nil
		})
	},
}

var checkSchemaCmd = &cobra.Command{
	Use:   "check-schema",
	Short: "Verify the errand log header row",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		// never write a header from the CLI
		cfg.Sheet.Bootstrap = false

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		st, err := app.OpenStorage(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		fmt.Fprintf(cmd.OutOrStdout(), "Errand log %q (%s): header OK\n", cfg.Sheet.Name, st.Kind)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stdout")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Deadline for store calls")

	rootCmd.AddCommand(summaryCmd, showCmd, checkSchemaCmd)
}

func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewNop()
	if verbose {
		log = logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	}
	return cfg, log, nil
}

// withServices opens the errand log read-only for the duration of fn
func withServices(parent context.Context, fn func(ctx context.Context, errands *services.ErrandService, summary *services.SummaryService) error) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	cfg.Sheet.Bootstrap = false

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	st, err := app.OpenStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	errands, summary := app.NewServices(st.Errand, cfg, log)
	return fn(ctx, errands, summary)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "errandctl:", err)
		os.Exit(1)
	}
}
