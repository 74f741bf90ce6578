package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ternarybob/hubcheck/internal/common"
	"github.com/ternarybob/hubcheck/internal/scenarios"
	"github.com/ternarybob/hubcheck/internal/services/scheduler"
)

// ScheduleCmd returns the schedule command
func ScheduleCmd() *cobra.Command {
	var (
		cronExpr  string
		selected  []string
		immediate bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the scenarios repeatedly on a cron schedule",
		Long: `Keep one browser open and run the scenarios on a cron schedule until
interrupted. A run that is still going when the next tick fires causes
that tick to be skipped. The interval must be at least 5 minutes.

Examples:
  hubcheck schedule
  hubcheck schedule --cron "*/30 * * * *" --now`,
		RunE: func(cmd *cobra.Command, args []string) error {
			chosen, err := scenarios.Select(selected...)
			if err != nil {
				return err
			}

			application, err := openApp(true)
			if err != nil {
				return err
			}
			defer application.Close()

			if cronExpr == "" {
				cronExpr = application.Config.Schedule.Cron
			}
			if err := common.ValidateSchedule(cronExpr); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			service := scheduler.NewService(func(ctx context.Context) error {
				result, err := application.Run(ctx, chosen)
				if err != nil {
					return err
				}
				displayRun(out, result)
				if !result.Summary.Succeeded() {
					return ErrScenariosFailed
				}
				return nil
			}, application.Logger)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := service.Start(ctx, cronExpr); err != nil {
				return err
			}
			defer service.Stop()

			if immediate {
				common.SafeGo(application.Logger, "schedule-now", func() { service.TriggerNow() })
			}

			fmt.Fprintf(out, "Scheduled %s, next run %s. Press Ctrl+C to stop.\n",
				cronExpr, service.NextRun().Local().Format("2006-01-02 15:04"))

			<-ctx.Done()
			application.Logger.Info().Msg("Interrupt signal received")

			completed, skipped, _, _ := service.Stats()
			application.Logger.Info().
				Int("completed", completed).
				Int("skipped", skipped).
				Msg("Schedule finished")
			return nil
		},
	}

	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression (default from [schedule] cron)")
	cmd.Flags().StringSliceVarP(&selected, "scenario", "s", nil, "Scenario id to run (repeatable, default all)")
	cmd.Flags().BoolVar(&immediate, "now", false, "Also run once immediately")

	return cmd
}
