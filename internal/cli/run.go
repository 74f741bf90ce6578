package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ternarybob/hubcheck/internal/scenarios"
)

// ErrScenariosFailed makes the process exit non-zero when a scenario failed
var ErrScenariosFailed = errors.New("one or more scenarios failed")

// RunCmd returns the run command
func RunCmd() *cobra.Command {
	var (
		selected []string
		list     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the employee hub scenarios once",
		Long: `Drive Chrome through the employee hub scenarios and report the results.

Credentials are read from HUBCHECK_EMAIL and HUBCHECK_PASSWORD.
Artifacts (screenshots, failure page captures, summaries) are written under
a new directory in the configured results directory.

Examples:
  hubcheck run
  hubcheck run --scenario validation --scenario happy-path
  hubcheck run --list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				for _, s := range scenarios.All() {
					fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", s.ID, s.Name)
				}
				return nil
			}

			chosen, err := scenarios.Select(selected...)
			if err != nil {
				return err
			}

			application, err := openApp(true)
			if err != nil {
				return err
			}
			defer application.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := application.Run(ctx, chosen)
			if err != nil {
				return err
			}

			displayRun(cmd.OutOrStdout(), result)
			if !result.Summary.Succeeded() {
				return ErrScenariosFailed
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&selected, "scenario", "s", nil, "Scenario id to run (repeatable, default all)")
	cmd.Flags().BoolVar(&list, "list", false, "List scenario ids and exit")

	return cmd
}
