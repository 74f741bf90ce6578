package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ternarybob/hubcheck/internal/cli"
	"github.com/ternarybob/hubcheck/internal/common"
)

func main() {
	if code := run(); code != 0 {
		os.Exit(code)
	}
}

func run() int {
	defer common.RecoverWithCrashFile()

	rootCmd := &cobra.Command{
		Use:     "hubcheck",
		Short:   "hubcheck - end-to-end checks for the BrightHR employee hub",
		Version: common.GetFullVersion(),
		Long: `hubcheck drives a real Chrome browser through the employee hub: the
responsive dashboard, the add-employee form and its validation, and the
employee listing. Results are written as screenshots, page captures and
markdown/HTML summaries.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cli.AddConfigFlag(rootCmd)

	rootCmd.AddCommand(cli.RunCmd())
	rootCmd.AddCommand(cli.ScheduleCmd())
	rootCmd.AddCommand(cli.SessionCmd())
	rootCmd.AddCommand(cli.HistoryCmd())
	rootCmd.AddCommand(cli.VersionCmd())

	if err := rootCmd.Execute(); err != nil {
		// Failed scenarios were already reported in the run table
		if !errors.Is(err, cli.ErrScenariosFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}
