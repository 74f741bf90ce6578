package cli

import (
	"github.com/spf13/cobra"
)

// HistoryCmd returns the history command
func HistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent suite runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(false)
			if err != nil {
				return err
			}
			defer application.Close()

			runs, err := application.RunStorage.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			displayHistory(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")

	return cmd
}
