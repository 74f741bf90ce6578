package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// SessionCmd returns the session command
func SessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or clear the cached login session",
		Long:  `The suite logs in once and caches the session cookies. These commands manage that cache.`,
	}

	cmd.AddCommand(sessionListCmd())
	cmd.AddCommand(sessionClearCmd())

	return cmd
}

func sessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(false)
			if err != nil {
				return err
			}
			defer application.Close()

			sessions, err := application.SessionStorage.ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			displaySessions(cmd.OutOrStdout(), sessions, application.Config.Session.TTL, time.Now())
			return nil
		},
	}
}

func sessionClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached session so the next run logs in again",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(false)
			if err != nil {
				return err
			}
			defer application.Close()

			removed, err := application.ClearSessions(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s removed %d cached session(s)\n", passColor.Sprint("✓"), removed)
			return nil
		},
	}
}
