package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/hubcheck/internal/common"
)

// VersionCmd returns the version command
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hubcheck version %s\n", common.GetFullVersion())
		},
	}
}
