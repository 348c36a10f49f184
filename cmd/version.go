package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newVersionCmd creates the Cobra command for displaying the application version.
// The actual version information is managed by the root command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of termio",
		Long:  `All software has versions. This is termio's.`,
		Run: func(cmd *cobra.Command, args []string) {
			// rootCmd.Version is expected to be set, typically in root.go during build time.
			fmt.Fprintf(cmd.OutOrStdout(), "termio version %s\n", rootCmd.Version)
		},
	}
}
