package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time:
//
//	go build -ldflags "-X github.com/fakeyudi/timetxt/cmd.version=v1.2.3"
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the timetxt version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "timetxt %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
