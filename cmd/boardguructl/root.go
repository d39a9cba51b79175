package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/appboardguru/boardguru/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "boardguructl",
	Short: "BoardGuru server and administration tool",
	Long: `boardguructl runs the BoardGuru API server and its background job worker,
manages the database schema and bootstraps organizations.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logging.ConfigFromEnv())
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
