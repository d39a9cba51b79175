package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// jobsCmd represents the jobs command
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage AI processing jobs",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'jobs' requires a subcommand (run-once)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

var jobsRunOnceCmd = &cobra.Command{
	Use:   "run-once",
	Short: "Process the AI jobs that are due and exit",
	Long: `Claim the AI jobs that are due, run them and exit.

This is useful for processing jobs from an external scheduler when the
server runs with --no-worker.

Example:
  boardguructl jobs run-once --batch 20`,
	Run: func(cmd *cobra.Command, args []string) {
		batch, _ := cmd.Flags().GetInt("batch")

		n, err := runJobsOnce(batch)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to run jobs: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Processed %d job(s)\n", n)
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsRunOnceCmd)
	jobsRunOnceCmd.Flags().Int("batch", 0, "maximum number of jobs to claim (default: worker batch size)")
}

func runJobsOnce(batch int) (int, error) {
	cfg, err := loadConfig()
	if err != nil {
		return 0, err
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return 0, err
	}
	defer a.Close()

	if batch > 0 {
		a.worker.BatchSize = batch
	}
	return a.worker.RunOnce(ctx)
}
