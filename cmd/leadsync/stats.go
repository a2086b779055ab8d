package main

import (
	"fmt"
	"github.com/spf13/cobra"
	"leadsync/internal/apperrors"
	"leadsync/internal/di"
)

var (
	statsTokens  tokenFlags
	forceRefresh bool
)

var statsCmd = &cobra.Command{
	Use:   "stats <project-id>",
	Short: "Print the latest campaign stats of a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	statsTokens.register(statsCmd)
	statsCmd.Flags().BoolVar(&forceRefresh, "force-refresh", false, "ask the workflow backend to recompute stats first")
}

func runStats(cmd *cobra.Command, args []string) error {
	state, err := statsTokens.state()
	if err != nil {
		return err
	}
	runner, cleanup, err := di.InitRunner(flags)
	if err != nil {
		return fmt.Errorf("init runner: %w", err)
	}
	defer cleanup()

	stats, after, err := runner.Stats(cmd.Context(), args[0], forceRefresh, state)
	if err != nil {
		return fmt.Errorf("stats %s: %s", args[0], apperrors.Summary(err))
	}
	return printResult(cmd, stats, state, after)
}
