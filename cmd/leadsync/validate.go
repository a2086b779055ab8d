package main

import (
	"fmt"
	"github.com/spf13/cobra"
	"leadsync/internal/apperrors"
	"leadsync/internal/di"
)

var validateTokens tokenFlags

var validateCmd = &cobra.Command{
	Use:   "validate <project-id>",
	Short: "Validate the unvalidated lead emails of a project once",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	validateTokens.register(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	state, err := validateTokens.state()
	if err != nil {
		return err
	}
	runner, cleanup, err := di.InitRunner(flags)
	if err != nil {
		return fmt.Errorf("init runner: %w", err)
	}
	defer cleanup()

	report, after, err := runner.Validate(cmd.Context(), args[0], state)
	if report != nil {
		if perr := printResult(cmd, report, state, after); perr != nil {
			return perr
		}
	}
	if err != nil {
		return fmt.Errorf("validate %s: %s", args[0], apperrors.Summary(err))
	}
	return nil
}
