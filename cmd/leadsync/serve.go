package main

import (
	"fmt"
	"github.com/spf13/cobra"
	"leadsync/internal/di"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := di.InitApp(flags)
		if err != nil {
			return fmt.Errorf("init app: %w", err)
		}
		defer cleanup()
		return app.Run()
	},
}
