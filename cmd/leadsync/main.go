// Command leadsync serves the lead validation and campaign stats API and
// runs single validation or stats passes from the command line.
package main

import (
	"fmt"
	"github.com/spf13/cobra"
	"leadsync/internal/structures"
	"os"
)

var flags = &structures.CliFlags{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "leadsync",
	Short: "Spreadsheet-backed lead sync and email validation",
	Long: `leadsync keeps leads, templates and campaign stats in a spreadsheet,
validates lead email addresses against an external verification API and
serves the results over HTTP.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "configs/config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&flags.DebugMode, "debug", "d", false, "mirror logs to the console")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statsCmd)
}
