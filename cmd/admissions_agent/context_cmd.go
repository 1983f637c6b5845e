package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/admissions-assistant/internal/observability"
)

var (
	contextFull     bool
	contextNoScrape bool
	contextNoCache  bool
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Assemble the context and print a summary",
	Long:  "Loads the local corpus and, when enabled, scrapes the website, then prints what was collected.",
	RunE:  runContext,
}

func init() {
	contextCmd.Flags().BoolVar(&contextFull, "full", false, "Print the full merged context")
	contextCmd.Flags().BoolVar(&contextNoScrape, "no-scrape", false, "Skip website scraping")
	contextCmd.Flags().BoolVar(&contextNoCache, "no-cache", false, "Ignore cached pages")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, _ []string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.assembler.Assemble(cmd.Context(), !contextNoScrape, !contextNoCache)
	out := cmd.OutOrStdout()
	observability.NewPrinter(out).PrintAssembly(result)
	if contextFull && !result.Empty() {
		fmt.Fprintln(out)
		fmt.Fprintln(out, result.Context)
	}
	return nil
}
