// Package main provides the entry point for the admissions assistant API
// server and its maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "admissions_agent",
	Short: "University admissions assistant",
	Long: "Answers admissions questions from a local document corpus and the university website. " +
		"The corpus is compressed per question before it is sent to the language model.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (YAML, JSON or TOML); environment variables override it")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
