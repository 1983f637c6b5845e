package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/admissions-assistant/internal/compress"
	"github.com/jonathan/admissions-assistant/internal/observability"
)

var (
	compressQuestion   string
	compressShowPrompt bool
)

var compressCmd = &cobra.Command{
	Use:   "compress",
	Short: "Compress the context for one question",
	Long:  "Sends the assembled context and a question to the compression service once and prints the statistics.",
	RunE:  runCompress,
}

func init() {
	compressCmd.Flags().StringVarP(&compressQuestion, "question", "q", "", "Question to compress the context for (required)")
	compressCmd.Flags().BoolVar(&compressShowPrompt, "show-prompt", false, "Print the compressed prompt")
	if err := compressCmd.MarkFlagRequired("question"); err != nil {
		panic(fmt.Sprintf("failed to mark question flag as required: %v", err))
	}
	rootCmd.AddCommand(compressCmd)
}

func runCompress(cmd *cobra.Command, _ []string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	corpus, err := a.assembler.GetContext(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load context: %w", err)
	}

	result := a.compressor.Compress(cmd.Context(), corpus, compressQuestion)
	a.logger.Info(compress.FormatStats(result))

	out := cmd.OutOrStdout()
	observability.NewPrinter(out).PrintCompression(result)
	if compressShowPrompt {
		fmt.Fprintln(out)
		fmt.Fprintln(out, result.CompressedPrompt)
	}
	return nil
}
