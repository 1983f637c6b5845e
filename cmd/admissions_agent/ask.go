package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var askQuestion string

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer one question end to end",
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "Question to answer (required)")
	if err := askCmd.MarkFlagRequired("question"); err != nil {
		panic(fmt.Sprintf("failed to mark question flag as required: %v", err))
	}
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	gen, err := a.generator(ctx)
	if err != nil {
		return err
	}
	defer gen.Close()

	prompt, stats, err := a.session.CompressOrReuse(ctx, askQuestion)
	if err != nil {
		return fmt.Errorf("failed to prepare prompt: %w", err)
	}
	answer, err := gen.Generate(ctx, prompt, nil)
	if err != nil {
		return fmt.Errorf("failed to generate answer: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, answer)
	fmt.Fprintf(out, "\n[tokens %d -> %d, ratio %.2fx, compressed: %t]\n",
		stats.OriginalTokens, stats.CompressedTokens, stats.Ratio, stats.Successful)
	return nil
}
