// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/admissions-assistant/internal/assembler"
	"github.com/jonathan/admissions-assistant/internal/compress"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI commands
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintAssembly outputs what one context build collected.
func (p *Printer) PrintAssembly(result assembler.Assembly) {
	var sb strings.Builder
	s := result.Local.Summary

	sb.WriteString(fmt.Sprintf("Local files: %d total, %d loaded, %d failed\n", s.Total, s.Successful, s.Failed))
	count := min(len(result.Local.Order), maxItemsToShow)
	for _, stem := range result.Local.Order[:count] {
		doc := result.Local.Documents[stem]
		sb.WriteString(fmt.Sprintf("  • %s (%d chars)\n", doc.Filename, len(doc.Content)))
	}
	if len(result.Local.Order) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(result.Local.Order)-maxItemsToShow))
	}

	sb.WriteString(fmt.Sprintf("Web pages:   %d", result.Web.Len()))
	if result.Web.AnyFromCache {
		sb.WriteString(" (cache used)")
	}
	sb.WriteString("\n")
	for _, path := range result.Web.Order {
		page := result.Web.Pages[path]
		sb.WriteString(fmt.Sprintf("  • %s (%d chars)\n", path, len(page.Content)))
	}

	sb.WriteString(fmt.Sprintf("Context:     %d characters", len(result.Context)))
	p.printBox("ASSEMBLED CONTEXT", sb.String())
	p.PrintErrors(result.Errors)
}

// PrintCompression outputs the figures of one compression call.
func (p *Printer) PrintCompression(result compress.Result) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Tokens:     %d → %d\n", result.OriginalTokens, result.CompressedTokens))
	sb.WriteString(fmt.Sprintf("Ratio:      %.2fx\n", result.Ratio))
	sb.WriteString(fmt.Sprintf("Latency:    %dms\n", result.LatencyMs))
	sb.WriteString(fmt.Sprintf("Prompt:     %d characters\n", len(result.CompressedPrompt)))
	if result.Successful {
		sb.WriteString("Status:     ✓ compressed")
	} else {
		sb.WriteString(fmt.Sprintf("Status:     ⚠ fallback (%s)\n", result.ErrorKind))
		sb.WriteString(result.Error)
	}
	p.printBox("COMPRESSION", sb.String())
}

// PrintErrors outputs the errors collected while building the context.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintErrors(errs []string) {
	if len(errs) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ NO ERRORS")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d errors:\n\n", len(errs)))
	for i, e := range errs {
		sb.WriteString(fmt.Sprintf("⚠ %s", e))
		if i < len(errs)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("ERRORS", sb.String())
}
