package corpus

import (
	"strings"

	"github.com/jonathan/admissions-assistant/internal/scraper"
)

// Section headers of the merged context.
const (
	LocalHeader = "=== UNIVERSITY DATA FROM LOCAL FILES ===\n"
	WebHeader   = "\n\n=== LIVE DATA FROM UNIVERSITY WEBSITE ===\n"
)

// Merge renders the local documents, then any scraped pages, as one string.
// The local header is always present; the web section only when there are
// pages. Output depends only on the inputs and their Order slices.
func Merge(local Local, web scraper.Result) string {
	parts := []string{LocalHeader}

	for _, stem := range local.Order {
		doc := local.Documents[stem]
		parts = append(parts, "\n--- "+doc.Filename+" ---\n", doc.Content)
	}

	if web.Len() > 0 {
		parts = append(parts, WebHeader)
		for _, path := range web.Order {
			page := web.Pages[path]
			parts = append(parts, "\n--- From "+page.URL+" ---\n", page.Content)
		}
	}

	return strings.Join(parts, "\n")
}
