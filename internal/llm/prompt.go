package llm

import "strings"

// Exchange is one earlier question and answer.
type Exchange struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// BuildPrompt joins the system instruction, the compressed prompt and the
// recent history.
func BuildPrompt(system, compressedPrompt string, history []Exchange) string {
	prompt := system + "\n\n" + compressedPrompt
	if h := FormatHistory(history, MaxHistoryExchanges); h != "" {
		prompt += "\n\n" + h
	}
	return prompt
}

// FormatHistory renders the last max exchanges. Empty sides are skipped.
func FormatHistory(history []Exchange, max int) string {
	if len(history) == 0 {
		return ""
	}
	if max > 0 && len(history) > max {
		history = history[len(history)-max:]
	}

	lines := []string{"Previous Conversation:"}
	for _, ex := range history {
		if ex.User != "" {
			lines = append(lines, "User: "+ex.User)
		}
		if ex.Assistant != "" {
			lines = append(lines, "Assistant: "+ex.Assistant)
		}
	}
	return strings.Join(lines, "\n")
}
