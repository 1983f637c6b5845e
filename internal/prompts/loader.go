// Package prompts holds the assistant's prompt text, embedded from
// assistant.json.
package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Keys in assistant.json.
const (
	SystemInstruction = "system_instruction"
	ReuseQuery        = "reuse_query"
)

var required = []string{SystemInstruction, ReuseQuery}

//go:embed assistant.json
var assistantJSON []byte

var load = sync.OnceValues(func() (map[string]string, error) {
	return parse(assistantJSON)
})

func parse(data []byte) (map[string]string, error) {
	var set map[string]string
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse assistant prompts: %w", err)
	}
	for _, key := range required {
		if strings.TrimSpace(set[key]) == "" {
			return nil, fmt.Errorf("assistant prompt %q is missing or empty", key)
		}
	}
	return set, nil
}

// Get returns the prompt stored under key.
func Get(key string) (string, error) {
	set, err := load()
	if err != nil {
		return "", err
	}
	prompt, ok := set[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found", key)
	}
	return prompt, nil
}

// MustGet is Get for package-level initialization.
func MustGet(key string) string {
	prompt, err := Get(key)
	if err != nil {
		panic(err)
	}
	return prompt
}

// Format replaces placeholders of the form {{.Key}} with values from data in
// a single pass. Substituted values are never rescanned for placeholders.
func Format(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	pairs := make([]string, 0, 2*len(data))
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
