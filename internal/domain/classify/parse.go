package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	jsonFence  = "```json"
	plainFence = "```"
)

// ErrEmptyResponse is returned when the model produced no text at all.
var ErrEmptyResponse = errors.New("empty response from model")

// StripFences removes a leading ```json (or bare ```) line and a trailing ```
// from a model reply. Text without fences is returned trimmed.
func StripFences(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, jsonFence) || strings.HasPrefix(text, plainFence) {
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		} else {
			text = strings.TrimPrefix(strings.TrimPrefix(text, jsonFence), plainFence)
		}
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, plainFence)

	return strings.TrimSpace(text)
}

// Parse decodes a model reply into a Result.
func Parse(raw string) (Result, error) {
	payload := StripFences(raw)
	if payload == "" {
		return Result{}, ErrEmptyResponse
	}

	var result Result
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return Result{}, fmt.Errorf("invalid JSON from model: %w", err)
	}
	if result.Subscriptions == nil {
		result.Subscriptions = []Candidate{}
	}
	result.Error = ""
	return result, nil
}
