package analyses

import (
	"encoding/json"
	"fmt"

	"compliance-analyzer/internal/llm"
)

// NoResponseText is shown when a response carries no generated text.
const NoResponseText = "No response generated"

type generationResponse struct {
	Results []struct {
		GeneratedText *string `json:"generated_text"`
	} `json:"results"`
}

// Interpret extracts results[0].generated_text from a success payload.
// A payload without results, or whose first result has no generated_text,
// yields NoResponseText.
func Interpret(raw json.RawMessage) (string, error) {
	if err := llm.ValidateResponseShape(raw); err != nil {
		return "", err
	}
	var body generationResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(body.Results) == 0 || body.Results[0].GeneratedText == nil {
		return NoResponseText, nil
	}
	return *body.Results[0].GeneratedText, nil
}

// embeddedError returns a top-level "error" message carried by a 2xx payload.
func embeddedError(raw json.RawMessage) (string, bool) {
	var body struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == nil {
		return "", false
	}
	switch v := body.Error.(type) {
	case string:
		return v, v != ""
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", false
		}
		return string(encoded), true
	}
}
