package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
)

// Client abstracts text-generation providers.
type Client interface {
	// Generate never returns a Go error; failures come back as a Result
	// whose Error field is set.
	Generate(ctx context.Context, token *oauth2.Token, req Request) Result
}

// Request captures one generation call.
type Request struct {
	ModelID string
	Input   string
	Params  GenerationParams
}

// GenerationParams is the sampling policy sent with every request.
type GenerationParams struct {
	DecodingMethod    string   `json:"decoding_method" yaml:"decoding_method"`
	MaxNewTokens      int      `json:"max_new_tokens" yaml:"max_new_tokens"`
	MinNewTokens      int      `json:"min_new_tokens" yaml:"min_new_tokens"`
	StopSequences     []string `json:"stop_sequences" yaml:"stop_sequences"`
	RepetitionPenalty float64  `json:"repetition_penalty" yaml:"repetition_penalty"`
	Temperature       float64  `json:"temperature" yaml:"temperature"`
	TopK              int      `json:"top_k" yaml:"top_k"`
	TopP              float64  `json:"top_p" yaml:"top_p"`
}

// DefaultGenerationParams returns the compliance-review sampling policy.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		DecodingMethod:    "sample",
		MaxNewTokens:      1000,
		MinNewTokens:      100,
		StopSequences:     []string{},
		RepetitionPenalty: 1.1,
		Temperature:       0.7,
		TopK:              50,
		TopP:              0.9,
	}
}

// Result is either a decoded response payload (Raw) or an error message.
type Result struct {
	Raw   json.RawMessage
	Error string
}

// Failed reports whether the result carries an error.
func (r Result) Failed() bool {
	return r.Error != ""
}

// Success wraps a response payload.
func Success(raw json.RawMessage) Result {
	return Result{Raw: raw}
}

// Failure builds an error result.
func Failure(err error) Result {
	return Result{Error: fmt.Sprintf("API request failed: %v", err)}
}
