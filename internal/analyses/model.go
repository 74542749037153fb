package analyses

import (
	"encoding/json"
	"strings"
)

// Stage is a step of the per-session analysis flow.
type Stage string

const (
	StageIdle           Stage = "idle"
	StageExtracted      Stage = "extracted"
	StageAuthenticating Stage = "authenticating"
	StageQuerying       Stage = "querying"
	StageRendered       Stage = "rendered"
	StageFailed         Stage = "failed"
)

// Outcome is the result of one Analyze call. On failure Stage is
// StageFailed and Raw holds the response payload if one was received.
type Outcome struct {
	DocumentID    string
	ModelID       string
	GeneratedText string
	Raw           json.RawMessage
	Stage         Stage
	Path          []Stage
}

// Transition renders the visited stages, e.g. "extracted->authenticating".
func (o Outcome) Transition() string {
	parts := make([]string, 0, len(o.Path))
	for _, s := range o.Path {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, "->")
}
