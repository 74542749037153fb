package analyses

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"

	"compliance-analyzer/internal/documents"
	"compliance-analyzer/internal/llm"
	"compliance-analyzer/internal/shared/config"
	"compliance-analyzer/internal/shared/metrics"
	"compliance-analyzer/internal/shared/telemetry"
)

// TokenExchanger obtains a fresh bearer token.
type TokenExchanger interface {
	Exchange(ctx context.Context) (*oauth2.Token, error)
}

// Service runs compliance analyses for session documents.
type Service struct {
	Docs   documents.Repo
	Tokens TokenExchanger
	LLM    llm.Client
	Policy llm.Policy
}

// Analyze authenticates, queries the model with the session's document and
// interprets the response. Every failure is returned as an error value and
// leaves the session usable for another attempt.
func (s *Service) Analyze(ctx context.Context, sessionID string, model config.Model) (Outcome, error) {
	a := newAttempt(sessionID, model.ID)

	doc, err := s.Docs.Current(ctx, sessionID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return a.fail(ErrNoDocument)
		}
		return a.fail(err)
	}
	a.out.DocumentID = doc.ID
	if !doc.HasText() {
		return a.fail(ErrNoText)
	}
	a.to(StageExtracted)

	start := time.Now()
	metrics.IncAnalysisStarted()
	defer func() {
		metrics.ObserveAnalysisDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	a.to(StageAuthenticating)
	token, err := s.Tokens.Exchange(ctx)
	if err != nil {
		return a.fail(&AuthFailure{Err: err})
	}
	if token == nil || token.AccessToken == "" {
		return a.fail(&AuthFailure{Err: errors.New("response did not include an access token")})
	}

	prompt, err := s.Policy.Prompt.Render(doc.Text)
	if err != nil {
		return a.fail(err)
	}

	a.to(StageQuerying)
	result := s.LLM.Generate(ctx, token, llm.Request{
		ModelID: model.ID,
		Input:   prompt,
		Params:  s.Policy.Params,
	})
	if result.Failed() {
		return a.fail(&InferenceFailure{Message: result.Error})
	}
	a.out.Raw = result.Raw
	if msg, ok := embeddedError(result.Raw); ok {
		return a.fail(&InferenceFailure{Message: msg})
	}

	text, err := Interpret(result.Raw)
	if err != nil {
		return a.fail(&ShapeError{Err: err, Raw: result.Raw})
	}
	a.out.GeneratedText = text
	a.to(StageRendered)
	metrics.IncAnalysisCompleted()
	return a.out, nil
}

type attempt struct {
	sessionID string
	out       Outcome
}

func newAttempt(sessionID, modelID string) *attempt {
	return &attempt{
		sessionID: sessionID,
		out: Outcome{
			ModelID: modelID,
			Stage:   StageIdle,
			Path:    []Stage{StageIdle},
		},
	}
}

func (r *attempt) to(next Stage) {
	telemetry.Info("analysis.stage", map[string]any{
		"session_id":  r.sessionID,
		"document_id": r.out.DocumentID,
		"model":       r.out.ModelID,
		"from":        string(r.out.Stage),
		"to":          string(next),
	})
	r.out.Stage = next
	r.out.Path = append(r.out.Path, next)
}

func (r *attempt) fail(err error) (Outcome, error) {
	reason := FailureReason(err)
	if reason == "auth" || reason == "inference" || reason == "response_shape" {
		metrics.IncAnalysisFailed(reason)
	}
	telemetry.Error("analysis.failed", map[string]any{
		"session_id":  r.sessionID,
		"document_id": r.out.DocumentID,
		"model":       r.out.ModelID,
		"stage":       string(r.out.Stage),
		"reason":      reason,
		"error":       err,
	})
	r.to(StageFailed)
	return r.out, err
}
