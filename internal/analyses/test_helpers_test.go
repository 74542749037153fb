package analyses

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"golang.org/x/oauth2"

	"compliance-analyzer/internal/documents"
	"compliance-analyzer/internal/llm"
)

type tokenStub struct {
	token *oauth2.Token
	err   error
	calls int
}

func (s *tokenStub) Exchange(ctx context.Context) (*oauth2.Token, error) {
	s.calls++
	return s.token, s.err
}

type llmStub struct {
	mu       sync.Mutex
	result   llm.Result
	requests []llm.Request
	tokens   []string
}

func (s *llmStub) Generate(ctx context.Context, token *oauth2.Token, req llm.Request) llm.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	s.tokens = append(s.tokens, token.AccessToken)
	return s.result
}

func seedDocument(t *testing.T, repo documents.Repo, sessionID, text, extractErr string) documents.Document {
	t.Helper()
	doc := documents.Document{
		ID:           "doc-" + sessionID,
		SessionID:    sessionID,
		FileName:     "contract.pdf",
		Text:         text,
		ExtractError: extractErr,
	}
	if err := repo.Put(context.Background(), doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}
	return doc
}

func newTestService(tokens *tokenStub, client *llmStub) (*Service, *documents.MemoryRepo) {
	repo := documents.NewMemoryRepo(0)
	return &Service{
		Docs:   repo,
		Tokens: tokens,
		LLM:    client,
		Policy: llm.DefaultPolicy(),
	}, repo
}

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}
