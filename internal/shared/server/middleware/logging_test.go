package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"compliance-analyzer/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	restore := telemetry.SetOutput(&buf)
	defer restore()

	router := gin.New()
	router.Use(RequestID(), Session(false), Logging())
	router.POST("/analyze", func(c *gin.Context) {
		c.Set("documentId", "doc-1")
		c.Set("stageTransition", "querying->rendered")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	sessionID := "6f1c2a5e-8f0a-4a8e-9d7a-2b7f3c4d5e6f"
	req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
	req.Header.Set(SessionHeader, sessionID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	last := lines[len(lines)-1]
	var payload map[string]any
	if err := json.Unmarshal([]byte(last), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}

	required := []string{"request_id", "session_id", "document_id", "duration_ms", "status", "stage_transition"}
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if payload["session_id"] != sessionID {
		t.Fatalf("unexpected session_id: %v", payload["session_id"])
	}
	if payload["document_id"] != "doc-1" {
		t.Fatalf("unexpected document_id: %v", payload["document_id"])
	}
	if payload["stage_transition"] != "querying->rendered" {
		t.Fatalf("unexpected stage_transition: %v", payload["stage_transition"])
	}
	if payload["request_id"] != resp.Header().Get("X-Request-Id") {
		t.Fatalf("request_id %v does not match response header %q", payload["request_id"], resp.Header().Get("X-Request-Id"))
	}
}
