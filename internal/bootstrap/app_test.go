package bootstrap_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"compliance-analyzer/internal/bootstrap"
	"compliance-analyzer/internal/bootstrap/bootstraptest"
	"compliance-analyzer/internal/shared/config"
)

func TestBuildConfigured(t *testing.T) {
	upstream := bootstraptest.NewUpstream(t)
	app := bootstraptest.NewApp(t, upstream.Config())

	if app.ConfigErr != nil {
		t.Fatalf("unexpected config error: %v", app.ConfigErr)
	}
	if app.Router == nil || app.DocumentsService == nil || app.AnalysesService == nil || app.WebHandler == nil {
		t.Fatalf("expected wired app, got %+v", app)
	}

	for _, path := range []string{"/api/v1/health", "/metrics", "/"} {
		resp := httptest.NewRecorder()
		app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, resp.Code)
		}
	}
}

func TestBuildMissingConfig(t *testing.T) {
	app, err := bootstrap.Build(config.Config{ProjectID: "p", Models: config.Models{{Name: "a", ID: "b"}}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var missing *config.MissingConfigError
	if !errors.As(app.ConfigErr, &missing) {
		t.Fatalf("expected MissingConfigError, got %v", app.ConfigErr)
	}
	if len(missing.Keys) != 1 || missing.Keys[0] != "IBM_CLOUD_API_KEY" {
		t.Fatalf("unexpected missing keys: %v", missing.Keys)
	}
	if app.AnalysesService != nil {
		t.Fatalf("expected no services when unconfigured")
	}
}

func TestBuildLoadsPolicyFile(t *testing.T) {
	upstream := bootstraptest.NewUpstream(t)
	cfg := upstream.Config()
	cfg.PolicyFile = filepath.Join(t.TempDir(), "policy.yaml")
	policy := "generation:\n  temperature: 0.2\nprompt_template: |\n  Review this:\n  {{.DocumentText}}\n"
	if err := os.WriteFile(cfg.PolicyFile, []byte(policy), 0o644); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	app := bootstraptest.NewApp(t, cfg)
	if got := app.AnalysesService.Policy.Params.Temperature; got != 0.2 {
		t.Fatalf("expected temperature 0.2, got %v", got)
	}
	out, err := app.AnalysesService.Policy.Prompt.Render("body")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasPrefix(out, "Review this:\nbody") {
		t.Fatalf("unexpected prompt: %q", out)
	}
}

func TestBuildRejectsBadPolicyFile(t *testing.T) {
	upstream := bootstraptest.NewUpstream(t)
	cfg := upstream.Config()
	cfg.PolicyFile = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := bootstrap.Build(cfg); err == nil {
		t.Fatalf("expected error for missing policy file")
	}
}
