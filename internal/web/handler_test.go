package web_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"compliance-analyzer/internal/bootstrap/bootstraptest"
	"compliance-analyzer/internal/extract/pdftest"
	"compliance-analyzer/internal/shared/config"
)

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func uploadHello(t *testing.T, client *bootstraptest.Client) {
	t.Helper()
	resp := client.Do(bootstraptest.UploadRequest(t, "/upload", "hello.pdf", pdftest.Build("Hello World")))
	if resp.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 after upload, got %d", resp.Code)
	}
	if loc := resp.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}
}

func TestUploadAndAnalyzeFlow(t *testing.T) {
	upstream := bootstraptest.NewUpstream(t)
	app := bootstraptest.NewApp(t, upstream.Config())
	client := bootstraptest.NewClient(app.Router)

	home := client.Do(httptest.NewRequest(http.MethodGet, "/", nil))
	if home.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", home.Code)
	}
	if client.Cookie("sid") == "" {
		t.Fatalf("expected session cookie")
	}
	if !strings.Contains(home.Body.String(), "How to use:") {
		t.Fatalf("expected help box on the page")
	}
	if strings.Contains(home.Body.String(), "Extracted Text") {
		t.Fatalf("expected no document before upload")
	}

	uploadHello(t, client)

	page := client.Do(httptest.NewRequest(http.MethodGet, "/", nil))
	body := page.Body.String()
	if !strings.Contains(body, "Hello World") {
		t.Fatalf("expected extracted text on the page, got %s", body)
	}
	if !strings.Contains(body, "Analyze with Watsonx.ai") {
		t.Fatalf("expected analyze button")
	}

	result := client.Do(formRequest("/analyze", url.Values{"model": {"8B Instruct"}}))
	if result.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", result.Code)
	}
	body = result.Body.String()
	if !strings.Contains(body, "<h2>Summary</h2>") {
		t.Fatalf("expected rendered markdown, got %s", body)
	}
	if !strings.Contains(body, "Show API Response Details") {
		t.Fatalf("expected response details panel")
	}
	if !strings.Contains(body, "eos_token") {
		t.Fatalf("expected raw response in details panel")
	}
	if !strings.Contains(body, "Hello World") {
		t.Fatalf("expected document to remain visible after analysis")
	}

	reqs := upstream.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 inference request, got %d", len(reqs))
	}
	if reqs[0].Authorization != "Bearer abc" {
		t.Fatalf("unexpected authorization header: %q", reqs[0].Authorization)
	}
	if reqs[0].ModelID != "ibm/granite-3-8b-instruct" || reqs[0].ProjectID != "test-project" {
		t.Fatalf("unexpected request: %+v", reqs[0])
	}
	if !strings.Contains(reqs[0].Input, "Hello World") {
		t.Fatalf("expected document text in prompt")
	}
}

func TestAnalyzeUsesSelectedModel(t *testing.T) {
	upstream := bootstraptest.NewUpstream(t)
	app := bootstraptest.NewApp(t, upstream.Config())
	client := bootstraptest.NewClient(app.Router)
	uploadHello(t, client)

	resp := client.Do(formRequest("/analyze", url.Values{"model": {"2B Instruct"}}))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := upstream.Requests()[0].ModelID; got != "ibm/granite-3-2b-instruct" {
		t.Fatalf("expected 2B model id, got %s", got)
	}
	if !strings.Contains(resp.Body.String(), `<option value="2B Instruct" selected>`) {
		t.Fatalf("expected selected model to stay selected")
	}
}

func TestAnalyzeErrorsRenderInline(t *testing.T) {
	tests := []struct {
		name      string
		iamStatus int
		status    int
		body      string
		want      []string
	}{
		{
			name:      "auth failure",
			iamStatus: http.StatusUnauthorized,
			status:    http.StatusOK,
			want:      []string{"Failed to get IAM token: 401 Unauthorized for url: "},
		},
		{
			name:      "inference failure",
			iamStatus: http.StatusOK,
			status:    http.StatusBadRequest,
			body:      `{"errors":[{"code":"invalid_input"}]}`,
			want:      []string{"API request failed: 400 Bad Request for url: "},
		},
		{
			name:      "shape mismatch",
			iamStatus: http.StatusOK,
			status:    http.StatusOK,
			body:      `{"results":"oops"}`,
			want:      []string{"Error processing response: ", "oops"},
		},
		{
			name:      "missing results",
			iamStatus: http.StatusOK,
			status:    http.StatusOK,
			body:      `{"model_id":"m"}`,
			want:      []string{"No response generated", "Show API Response Details"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			upstream := bootstraptest.NewUpstream(t)
			upstream.SetIAM(tt.iamStatus, "abc")
			if tt.body != "" {
				upstream.SetInference(tt.status, tt.body)
			}
			app := bootstraptest.NewApp(t, upstream.Config())
			client := bootstraptest.NewClient(app.Router)
			uploadHello(t, client)

			resp := client.Do(formRequest("/analyze", url.Values{"model": {"8B Instruct"}}))
			if resp.Code != http.StatusOK {
				t.Fatalf("expected page to render, got %d", resp.Code)
			}
			body := resp.Body.String()
			for _, want := range tt.want {
				if !strings.Contains(body, want) {
					t.Fatalf("expected %q in page, got %s", want, body)
				}
			}
			if !strings.Contains(body, "Analyze with Watsonx.ai") {
				t.Fatalf("expected the page to stay interactive")
			}
		})
	}
}

func TestAnalyzeEscapesRawHTML(t *testing.T) {
	upstream := bootstraptest.NewUpstream(t)
	upstream.SetInference(http.StatusOK, `{"results":[{"generated_text":"## Risks\n<script>alert(1)</script>"}]}`)
	app := bootstraptest.NewApp(t, upstream.Config())
	client := bootstraptest.NewClient(app.Router)
	uploadHello(t, client)

	resp := client.Do(formRequest("/analyze", nil))
	body := resp.Body.String()
	if !strings.Contains(body, "<h2>Risks</h2>") {
		t.Fatalf("expected heading, got %s", body)
	}
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Fatalf("expected raw html to be dropped")
	}
}

func TestAnalyzeWithoutDocument(t *testing.T) {
	upstream := bootstraptest.NewUpstream(t)
	app := bootstraptest.NewApp(t, upstream.Config())
	client := bootstraptest.NewClient(app.Router)

	resp := client.Do(formRequest("/analyze", nil))
	if !strings.Contains(resp.Body.String(), "upload a PDF document first") {
		t.Fatalf("expected no-document message, got %s", resp.Body.String())
	}
	if upstream.IAMCalls() != 0 {
		t.Fatalf("expected no token exchange without a document")
	}
}

func TestUploadRejections(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		data     []byte
		want     string
	}{
		{name: "not pdf", fileName: "notes.txt", data: []byte("plain text"), want: "Only PDF documents are supported."},
		{name: "too large", fileName: "big.pdf", data: make([]byte, 2<<20), want: "exceeds the 1 MB upload limit"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			upstream := bootstraptest.NewUpstream(t)
			app := bootstraptest.NewApp(t, upstream.Config())
			client := bootstraptest.NewClient(app.Router)

			resp := client.Do(bootstraptest.UploadRequest(t, "/upload", tt.fileName, tt.data))
			if resp.Code != http.StatusSeeOther {
				t.Fatalf("expected 303, got %d", resp.Code)
			}
			page := client.Do(httptest.NewRequest(http.MethodGet, "/", nil))
			if !strings.Contains(page.Body.String(), tt.want) {
				t.Fatalf("expected flash %q, got %s", tt.want, page.Body.String())
			}
			again := client.Do(httptest.NewRequest(http.MethodGet, "/", nil))
			if strings.Contains(again.Body.String(), tt.want) {
				t.Fatalf("expected flash to be shown once")
			}
		})
	}
}

func TestUploadUnreadablePDFShowsExtractionError(t *testing.T) {
	upstream := bootstraptest.NewUpstream(t)
	app := bootstraptest.NewApp(t, upstream.Config())
	client := bootstraptest.NewClient(app.Router)

	client.Do(bootstraptest.UploadRequest(t, "/upload", "broken.pdf", []byte("%PDF-1.4 garbage")))
	page := client.Do(httptest.NewRequest(http.MethodGet, "/", nil))
	body := page.Body.String()
	if !strings.Contains(body, "Error extracting text from PDF: ") {
		t.Fatalf("expected extraction error, got %s", body)
	}
	if strings.Contains(body, "Analyze with Watsonx.ai") {
		t.Fatalf("expected no analyze button without text")
	}
	if !strings.Contains(body, `action="/reset"`) {
		t.Fatalf("expected a way to clear the failed document")
	}

	if resp := client.Do(formRequest("/reset", nil)); resp.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 from reset, got %d", resp.Code)
	}
	cleared := client.Do(httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	if strings.Contains(cleared, "Error extracting text from PDF: ") {
		t.Fatalf("expected extraction error to be cleared")
	}
}

func TestResetClearsDocument(t *testing.T) {
	upstream := bootstraptest.NewUpstream(t)
	app := bootstraptest.NewApp(t, upstream.Config())
	client := bootstraptest.NewClient(app.Router)
	uploadHello(t, client)

	resp := client.Do(formRequest("/reset", nil))
	if resp.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.Code)
	}
	page := client.Do(httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Contains(page.Body.String(), "Hello World") {
		t.Fatalf("expected document to be cleared")
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	upstream := bootstraptest.NewUpstream(t)
	app := bootstraptest.NewApp(t, upstream.Config())
	alice := bootstraptest.NewClient(app.Router)
	bob := bootstraptest.NewClient(app.Router)
	uploadHello(t, alice)

	page := bob.Do(httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Contains(page.Body.String(), "Hello World") {
		t.Fatalf("expected other session not to see the document")
	}
}

func TestUnconfiguredServesOnlyTheError(t *testing.T) {
	cfg := config.Config{Models: config.Models{{Name: "8B Instruct", ID: "ibm/granite-3-8b-instruct"}}}
	app := bootstraptest.NewApp(t, cfg)
	if app.ConfigErr == nil {
		t.Fatalf("expected config error")
	}

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/", nil),
		httptest.NewRequest(http.MethodPost, "/upload", nil),
		httptest.NewRequest(http.MethodPost, "/analyze", nil),
	} {
		resp := httptest.NewRecorder()
		app.Router.ServeHTTP(resp, req)
		if resp.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s %s: expected 503, got %d", req.Method, req.URL.Path, resp.Code)
		}
		body := resp.Body.String()
		if !strings.Contains(body, "Missing required environment variables. Please check your .env file.") {
			t.Fatalf("expected config message, got %s", body)
		}
		if strings.Contains(body, "Upload a PDF document") {
			t.Fatalf("expected no upload form when unconfigured")
		}
	}

	api := httptest.NewRecorder()
	app.Router.ServeHTTP(api, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if api.Code != http.StatusServiceUnavailable || !strings.Contains(api.Body.String(), `"not_configured"`) {
		t.Fatalf("expected JSON config error, got %d %s", api.Code, api.Body.String())
	}
}
