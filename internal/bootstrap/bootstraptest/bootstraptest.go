// Package bootstraptest runs a fully wired App against fake IAM and
// inference servers.
package bootstraptest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"compliance-analyzer/internal/bootstrap"
	"compliance-analyzer/internal/shared/config"
)

// DefaultGeneratedText is what the fake inference server returns unless
// told otherwise.
const DefaultGeneratedText = "## Summary\nThe agreement covers data processing."

// InferenceRequest is a generation request captured by the fake server.
type InferenceRequest struct {
	ModelID       string         `json:"model_id"`
	ProjectID     string         `json:"project_id"`
	Input         string         `json:"input"`
	Parameters    map[string]any `json:"parameters"`
	Authorization string         `json:"-"`
}

// Upstream fakes the IAM token endpoint and the text-generation endpoint.
type Upstream struct {
	IAM       *httptest.Server
	Inference *httptest.Server

	mu              sync.Mutex
	iamStatus       int
	token           string
	inferenceStatus int
	inferenceBody   string
	requests        []InferenceRequest
	iamCalls        int
}

// NewUpstream starts both fake servers. They are closed when t ends.
func NewUpstream(t testing.TB) *Upstream {
	t.Helper()
	body, _ := json.Marshal(map[string]any{
		"model_id": "ibm/granite-3-8b-instruct",
		"results": []map[string]any{{
			"generated_text":        DefaultGeneratedText,
			"generated_token_count": 12,
			"input_token_count":     240,
			"stop_reason":           "eos_token",
		}},
	})
	u := &Upstream{
		iamStatus:       http.StatusOK,
		token:           "abc",
		inferenceStatus: http.StatusOK,
		inferenceBody:   string(body),
	}
	u.IAM = httptest.NewServer(http.HandlerFunc(u.serveIAM))
	u.Inference = httptest.NewServer(http.HandlerFunc(u.serveInference))
	t.Cleanup(func() {
		u.IAM.Close()
		u.Inference.Close()
	})
	return u
}

// SetIAM changes the token endpoint's status and issued token.
func (u *Upstream) SetIAM(status int, token string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.iamStatus = status
	u.token = token
}

// SetInference changes the generation endpoint's status and body.
func (u *Upstream) SetInference(status int, body string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.inferenceStatus = status
	u.inferenceBody = body
}

// Requests returns the generation requests received so far.
func (u *Upstream) Requests() []InferenceRequest {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]InferenceRequest(nil), u.requests...)
}

// IAMCalls returns how many token exchanges were made.
func (u *Upstream) IAMCalls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.iamCalls
}

// Config returns a valid configuration pointing at the fake servers.
func (u *Upstream) Config() config.Config {
	return config.Config{
		Port:             "0",
		Env:              "dev",
		APIKey:           "test-api-key",
		ProjectID:        "test-project",
		InferenceURL:     u.Inference.URL + "/ml/v1/text/generation?version=2023-06-29",
		IAMURL:           u.IAM.URL + "/identity/token",
		Models:           config.Models{{Name: "8B Instruct", ID: "ibm/granite-3-8b-instruct"}, {Name: "2B Instruct", ID: "ibm/granite-3-2b-instruct"}},
		MaxUploadBytes:   1 << 20,
		IAMTimeout:       5 * time.Second,
		InferenceTimeout: 5 * time.Second,
	}
}

func (u *Upstream) serveIAM(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.iamCalls++
	status, token := u.iamStatus, u.token
	u.mu.Unlock()

	if err := r.ParseForm(); err != nil || r.PostForm.Get("apikey") == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]any{"token_type": "Bearer", "expires_in": 3600}
	if token != "" {
		resp["access_token"] = token
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (u *Upstream) serveInference(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var req InferenceRequest
	_ = json.Unmarshal(raw, &req)
	req.Authorization = r.Header.Get("Authorization")

	u.mu.Lock()
	u.requests = append(u.requests, req)
	status, body := u.inferenceStatus, u.inferenceBody
	u.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// NewApp builds the application against cfg in gin test mode.
func NewApp(t testing.TB, cfg config.Config) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

// Client sends requests to a router and keeps the cookies it sets, like a
// browser would.
type Client struct {
	Handler http.Handler
	cookies map[string]*http.Cookie
}

// NewClient constructs a Client for h.
func NewClient(h http.Handler) *Client {
	return &Client{Handler: h, cookies: map[string]*http.Cookie{}}
}

// Do serves req with the stored cookies attached.
func (c *Client) Do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	rec := httptest.NewRecorder()
	c.Handler.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

// Cookie returns the stored value of the named cookie.
func (c *Client) Cookie(name string) string {
	if ck, ok := c.cookies[name]; ok {
		return ck.Value
	}
	return ""
}

// UploadRequest builds a multipart request carrying data as the "file" field.
func UploadRequest(t testing.TB, path, fileName string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write(data); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
