package iam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultTokenURL is the IBM Cloud IAM token endpoint.
	DefaultTokenURL = "https://iam.cloud.ibm.com/identity/token"

	apiKeyGrantType = "urn:ibm:params:oauth:grant-type:apikey"
	defaultTimeout  = 30 * time.Second
)

// AuthError reports a failed API key exchange.
type AuthError struct {
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	return e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Exchanger trades an IBM Cloud API key for a short-lived IAM bearer token.
// Every call performs a fresh exchange; tokens are never cached.
type Exchanger struct {
	apiKey     string
	tokenURL   string
	httpClient *http.Client
}

// Option customizes an Exchanger.
type Option func(*Exchanger)

// WithTokenURL overrides the IAM endpoint.
func WithTokenURL(u string) Option {
	return func(e *Exchanger) {
		if strings.TrimSpace(u) != "" {
			e.tokenURL = u
		}
	}
}

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Exchanger) {
		if d > 0 {
			e.httpClient.Timeout = d
		}
	}
}

// NewExchanger constructs an Exchanger for apiKey.
func NewExchanger(apiKey string, opts ...Option) *Exchanger {
	e := &Exchanger{
		apiKey:     apiKey,
		tokenURL:   DefaultTokenURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Expiration  int64  `json:"expiration"`
}

// Exchange posts the API key grant and returns the token. A successful
// response without access_token yields a token with an empty AccessToken.
func (e *Exchanger) Exchange(ctx context.Context) (*oauth2.Token, error) {
	form := url.Values{}
	form.Set("grant_type", apiKeyGrantType)
	form.Set("apikey", e.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AuthError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read token response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &AuthError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s for url: %s", resp.Status, e.tokenURL),
		}
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &AuthError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode token response: %w", err)}
	}

	return &oauth2.Token{
		AccessToken: parsed.AccessToken,
		TokenType:   parsed.TokenType,
		Expiry:      expiry(parsed),
	}, nil
}

func expiry(t tokenResponse) time.Time {
	switch {
	case t.Expiration > 0:
		return time.Unix(t.Expiration, 0).UTC()
	case t.ExpiresIn > 0:
		return time.Now().UTC().Add(time.Duration(t.ExpiresIn) * time.Second)
	default:
		return time.Time{}
	}
}
