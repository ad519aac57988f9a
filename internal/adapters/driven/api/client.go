// Package api is the HTTP adapter for the document service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driven"
	"github.com/ocrchat/ocrchat-cli/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Config configures the API client.
type Config struct {
	// BaseURL is the API root, e.g. http://localhost:3001/api.
	BaseURL string

	// RequestsPerSecond throttles outgoing requests. Zero disables throttling.
	RequestsPerSecond float64

	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// HTTPClient is the base client whose transport carries the requests.
	HTTPClient *http.Client
}

// Client talks to the document service over request/response.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// Ensure Client implements the interface.
var _ driven.DocumentAPI = (*Client)(nil)

// New creates an API client. Every request carries the bearer token
// returned by creds at the time of the request.
func New(cfg Config, creds driven.CredentialProvider) *Client {
	ctx := context.Background()
	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}
	hc := oauth2.NewClient(ctx, credentialSource{creds: creds})
	hc.Timeout = cfg.Timeout
	if hc.Timeout == 0 {
		hc.Timeout = DefaultTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		limiter: limiter,
	}
}

// credentialSource adapts a CredentialProvider to oauth2.TokenSource.
// The token is looked up on every request so a rotated token takes effect
// without rebuilding the client.
type credentialSource struct {
	creds driven.CredentialProvider
}

// Token implements oauth2.TokenSource.
func (s credentialSource) Token() (*oauth2.Token, error) {
	tok, err := s.creds.Token(context.Background())
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}

// errorBody is the error shape returned by the service. message is either
// a string or a list of validation messages.
type errorBody struct {
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
}

func (b errorBody) text() string {
	var s string
	if json.Unmarshal(b.Message, &s) == nil && s != "" {
		return s
	}
	var list []string
	if json.Unmarshal(b.Message, &list) == nil && len(list) > 0 {
		return strings.Join(list, "; ")
	}
	return b.Error
}

// do sends a request and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	resp, err := c.send(ctx, method, path, body, contentType, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", domain.ErrServer, path, err)
	}
	return nil
}

// send performs a throttled request and maps transport failures and
// error statuses. The caller closes the body of a successful response.
func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType, accept string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", accept)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	logger.Debug("api: %s %s", method, path)
	resp, err := c.http.Do(req)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(err, domain.ErrAuth):
			return nil, err
		default:
			return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrConnectivity, method, path, err)
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		var eb errorBody
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = json.Unmarshal(data, &eb)
		return nil, &domain.APIError{StatusCode: resp.StatusCode, Message: eb.text()}
	}
	return resp, nil
}
