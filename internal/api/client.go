package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wordtales/internal/apipaths"
	"github.com/wordtales/internal/domain"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"

	// maxErrorBody caps how much of a failed response is kept on APIError
	maxErrorBody = 64 << 10
)

// Client handles communication with the remote wordtales API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new API client rooted at baseURL
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// BaseURL returns the API root the client was built with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AuthResponse is the body returned by every login and signup endpoint
type AuthResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type,omitempty"`
	User        json.RawMessage `json:"user,omitempty"`
}

// APIError is returned for any non-2xx response
type APIError struct {
	StatusCode int
	Detail     string // value of the backend's "detail" field, if any
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

// ErrorDetail returns the backend detail message carried by err, if err wraps an APIError
func ErrorDetail(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail, true
	}
	return "", false
}

// LoginWithEmail submits credentials as an OAuth2 password form. The backend reads the email
// from the "username" field.
func (c *Client) LoginWithEmail(ctx context.Context, email, password string) (*AuthResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, apipaths.AuthLogin, "", strings.NewReader(form.Encode()), contentTypeForm, &out); err != nil {
		return nil, err
	}
	return checkAuthResponse(&out)
}

// LoginWithGoogle exchanges an opaque Google credential for an access token
func (c *Client) LoginWithGoogle(ctx context.Context, credential string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, apipaths.AuthGoogle, "", map[string]string{"token": credential}, &out); err != nil {
		return nil, err
	}
	return checkAuthResponse(&out)
}

// SignupRequest is the registration payload
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Signup registers a new account and returns its access token
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, apipaths.AuthSignup, "", req, &out); err != nil {
		return nil, err
	}
	return checkAuthResponse(&out)
}

// Me fetches the profile of the bearer of token
func (c *Client) Me(ctx context.Context, token string) (json.RawMessage, error) {
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}
	var out json.RawMessage
	if err := c.do(ctx, http.MethodGet, apipaths.AuthMe, token, nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func checkAuthResponse(resp *AuthResponse) (*AuthResponse, error) {
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("failed to decode response: missing access_token")
	}
	return resp, nil
}

// doJSON marshals payload and sends it as a JSON body
func (c *Client) doJSON(ctx context.Context, method, path, token string, payload, out any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, method, path, token, bytes.NewReader(jsonData), contentTypeJSON, out)
}

// do performs a single request. out may be nil when the body is not needed.
func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", contentTypeJSON)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("api request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapNetworkOperation(method+" "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(raw),
			Body:       raw,
		}
		c.logger.Debug("api request failed", "method", method, "path", path, "status", resp.StatusCode)
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// parseDetail extracts FastAPI's "detail" field. It is either a string or, for request
// validation failures, a list of {loc, msg, type} objects.
func parseDetail(raw []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		for _, it := range items {
			if it.Msg != "" {
				return it.Msg
			}
		}
	}

	return ""
}
