package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type tokenKey struct{}

// WithToken returns a context carrying the bearer token for one call. The
// token is captured at dispatch time so that commands never read session
// state from outside the event loop.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// failureBody is the error envelope returned by the HR API.
type failureBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// Client is a thin HTTP client for the HR REST API. It handles Bearer
// token authentication, JSON marshaling and error classification. It never
// retries: a retry is always a new, user-initiated dispatch.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new HR API client. The baseURL should be the root of
// the API (e.g., https://hr.example.com/api).
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With(zap.String("module", "api")),
	}
}

// Get performs an HTTP GET request and unmarshals the JSON response.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// Post performs an HTTP POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// Put performs an HTTP PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

// Delete performs an HTTP DELETE request.
func (c *Client) Delete(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, result)
}

// PostRaw performs a POST and returns the raw response body. The session
// store uses it to persist the login envelope verbatim.
func (c *Client) PostRaw(ctx context.Context, path string, body interface{}) ([]byte, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, path, body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// do builds the request, attaches auth, and classifies the outcome.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if token := tokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Error(err))
		return &Error{Kind: KindNetwork, Message: MsgNetwork, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("reading response failed", zap.Error(err))
		return &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: MsgNetwork, Err: err}
	}

	log.Debug("request completed",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classify(resp.StatusCode, respBody)
	}

	// No content to parse (e.g. 204).
	if result == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return &Error{
			Kind:    KindServer,
			Status:  resp.StatusCode,
			Message: MsgServer,
			Err:     fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err),
		}
	}

	return nil
}

// classify maps a non-2xx response onto the error taxonomy, keeping the
// server's message when it supplied one.
func classify(status int, body []byte) *Error {
	var fb failureBody
	_ = json.Unmarshal(body, &fb)

	apiErr := &Error{
		Status:  status,
		Message: strings.TrimSpace(fb.Message),
		Fields:  fb.Errors,
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		apiErr.Kind = KindAuth
		if apiErr.Message == "" {
			apiErr.Message = MsgAuth
		}
	case status >= 500:
		apiErr.Kind = KindServer
		if apiErr.Message == "" {
			apiErr.Message = MsgServer
		}
	default:
		apiErr.Kind = KindValidation
		if apiErr.Message == "" {
			apiErr.Message = apiErr.FieldSummary()
		}
		if apiErr.Message == "" {
			apiErr.Message = MsgValidation
		}
	}

	return apiErr
}
