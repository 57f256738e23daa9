package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rileyhilliard/zenctl/internal/config"
	"github.com/rileyhilliard/zenctl/internal/errors"
	"github.com/rileyhilliard/zenctl/internal/logger"
)

// RequestIDHeader carries a per-call id so client and server logs line up.
const RequestIDHeader = "X-Request-Id"

// maxErrorBody caps how much of a failed response body ends up in an error.
const maxErrorBody = 512

// Client issues router calls against one console.
type Client struct {
	baseURL  string
	http     *http.Client
	username string
	password string
	log      logger.Logger
	tid      atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCredentials sends HTTP basic credentials on every call.
func WithCredentials(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithTimeout bounds every call, including reading the response.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger used for call tracing.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client for the console at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: config.DefaultTimeout},
		log:     logger.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig builds a client from the loaded configuration.
func NewClientFromConfig(cfg *config.Config, log logger.Logger) *Client {
	opts := []Option{WithTimeout(cfg.Timeout), WithLogger(log)}
	if cfg.Username != "" {
		opts = append(opts, WithCredentials(cfg.Username, cfg.Password))
	}
	return NewClient(cfg.URL, opts...)
}

// BaseURL returns the console address this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	Action string        `json:"action"`
	Method string        `json:"method"`
	Data   []interface{} `json:"data"`
	Type   string        `json:"type"`
	TID    int64         `json:"tid"`
}

type response struct {
	Type    string          `json:"type"`
	TID     int64           `json:"tid"`
	Action  string          `json:"action"`
	Method  string          `json:"method"`
	Result  json.RawMessage `json:"result"`
	Message string          `json:"message"`
}

// Call invokes router.method with params and decodes the result into out.
// out may be nil when the caller doesn't need the result.
func (c *Client) Call(ctx context.Context, router, method string, params, out interface{}) error {
	endpoint := Endpoint(router)
	if endpoint == "" {
		return errors.New(errors.ErrRPC,
			fmt.Sprintf("Unknown router '%s'", router),
			"This is a bug in zenctl.")
	}

	tid := c.tid.Add(1)
	body, err := json.Marshal(request{
		Action: router,
		Method: method,
		Data:   []interface{}{params},
		Type:   "rpc",
		TID:    tid,
	})
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrRPC,
			fmt.Sprintf("Can't encode %s.%s request", router, method),
			"This is a bug in zenctl.")
	}

	url := c.baseURL + "/zport/dmd/" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrRPC,
			"Can't build request to "+url,
			"Check the url in your config.")
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	c.log.Debug("%s.%s tid=%d request_id=%s", router, method, tid, requestID)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrRPC,
			fmt.Sprintf("%s.%s didn't reach the console", router, method),
			"Check the console is up and the url in your config is right.")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return errors.New(errors.ErrRPC,
			fmt.Sprintf("Console refused %s.%s (%s)", router, method, resp.Status),
			"Check username/password in your config or ZENCTL_USERNAME/ZENCTL_PASSWORD.")
	}
	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.WrapWithCode(fmt.Errorf("%s", strings.TrimSpace(string(snippet))), errors.ErrRPC,
			fmt.Sprintf("%s.%s failed: %s", router, method, resp.Status),
			"Check the console log for details.")
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrRPC,
			fmt.Sprintf("Can't read %s.%s response", router, method),
			"The connection dropped mid-response; try again.")
	}

	envelope, err := decodeEnvelope(raw, tid)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrRPC,
			fmt.Sprintf("%s.%s returned something that isn't a router response", router, method),
			"Make sure the url points at the console itself, not a proxy login page.")
	}

	c.log.Debug("%s.%s tid=%d done in %s", router, method, tid, time.Since(start).Round(time.Millisecond))

	if envelope.Type == "exception" {
		return errors.WrapWithCode(fmt.Errorf("%s", envelope.Message), errors.ErrRPC,
			fmt.Sprintf("%s.%s raised an exception on the console", router, method),
			"Check the console log for the traceback.")
	}

	if out == nil || len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return errors.WrapWithCode(err, errors.ErrRPC,
			fmt.Sprintf("Unexpected %s.%s result", router, method),
			"The console may be running an incompatible version.")
	}
	return nil
}

// decodeEnvelope accepts a single response object or a batch. From a batch
// it returns the element answering tid.
func decodeEnvelope(raw []byte, tid int64) (response, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var batch []response
		if err := json.Unmarshal(trimmed, &batch); err != nil {
			return response{}, err
		}
		for _, r := range batch {
			if r.TID == tid {
				return r, nil
			}
		}
		return response{}, fmt.Errorf("batch of %d responses has no answer for tid %d", len(batch), tid)
	}
	var r response
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return response{}, err
	}
	if r.Type == "" {
		return response{}, fmt.Errorf("response has no type")
	}
	return r, nil
}
