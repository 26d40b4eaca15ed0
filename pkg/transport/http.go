package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formtree/pkg/model"
	"github.com/goliatone/go-formtree/pkg/values"
)

const (
	// DefaultTimeout bounds each request when the caller context has no
	// deadline of its own.
	DefaultTimeout = 15 * time.Second

	formPath   = "/api/archetype/form/"
	submitPath = "/api/ehr/save"
)

// HTTPClient fetches schemas from and submits trees to the archetype backend.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	keys    Keys
	logger  zerolog.Logger
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithTimeout sets the per-request timeout; zero disables it.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		c.timeout = timeout
	}
}

// WithKeys overrides the identifying submission keys.
func WithKeys(keys Keys) HTTPOption {
	return func(c *HTTPClient) {
		c.keys = keys.withDefaults()
	}
}

// WithHTTPLogger sets the request logger.
func WithHTTPLogger(logger zerolog.Logger) HTTPOption {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

// NewHTTPClient builds a client for the backend rooted at baseURL.
func NewHTTPClient(baseURL string, options ...HTTPOption) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("transport: base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("transport: parse base url: %w", err)
	}
	c := &HTTPClient{
		baseURL: base,
		client:  http.DefaultClient,
		timeout: DefaultTimeout,
		keys:    DefaultKeys,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// FetchSchema implements SchemaFetcher.
func (c *HTTPClient) FetchSchema(ctx context.Context, formID string) (model.Schema, error) {
	endpoint := c.baseURL + formPath + url.PathEscape(formID)

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &NetworkError{Op: "fetch", URL: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "fetch", URL: endpoint, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.logger.Debug().Str("url", endpoint).Int("status", resp.StatusCode).Msg("schema fetched")

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, formID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &NetworkError{Op: "fetch", URL: endpoint, StatusCode: resp.StatusCode, Err: errors.New(describe(resp.Body))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "fetch", URL: endpoint, Err: err}
	}
	var schema model.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, &NetworkError{Op: "decode", URL: endpoint, Err: err}
	}
	return schema, nil
}

// Submit implements Submitter.
func (c *HTTPClient) Submit(ctx context.Context, formID string, tree values.Tree, subject string) (Result, error) {
	body, err := Payload(tree, formID, subject, c.keys)
	if err != nil {
		return Result{}, err
	}
	data, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("transport: encode submission: %w", err)
	}

	endpoint := c.baseURL + submitPath
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return Result{}, &NetworkError{Op: "submit", URL: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, &NetworkError{Op: "submit", URL: endpoint, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.logger.Debug().Str("url", endpoint).Int("status", resp.StatusCode).Msg("submission sent")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		description, fields := decodeFailure(resp.Body)
		return Result{}, &SubmissionError{Status: resp.StatusCode, Description: description, Fields: fields}
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil && !errors.Is(err, io.EOF) {
		return Result{}, &NetworkError{Op: "decode", URL: endpoint, Err: err}
	}
	if result.FormID == "" {
		result.FormID = formID
	}
	return result, nil
}

func (c *HTTPClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok || c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// describe extracts a human readable reason from an error response.
func describe(body io.Reader) string {
	description, _ := decodeFailure(body)
	return description
}

// decodeFailure reads an error response. The backend answers with
// {"error": ...}, {"description": ...} or {"message": ...}, optionally next
// to an "errors" object keyed by field path whose entries are a message or a
// list of messages.
func decodeFailure(body io.Reader) (string, map[string][]string) {
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return "empty response", nil
	}
	var envelope struct {
		Error       string                     `json:"error"`
		Description string                     `json:"description"`
		Message     string                     `json:"message"`
		Errors      map[string]json.RawMessage `json:"errors"`
	}
	if json.Unmarshal(data, &envelope) != nil {
		return strings.TrimSpace(string(data)), nil
	}
	fields := fieldMessages(envelope.Errors)
	for _, candidate := range []string{envelope.Error, envelope.Description, envelope.Message} {
		if candidate != "" {
			return candidate, fields
		}
	}
	if len(fields) > 0 {
		return "validation failed", fields
	}
	return strings.TrimSpace(string(data)), nil
}

func fieldMessages(raw map[string]json.RawMessage) map[string][]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string][]string, len(raw))
	for key, entry := range raw {
		var list []string
		if err := json.Unmarshal(entry, &list); err == nil {
			if len(list) > 0 {
				out[key] = list
			}
			continue
		}
		var single string
		if err := json.Unmarshal(entry, &single); err == nil && single != "" {
			out[key] = []string{single}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
