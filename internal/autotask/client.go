package autotask

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds every outbound Autotask call so a hung remote
	// cannot block an invocation indefinitely.
	DefaultTimeout = 30 * time.Second

	// MaxPageSize is the Autotask REST query record cap.
	MaxPageSize = 500
)

// Client is a thin authenticated HTTP client for the Autotask REST API.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	creds      Credentials
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger enables request logging. Request bodies and credential
// headers are never logged.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the given credentials.
func NewClient(creds Credentials, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		creds:      creds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET request to the given endpoint (relative to the base URL).
func (c *Client) Get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, endpoint, nil)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, endpoint, body)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPatch, endpoint, body)
}

// Filter is one predicate in an Autotask query filter list.
type Filter struct {
	Op    string `json:"op"`
	Field string `json:"field"`
	Value any    `json:"value,omitempty"`
}

type queryRequest struct {
	MaxRecords int      `json:"MaxRecords"`
	Filter     []Filter `json:"filter"`
}

// QueryResult is the items envelope returned by {entity}/query.
type QueryResult struct {
	Items []json.RawMessage `json:"items"`
}

// Query runs POST {entity}/query with the given filter list. maxRecords
// is clamped to [1, MaxPageSize].
func (c *Client) Query(ctx context.Context, entity string, filters []Filter, maxRecords int) (*QueryResult, error) {
	if maxRecords <= 0 {
		maxRecords = 50
	}
	if maxRecords > MaxPageSize {
		maxRecords = MaxPageSize
	}
	raw, err := c.Post(ctx, entity+"/query", queryRequest{MaxRecords: maxRecords, Filter: filters})
	if err != nil {
		return nil, err
	}
	var result QueryResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &Error{
			Category: CategoryRemoteService,
			Op:       "POST " + entity + "/query",
			Message:  "malformed query response",
			Err:      err,
		}
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	op := method + " " + endpoint
	url := strings.TrimSuffix(c.creds.BaseURL, "/") + "/" + endpoint

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Category: CategoryInvalidArgument, Op: op, Message: "encoding request body", Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &Error{Category: CategoryRemoteService, Op: op, Message: "building request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("UserName", c.creds.Username)
	req.Header.Set("Secret", c.creds.Secret)
	req.Header.Set("ApiIntegrationcode", c.creds.IntegrationCode)

	if c.logger != nil {
		c.logger.Printf("%s %s", method, url)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Category: CategoryNetwork, Op: op, Message: "reading response", Err: err}
	}

	if c.logger != nil {
		c.logger.Printf("%s %s -> %d", method, url, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(op, resp.StatusCode, respBody)
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return json.RawMessage(`{}`), nil
	}
	if !json.Valid(respBody) {
		return nil, &Error{Category: CategoryRemoteService, Op: op, Message: "response is not valid JSON"}
	}
	return respBody, nil
}

// transportError classifies a failure that happened before any HTTP
// status was received.
func transportError(op string, err error) *Error {
	msg := "request failed"
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		msg = "request timed out"
	} else if errors.Is(err, context.Canceled) {
		msg = "request canceled"
	}
	return &Error{Category: CategoryNetwork, Op: op, Message: msg, Err: err}
}

// statusError maps a non-success remote status onto the error taxonomy.
// None of these failure modes are retryable, so no retry is attempted.
func statusError(op string, status int, body []byte) *Error {
	detail := strings.TrimSpace(string(body))
	if len(detail) > 500 {
		detail = detail[:500]
	}

	e := &Error{Op: op, StatusCode: status}
	switch status {
	case http.StatusUnauthorized:
		e.Category = CategoryAuthenticationFailed
		e.Message = "Autotask rejected the credentials; check AUTOTASK_USERNAME, AUTOTASK_SECRET and AUTOTASK_INTEGRATION_CODE"
	case http.StatusForbidden:
		e.Category = CategoryPermissionDenied
		e.Message = "the API user is not authorized for this operation"
	case http.StatusNotFound:
		e.Category = CategoryNotFound
		e.Message = "the requested entity does not exist"
	default:
		e.Category = CategoryRemoteService
		e.Message = fmt.Sprintf("Autotask returned status %d", status)
	}
	if detail != "" {
		e.Err = errors.New(detail)
	}
	return e
}
