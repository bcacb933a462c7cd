package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bpchanges/bpchanges/internal/metrics"
	"github.com/bpchanges/bpchanges/internal/record"
)

// Default endpoints of the changes API.
const (
	DefaultListURL = "https://api.bigpanda.io/resources/v2.0/changes"
	DefaultPostURL = "https://api.bigpanda.io/data/changes"
)

// maxErrorBody caps how much of a failed response body is kept.
const maxErrorBody = 4096

// ErrHTTPFailure is wrapped by every non-2xx response error.
var ErrHTTPFailure = errors.New("changes API request failed")

// HTTPError describes a non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", ErrHTTPFailure, e.StatusCode, e.Body)
}

func (e *HTTPError) Unwrap() error { return ErrHTTPFailure }

// Config configures a ChangesClient.
type Config struct {
	ListURL string
	PostURL string
	APIKey  string
	AppKey  string
	Timeout time.Duration
	Metrics *metrics.Recorder
}

// ChangesClient talks to the changes API: listing for retrieval, one POST per
// change for upload.
type ChangesClient struct {
	listURL string
	postURL string
	apiKey  string
	appKey  string
	client  *http.Client
	metrics *metrics.Recorder
}

// NewChangesClient creates a ChangesClient. Empty URLs fall back to the
// public endpoints.
func NewChangesClient(cfg Config) *ChangesClient {
	if cfg.ListURL == "" {
		cfg.ListURL = DefaultListURL
	}
	if cfg.PostURL == "" {
		cfg.PostURL = DefaultPostURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &ChangesClient{
		listURL: cfg.ListURL,
		postURL: cfg.PostURL,
		apiKey:  cfg.APIKey,
		appKey:  cfg.AppKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		metrics: cfg.Metrics,
	}
}

// Page is one decoded list response.
type Page struct {
	Results []record.Record
	// Link is the raw pagination header.
	Link string
}

type listResponse struct {
	Results []record.Record `json:"results"`
}

// ListPage issues a single list request with the given query parameters.
func (c *ChangesClient) ListPage(ctx context.Context, params url.Values) (*Page, error) {
	u, err := url.Parse(c.listURL)
	if err != nil {
		return nil, fmt.Errorf("invalid list URL: %w", err)
	}
	q := u.Query()
	for k, vs := range params {
		q[k] = vs
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.do(req, "list")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, newHTTPError(resp)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var body listResponse
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &Page{Results: body.Results, Link: resp.Header.Get("Link")}, nil
}

// PostResponse is the outcome of a single upload.
type PostResponse struct {
	StatusCode int
	Body       string
}

// PostChange uploads one change payload. When the server answers with a
// non-2xx status the response is returned together with an *HTTPError.
func (c *ChangesClient) PostChange(ctx context.Context, payload any) (*PostResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.postURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("x-bp-app-key", c.appKey)

	resp, err := c.do(req, "post")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	out := &PostResponse{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}

	if resp.StatusCode/100 != 2 {
		return out, &HTTPError{StatusCode: out.StatusCode, Body: out.Body}
	}
	return out, nil
}

func (c *ChangesClient) do(req *http.Request, endpoint string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(endpoint, 0, time.Since(start))
		return nil, err
	}
	c.metrics.ObserveRequest(endpoint, resp.StatusCode, time.Since(start))
	return resp, nil
}

func newHTTPError(resp *http.Response) *HTTPError {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}
