// Package http provides the backend transport and the host-side gateway.
//
// Transport is the client half: it ships state snapshots to the page URL
// and parses the replacement payload. Gateway is the host half: the
// endpoints a page host exposes next to the backend (realtime SSE,
// metrics, health).
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Transport implements ports.Backend over HTTP. Each submission POSTs the
// JSON body to the page URL, carrying the page's query parameters; the
// backend dispatches on path and query, not on headers.
type Transport struct {
	client  *http.Client
	pageURL string
	query   url.Values
	header  http.Header
	logger  *slog.Logger
}

var _ ports.Backend = (*Transport)(nil)

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(client *http.Client) TransportOption {
	return func(t *Transport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithQuery sets the page query parameters sent with every submission.
func WithQuery(query url.Values) TransportOption {
	return func(t *Transport) { t.query = query }
}

// WithHeader adds a header to every submission request.
func WithHeader(key, value string) TransportOption {
	return func(t *Transport) { t.header.Set(key, value) }
}

// WithTransportLogger sets the logger.
func WithTransportLogger(logger *slog.Logger) TransportOption {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTransport creates a Transport for one page URL.
func NewTransport(pageURL string, opts ...TransportOption) *Transport {
	t := &Transport{
		client:  http.DefaultClient,
		pageURL: pageURL,
		header:  make(http.Header),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// StatusError reports a non-2xx backend reply. The submission is not
// retried; the caller's error boundary decides what to do with it.
type StatusError struct {
	URL    string
	Code   int
	Body   string
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s replied %s", e.URL, e.Status)
}

// Submit implements ports.Backend.
func (t *Transport) Submit(ctx context.Context, sub domain.Submission) (*domain.Response, error) {
	target, err := t.buildURL()
	if err != nil {
		return nil, fmt.Errorf("bad page url: %w", err)
	}

	body, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for key, values := range t.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	t.logger.Debug("submitting", "url", target, "fields", len(sub.State))
	httpResp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 2048))
		return nil, &StatusError{
			URL:    target,
			Code:   httpResp.StatusCode,
			Body:   string(snippet),
			Status: httpResp.Status,
		}
	}

	var resp domain.Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

func (t *Transport) buildURL() (string, error) {
	u, err := url.Parse(t.pageURL)
	if err != nil {
		return "", err
	}
	if len(t.query) > 0 {
		q := u.Query()
		for key, values := range t.query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
