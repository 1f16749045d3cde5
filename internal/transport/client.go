// Package transport is the harness's single HTTP primitive: a pooled client
// that issues one request, reads the full body, and reports connection-phase
// timings alongside the status code. Callers never see a partial response.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dscott-devops/chunky-loadgen/internal/metrics"
)

// TagHeader carries the run tag on every request so a run's traffic can be
// isolated in API-side logs.
const TagHeader = "X-Load-Tag"

// debugLogCap bounds how many failed exchanges get a debug log line per
// process, to keep a failing run from flooding the log.
const debugLogCap = 20

// Timings holds the phase breakdown of one exchange. Phase fields are nil
// when the phase did not happen on this request (reused connection means no
// connect or TLS sample) — absent is distinct from zero.
type Timings struct {
	Connect       *time.Duration
	TLSHandshake  *time.Duration
	WaitFirstByte *time.Duration
	Total         time.Duration
}

// Response is one completed HTTP exchange.
type Response struct {
	StatusCode int
	Body       []byte
	Timings    Timings
}

// Sample converts a completed (or failed, nil) exchange into the metrics
// sample the aggregator records. A nil response is a transport-level failure
// and carries status 0.
func Sample(r *Response) metrics.Sample {
	if r == nil {
		return metrics.Sample{Status: 0}
	}
	return metrics.Sample{
		Status:        r.StatusCode,
		Total:         r.Timings.Total,
		Connect:       r.Timings.Connect,
		TLSHandshake:  r.Timings.TLSHandshake,
		WaitFirstByte: r.Timings.WaitFirstByte,
	}
}

// Doer is the request primitive the session flows depend on. Tests stub it
// to drive flows without a network.
type Doer interface {
	Get(ctx context.Context, url string, headers map[string]string) (*Response, error)
	Post(ctx context.Context, url string, headers map[string]string, body any) (*Response, error)
}

// Client is the production Doer, shared by all virtual users.
type Client struct {
	http   *http.Client
	tag    string
	debug  bool
	debugN atomic.Int64
}

// NewClient builds the shared HTTP client with a pooled transport sized for
// hundreds of concurrent virtual users.
func NewClient(tag string, debug bool) *Client {
	return &Client{
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		tag:   tag,
		debug: debug,
	}
}

// Get issues a GET and returns the completed exchange.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, headers, nil)
}

// Post marshals body as JSON and issues a POST.
func (c *Client) Post(ctx context.Context, url string, headers map[string]string, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}
	return c.do(ctx, http.MethodPost, url, headers, reader)
}

func (c *Client) do(ctx context.Context, method, url string, headers map[string]string, body io.Reader) (*Response, error) {
	var (
		timings      Timings
		connectStart time.Time
		tlsStart     time.Time
		wroteAt      time.Time
	)

	trace := &httptrace.ClientTrace{
		ConnectStart: func(network, addr string) {
			connectStart = time.Now()
		},
		ConnectDone: func(network, addr string, err error) {
			if err == nil && !connectStart.IsZero() {
				d := time.Since(connectStart)
				timings.Connect = &d
			}
		},
		TLSHandshakeStart: func() {
			tlsStart = time.Now()
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			if err == nil && !tlsStart.IsZero() {
				d := time.Since(tlsStart)
				timings.TLSHandshake = &d
			}
		},
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			wroteAt = time.Now()
		},
		GotFirstResponseByte: func() {
			if !wroteAt.IsZero() {
				d := time.Since(wroteAt)
				timings.WaitFirstByte = &d
			}
		},
	}

	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tag != "" {
		req.Header.Set(TagHeader, c.tag)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logFailure(method, url, 0, err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	timings.Total = time.Since(start)
	if err != nil {
		c.logFailure(method, url, resp.StatusCode, err)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if metrics.IsFailure(resp.StatusCode) {
		c.logFailure(method, url, resp.StatusCode, nil)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Timings:    timings,
	}, nil
}

func (c *Client) logFailure(method, url string, status int, err error) {
	if !c.debug {
		return
	}
	if c.debugN.Add(1) > debugLogCap {
		return
	}
	entry := logrus.WithFields(logrus.Fields{
		"method": method,
		"url":    url,
		"status": status,
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Debug("request failed")
}
