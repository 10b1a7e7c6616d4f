// Package httpapi sends assembled bodies to the R2R HTTP API and delivers
// either a decoded JSON result or an open response stream.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kailas-cloud/r2r/internal/domain"
	"github.com/kailas-cloud/r2r/internal/payload"
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request describes one call.
type Request struct {
	Method   string
	Path     string // relative to the base URL, with leading slash
	RawQuery string
	Body     *payload.Body // nil for body-less calls
}

// Dispatcher is immutable and safe for concurrent use.
type Dispatcher struct {
	doer    Doer
	baseURL string
	header  http.Header
}

// New creates a Dispatcher. Content-Type in header is ignored: it is always
// derived from the body.
func New(baseURL string, doer Doer, header http.Header) *Dispatcher {
	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Del("Content-Type")
	return &Dispatcher{
		doer:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		header:  h,
	}
}

// NewHTTPClient returns an http.Client with connection-level timeouts only.
// A whole-request timeout would cut long streams; pass one explicitly if wanted.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 120 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// BaseURL returns the endpoint all paths are resolved against.
func (d *Dispatcher) BaseURL() string { return d.baseURL }

// Doer returns the underlying transport.
func (d *Dispatcher) Doer() Doer { return d.doer }

// Send issues the request and returns the raw response. The request body,
// if any, is closed by the transport once consumed.
func (d *Dispatcher) Send(ctx context.Context, r Request) (*http.Response, error) {
	url := d.baseURL + r.Path
	if r.RawQuery != "" {
		url += "?" + r.RawQuery
	}

	var body io.Reader
	if r.Body != nil {
		body = r.Body
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, url, body)
	if err != nil {
		if r.Body != nil {
			_ = r.Body.Close()
		}
		return nil, fmt.Errorf("build request: %w", err)
	}
	if r.Body != nil {
		// Body is an io.ReadCloser, so net/http closes it (and the files behind it).
		if n := r.Body.Len(); n >= 0 {
			req.ContentLength = n
		}
	}

	for k, vs := range d.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.Body != nil {
		req.Header.Set("Content-Type", r.Body.ContentType)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := d.doer.Do(req)
	if err != nil {
		if r.Body != nil {
			// Custom doers may not close the body on failure; Close is idempotent.
			_ = r.Body.Close()
		}
		return nil, &domain.TransportError{Method: r.Method, Path: r.Path, Err: err}
	}
	return resp, nil
}

// Decode performs a buffered call: the whole body is read and, on success,
// unmarshalled into out (skipped when out is nil or the body is empty).
func (d *Dispatcher) Decode(ctx context.Context, r Request, out any) error {
	resp, err := d.Send(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.TransportError{Method: r.Method, Path: r.Path, Err: err}
	}

	if !isSuccess(resp.StatusCode) {
		return &domain.StatusError{
			StatusCode: resp.StatusCode,
			Body:       data,
			Detail:     extractDetail(data),
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Open performs a streaming call. On success the live body is returned
// without reading it; the caller must close it. A non-2xx status fails with
// a StatusError carrying only the status and no body is read.
func (d *Dispatcher) Open(ctx context.Context, r Request) (io.ReadCloser, error) {
	resp, err := d.Send(ctx, r)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		_ = resp.Body.Close()
		return nil, &domain.StatusError{StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// extractDetail pulls a human-readable message out of a FastAPI-style error
// body: {"detail": "..."} or {"detail": {"message": "..."}}.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) != nil || len(parsed.Detail) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(parsed.Detail, &s) == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(parsed.Detail, &obj) == nil && obj.Message != "" {
		return obj.Message
	}
	return string(parsed.Detail)
}
