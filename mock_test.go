package r2r

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

// --- HTTPDoer mock ---

type recordedRequest struct {
	Method      string
	Path        string
	RawQuery    string
	ContentType string
	Header      http.Header
	Body        []byte
	HasBody     bool
}

type mockDoer struct {
	doFn     func(req *http.Request) (*http.Response, error)
	requests []recordedRequest
}

func (m *mockDoer) Do(req *http.Request) (*http.Response, error) {
	rec := recordedRequest{
		Method:      req.Method,
		Path:        req.URL.Path,
		RawQuery:    req.URL.RawQuery,
		ContentType: req.Header.Get("Content-Type"),
		Header:      req.Header.Clone(),
	}
	if req.Body != nil {
		rec.HasBody = true
		rec.Body, _ = io.ReadAll(req.Body)
		_ = req.Body.Close()
	}
	m.requests = append(m.requests, rec)
	if m.doFn != nil {
		return m.doFn(req)
	}
	return jsonResponse(http.StatusOK, `{}`), nil
}

func (m *mockDoer) last(t *testing.T) recordedRequest {
	t.Helper()
	if len(m.requests) == 0 {
		t.Fatal("no request was sent")
	}
	return m.requests[len(m.requests)-1]
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// --- response body mock ---

// chunkBody returns one chunk per Read and records whether it was read or closed.
type chunkBody struct {
	chunks []string
	err    error
	reads  int
	closed bool
}

func (b *chunkBody) Read(p []byte) (int, error) {
	b.reads++
	if b.closed {
		return 0, io.ErrClosedPipe
	}
	if len(b.chunks) == 0 {
		if b.err != nil {
			return 0, b.err
		}
		return 0, io.EOF
	}
	n := copy(p, b.chunks[0])
	if b.chunks[0] = b.chunks[0][n:]; len(b.chunks[0]) == 0 {
		b.chunks = b.chunks[1:]
	}
	return n, nil
}

func (b *chunkBody) Close() error {
	b.closed = true
	return nil
}

func streamResponse(status int, body *chunkBody) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"text/plain"}},
		Body:       body,
	}
}

// --- FileSystem mock ---

type mockFS struct {
	openFn func(name string) (io.ReadCloser, error)
	opened []string
}

func (m *mockFS) Open(name string) (io.ReadCloser, error) {
	m.opened = append(m.opened, name)
	return m.openFn(name)
}

// trackedFile is an upload source that records Close.
type trackedFile struct {
	io.Reader
	closed bool
}

func (f *trackedFile) Close() error {
	f.closed = true
	return nil
}

func newTestClient(t *testing.T, doer HTTPDoer, opts ...Option) *Client {
	t.Helper()
	c, err := New("http://r2r.test", append([]Option{WithHTTPClient(doer)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}
