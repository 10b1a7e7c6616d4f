package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/r2r/internal/domain"
	"github.com/kailas-cloud/r2r/internal/payload"
)

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

type closeTracker struct {
	io.Reader
	closed bool
	read   bool
}

func (c *closeTracker) Read(p []byte) (int, error) {
	c.read = true
	return c.Reader.Read(p) //nolint:wrapcheck // test helper
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func newResponse(status int, body io.ReadCloser) *http.Response {
	return &http.Response{StatusCode: status, Body: body, Header: http.Header{}}
}

func TestSend_JSONHeadersAndURL(t *testing.T) {
	var got *http.Request
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"results":"ok"}`))
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("Content-Type", "text/plain")
	header.Set("X-Trace", "abc")
	d := New(srv.URL+"/v1/", srv.Client(), header)

	body, err := payload.JSON(map[string]string{"query": "q"})
	require.NoError(t, err)

	var out struct {
		Results string `json:"results"`
	}
	err = d.Decode(context.Background(), Request{Method: http.MethodPost, Path: "/search", Body: body}, &out)
	require.NoError(t, err)

	assert.Equal(t, "ok", out.Results)
	assert.Equal(t, "/v1/search", got.URL.Path)
	assert.Equal(t, payload.ContentTypeJSON, got.Header.Get("Content-Type"))
	assert.Equal(t, "abc", got.Header.Get("X-Trace"))
	assert.JSONEq(t, `{"query":"q"}`, gotBody)
}

func TestSend_GetHasNoBodyOrContentType(t *testing.T) {
	var got *http.Request
	d := New("http://r2r.test/v1", doerFunc(func(r *http.Request) (*http.Response, error) {
		got = r
		return newResponse(http.StatusOK, io.NopCloser(strings.NewReader(`{}`))), nil
	}), nil)

	err := d.Decode(context.Background(), Request{Method: http.MethodGet, Path: "/users_overview", RawQuery: "user_ids=a"}, nil)
	require.NoError(t, err)

	assert.Nil(t, got.Body)
	assert.Empty(t, got.Header.Get("Content-Type"))
	assert.Equal(t, "user_ids=a", got.URL.RawQuery)
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
}

func TestDecode_StatusErrorWithDetail(t *testing.T) {
	d := New("http://r2r.test", doerFunc(func(*http.Request) (*http.Response, error) {
		return newResponse(http.StatusUnprocessableEntity,
			io.NopCloser(strings.NewReader(`{"detail":"field required"}`))), nil
	}), nil)

	err := d.Decode(context.Background(), Request{Method: http.MethodPost, Path: "/rag"}, nil)

	var se *domain.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.StatusCode)
	assert.Equal(t, "field required", se.Detail)
	assert.JSONEq(t, `{"detail":"field required"}`, string(se.Body))
}

func TestDecode_TransportError(t *testing.T) {
	boom := errors.New("connection refused")
	d := New("http://r2r.test", doerFunc(func(*http.Request) (*http.Response, error) {
		return nil, boom
	}), nil)

	err := d.Decode(context.Background(), Request{Method: http.MethodGet, Path: "/health"}, nil)

	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "/health", te.Path)
	require.ErrorIs(t, err, boom)
}

func TestDecode_InvalidJSON(t *testing.T) {
	d := New("http://r2r.test", doerFunc(func(*http.Request) (*http.Response, error) {
		return newResponse(http.StatusOK, io.NopCloser(strings.NewReader(`not json`))), nil
	}), nil)

	var out map[string]any
	err := d.Decode(context.Background(), Request{Method: http.MethodGet, Path: "/health"}, &out)
	require.Error(t, err)
}

func TestOpen_ReturnsLiveBody(t *testing.T) {
	body := &closeTracker{Reader: strings.NewReader("chunk")}
	d := New("http://r2r.test", doerFunc(func(*http.Request) (*http.Response, error) {
		return newResponse(http.StatusOK, body), nil
	}), nil)

	rc, err := d.Open(context.Background(), Request{Method: http.MethodPost, Path: "/rag"})
	require.NoError(t, err)
	assert.False(t, body.read, "open must not read the body")

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "chunk", string(data))
	require.NoError(t, rc.Close())
	assert.True(t, body.closed)
}

func TestOpen_StatusErrorDoesNotReadBody(t *testing.T) {
	body := &closeTracker{Reader: strings.NewReader(`{"detail":"boom"}`)}
	d := New("http://r2r.test", doerFunc(func(*http.Request) (*http.Response, error) {
		return newResponse(http.StatusInternalServerError, body), nil
	}), nil)

	_, err := d.Open(context.Background(), Request{Method: http.MethodPost, Path: "/rag"})

	var se *domain.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Empty(t, se.Body)
	assert.False(t, body.read)
	assert.True(t, body.closed)
}

func TestSend_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := New(srv.URL, srv.Client(), nil)
	_, err := d.Send(ctx, Request{Method: http.MethodGet, Path: "/health"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestExtractDetail(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"detail":"plain"}`, "plain"},
		{`{"detail":{"message":"nested"}}`, "nested"},
		{`{"detail":[{"loc":["body"]}]}`, `[{"loc":["body"]}]`},
		{`{"other":1}`, ""},
		{`garbage`, ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, extractDetail([]byte(tc.body)), tc.body)
	}
}

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(0)
	require.NotNil(t, c.Transport)
	assert.Zero(t, c.Timeout)
}
