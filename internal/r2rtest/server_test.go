package r2rtest

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_RecordsRequests(t *testing.T) {
	srv := New()
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/logs", "application/json", strings.NewReader(`{"max_runs_requested":5}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	last, ok := srv.Last()
	require.True(t, ok)
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, "/logs", last.Path)
	assert.Equal(t, "application/json", last.ContentType)

	var body map[string]int
	require.NoError(t, last.JSON(&body))
	assert.Equal(t, 5, body["max_runs_requested"])
}

func TestServer_StreamsChunks(t *testing.T) {
	srv := New(WithStreamChunks("a", "b", "c"))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/rag", "application/json",
		strings.NewReader(`{"query":"q","rag_generation_config":{"stream":true}}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))
}

func TestServer_Failure(t *testing.T) {
	srv := New(WithFailure("/search", http.StatusServiceUnavailable, "vector store offline"))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/search", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.JSONEq(t, `{"detail":"vector store offline"}`, string(data))

	last, ok := srv.Last()
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, last.Status)
}

func TestServer_UnknownRoute(t *testing.T) {
	srv := New()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/nope")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Len(t, srv.Requests(), 1)
}

func TestServer_BearerTokens(t *testing.T) {
	srv := New(WithBearerTokens("secret"))
	defer srv.Close()

	do := func(path, auth string) int {
		req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(`{}`))
		require.NoError(t, err)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusUnauthorized, do("/v1/logs", ""))
	assert.Equal(t, http.StatusUnauthorized, do("/v1/logs", "Basic abc"))
	assert.Equal(t, http.StatusUnauthorized, do("/v1/logs", "Bearer wrong"))
	assert.Equal(t, http.StatusOK, do("/v1/logs", "Bearer secret"))

	resp, err := http.Get(srv.URL + "/v1/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
