package r2r

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/kailas-cloud/r2r/internal/r2rtest"
)

func TestIntegration_EndToEnd(t *testing.T) {
	srv := r2rtest.New(r2rtest.WithStreamChunks("Hello, ", "world!"))
	defer srv.Close()

	c, err := New(srv.BaseURL())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	h, err := c.Health(ctx)
	if err != nil || h.Response != "ok" {
		t.Fatalf("Health = %+v, %v", h, err)
	}

	raw, err := c.IngestFiles(ctx, []Upload{
		FileFromReader("aristotle.txt", strings.NewReader("Aristotle was a Greek philosopher.")),
	}, &IngestFilesOptions{DocumentIDs: []string{GenerateIDFromLabel("aristotle.txt")}})
	if err != nil {
		t.Fatalf("IngestFiles: %v", err)
	}
	if !strings.Contains(string(raw), "aristotle.txt") {
		t.Errorf("ingest result = %s", raw)
	}
	last, _ := srv.Last()
	form, err := last.Form()
	if err != nil {
		t.Fatalf("server could not parse multipart body: %v", err)
	}
	if len(form.Value["document_ids"]) != 1 {
		t.Errorf("document_ids = %v", form.Value["document_ids"])
	}

	res, err := c.Search(ctx, "who was aristotle?", nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Results.VectorSearchResults) != 1 {
		t.Errorf("results = %+v", res.Results)
	}

	rag, err := c.RAG(ctx, "who was aristotle?", nil)
	if err != nil {
		t.Fatalf("RAG: %v", err)
	}
	if rag.Streaming() || rag.Response.Content() != "Hello, world!" {
		t.Errorf("buffered rag = %+v", rag)
	}

	s, err := c.StreamRAG(ctx, "who was aristotle?", nil)
	if err != nil {
		t.Fatalf("StreamRAG: %v", err)
	}
	text, err := s.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if text != "Hello, world!" {
		t.Errorf("streamed text = %q", text)
	}

	if _, err := c.Delete(ctx, []string{"document_id"}, []any{"d1"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	last, _ = srv.Last()
	if last.Method != http.MethodDelete || string(last.Body) != `{"keys":["document_id"],"values":["d1"]}` {
		t.Errorf("delete request = %s %s", last.Method, last.Body)
	}
}

func TestIntegration_StatusError(t *testing.T) {
	srv := r2rtest.New(r2rtest.WithFailure("/search", http.StatusServiceUnavailable, "vector store offline"))
	defer srv.Close()

	c, err := New(srv.BaseURL())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = c.Search(context.Background(), "q", nil)
	var se *HTTPStatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *HTTPStatusError", err)
	}
	if se.StatusCode != http.StatusServiceUnavailable || se.Detail != "vector store offline" {
		t.Errorf("status error = %+v", se)
	}
}

func TestIntegration_ContextCancelled(t *testing.T) {
	srv := r2rtest.New()
	defer srv.Close()

	c, err := New(srv.BaseURL())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Health(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestIntegration_HeaderOption(t *testing.T) {
	srv := r2rtest.New(r2rtest.WithBearerTokens("secret"))
	defer srv.Close()

	anon, err := New(srv.BaseURL())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = anon.Logs(context.Background(), nil)
	var se *HTTPStatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized || se.Detail != "Not authenticated" {
		t.Fatalf("anonymous err = %v, want 401 Not authenticated", err)
	}

	authed, err := New(srv.BaseURL(), WithHeader("Authorization", "Bearer secret"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := authed.Logs(context.Background(), nil); err != nil {
		t.Fatalf("authenticated Logs: %v", err)
	}
}
