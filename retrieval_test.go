package r2r

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"testing"
)

func decodeBody(t *testing.T, req recordedRequest) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("unmarshal body %s: %v", req.Body, err)
	}
	return body
}

func TestSearch_DefaultSettings(t *testing.T) {
	doer := &mockDoer{doFn: func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"results":{"vector_search_results":[
			{"id":"c1","score":0.92,"metadata":{"text":"Aristotle was a Greek philosopher"}}
		]}}`), nil
	}}
	c := newTestClient(t, doer)

	res, err := c.Search(context.Background(), "who was aristotle?", nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Results.VectorSearchResults) != 1 {
		t.Fatalf("results = %d, want 1", len(res.Results.VectorSearchResults))
	}
	if hit := res.Results.VectorSearchResults[0]; hit.Text() != "Aristotle was a Greek philosopher" || hit.Score != 0.92 {
		t.Errorf("hit = %+v", hit)
	}

	req := doer.last(t)
	if req.Method != http.MethodPost || req.Path != "/v1/search" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
	got := decodeBody(t, req)
	want := map[string]any{
		"query": "who was aristotle?",
		"vector_search_settings": map[string]any{
			"use_vector_search": true,
			"search_filters":    map[string]any{},
			"search_limit":      float64(10),
			"do_hybrid_search":  false,
		},
		"kg_search_settings": map[string]any{
			"use_kg_search":           false,
			"agent_generation_config": nil,
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("body = %v\nwant %v", got, want)
	}
}

func TestSearch_ExplicitFalseVectorSearch(t *testing.T) {
	doer := &mockDoer{}
	c := newTestClient(t, doer)

	_, err := c.Search(context.Background(), "q", &SearchOptions{UseVectorSearch: Ptr(false), UseKGSearch: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	body := decodeBody(t, doer.last(t))
	vs := body["vector_search_settings"].(map[string]any)
	if vs["use_vector_search"] != false {
		t.Errorf("use_vector_search = %v, want false", vs["use_vector_search"])
	}
	kg := body["kg_search_settings"].(map[string]any)
	if kg["use_kg_search"] != true {
		t.Errorf("use_kg_search = %v, want true", kg["use_kg_search"])
	}
}

func TestRAG_Buffered(t *testing.T) {
	doer := &mockDoer{doFn: func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"results":{
			"completion":{"id":"cmpl-1","choices":[{"index":0,"message":{"role":"assistant","content":"A philosopher."}}]},
			"search_results":{"vector_search_results":[]}
		}}`), nil
	}}
	c := newTestClient(t, doer)

	for _, opts := range []*RAGOptions{
		nil,
		{GenerationConfig: &GenerationConfig{Model: "gpt-4o"}},
		{GenerationConfig: &GenerationConfig{Stream: Ptr(false)}},
	} {
		res, err := c.RAG(context.Background(), "who was aristotle?", opts)
		if err != nil {
			t.Fatalf("RAG: %v", err)
		}
		if res.Streaming() {
			t.Fatal("buffered RAG returned a stream")
		}
		if got := res.Response.Content(); got != "A philosopher." {
			t.Errorf("Content() = %q", got)
		}
	}

	body := decodeBody(t, doer.requests[0])
	if _, ok := body["rag_generation_config"]; ok {
		t.Error("rag_generation_config sent although not supplied")
	}
	body = decodeBody(t, doer.requests[1])
	if cfg := body["rag_generation_config"].(map[string]any); !reflect.DeepEqual(cfg, map[string]any{"model": "gpt-4o"}) {
		t.Errorf("rag_generation_config = %v", cfg)
	}
}

func TestRAG_Stream(t *testing.T) {
	body := &chunkBody{chunks: []string{"Hello, ", "world!"}}
	doer := &mockDoer{doFn: func(*http.Request) (*http.Response, error) {
		return streamResponse(http.StatusOK, body), nil
	}}
	c := newTestClient(t, doer)

	res, err := c.RAG(context.Background(), "hi", &RAGOptions{
		GenerationConfig: &GenerationConfig{Stream: Ptr(true)},
	})
	if err != nil {
		t.Fatalf("RAG: %v", err)
	}
	if !res.Streaming() || res.Response != nil {
		t.Fatalf("result = %+v, want stream only", res)
	}
	if body.reads != 0 {
		t.Errorf("stream read %d times before the caller asked", body.reads)
	}

	var chunks []string
	for res.Stream.Next() {
		chunks = append(chunks, res.Stream.Text())
	}
	if err := res.Stream.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	if !reflect.DeepEqual(chunks, []string{"Hello, ", "world!"}) {
		t.Errorf("chunks = %q", chunks)
	}
	if !body.closed {
		t.Error("body not closed at end of stream")
	}
}

func TestStreamRAG_ForcesStream(t *testing.T) {
	doer := &mockDoer{doFn: func(*http.Request) (*http.Response, error) {
		return streamResponse(http.StatusOK, &chunkBody{chunks: []string{"ok"}}), nil
	}}
	c := newTestClient(t, doer)

	cfg := &GenerationConfig{Model: "gpt-4o", Stream: Ptr(false)}
	s, err := c.StreamRAG(context.Background(), "hi", &RAGOptions{GenerationConfig: cfg})
	if err != nil {
		t.Fatalf("StreamRAG: %v", err)
	}
	text, err := s.Collect()
	if err != nil || text != "ok" {
		t.Errorf("Collect = %q, %v", text, err)
	}

	gen := decodeBody(t, doer.last(t))["rag_generation_config"].(map[string]any)
	if gen["stream"] != true || gen["model"] != "gpt-4o" {
		t.Errorf("rag_generation_config = %v", gen)
	}
	if *cfg.Stream {
		t.Error("StreamRAG mutated the caller's config")
	}
}

func TestStream_StatusErrorDoesNotReadBody(t *testing.T) {
	body := &chunkBody{chunks: []string{`{"detail":"boom"}`}}
	doer := &mockDoer{doFn: func(*http.Request) (*http.Response, error) {
		return streamResponse(http.StatusInternalServerError, body), nil
	}}
	c := newTestClient(t, doer)

	_, err := c.StreamRAG(context.Background(), "hi", nil)
	var se *HTTPStatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *HTTPStatusError", err)
	}
	if se.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d", se.StatusCode)
	}
	if body.reads != 0 {
		t.Errorf("body read %d times", body.reads)
	}
	if !body.closed {
		t.Error("body not closed")
	}
}

func TestStream_ChunksEarlyBreakCloses(t *testing.T) {
	body := &chunkBody{chunks: []string{"a", "b", "c"}}
	s := newStream(body, http.MethodPost, "/rag")

	var got []string
	for chunk, err := range s.Chunks() {
		if err != nil {
			t.Fatalf("chunk error: %v", err)
		}
		got = append(got, chunk)
		break
	}
	if !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("chunks = %q", got)
	}
	if !body.closed {
		t.Error("body not closed after break")
	}
	if s.Next() {
		t.Error("Next after close returned true")
	}
}

func TestStream_TransportError(t *testing.T) {
	cause := errors.New("connection reset")
	s := newStream(&chunkBody{chunks: []string{"partial"}, err: cause}, http.MethodPost, "/rag")

	var buf bytes.Buffer
	n, err := s.WriteTo(&buf)
	if buf.String() != "partial" || n != 7 {
		t.Errorf("wrote %d %q", n, buf.String())
	}
	var te *TransportError
	if !errors.As(err, &te) || !errors.Is(err, cause) {
		t.Fatalf("err = %v, want *TransportError wrapping cause", err)
	}
}

func TestStream_CloseIdempotent(t *testing.T) {
	s := newStream(&chunkBody{}, http.MethodPost, "/rag")
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestRAG_StatusErrorDetail(t *testing.T) {
	doer := &mockDoer{doFn: func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnprocessableEntity, `{"detail":"query must not be empty"}`), nil
	}}
	c := newTestClient(t, doer)

	_, err := c.RAG(context.Background(), "", nil)
	var se *HTTPStatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *HTTPStatusError", err)
	}
	if se.StatusCode != http.StatusUnprocessableEntity || se.Detail != "query must not be empty" {
		t.Errorf("status error = %+v", se)
	}
}
