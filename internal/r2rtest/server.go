// Package r2rtest runs an in-process fake R2R service for tests and examples.
// It answers every client route with canned data and records each request.
package r2rtest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Prefix is the API prefix the fake server mounts its routes under.
const Prefix = "/v1"

// Request is one recorded call.
type Request struct {
	Method      string
	Path        string // without Prefix
	RawQuery    string
	ContentType string
	Body        []byte
	Status      int
}

// JSON decodes the recorded body into v.
func (r Request) JSON(v any) error {
	return json.Unmarshal(r.Body, v) //nolint:wrapcheck // test helper
}

// Form parses a recorded multipart body.
func (r Request) Form() (*multipart.Form, error) {
	_, params, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		return nil, err //nolint:wrapcheck // test helper
	}
	return multipart.NewReader(bytes.NewReader(r.Body), params["boundary"]).ReadForm(32 << 20) //nolint:wrapcheck,mnd
}

type failure struct {
	status int
	detail string
}

// Server is a fake R2R service.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
	chunks   []string
	failures map[string]failure
	tokens   []string
}

// Option configures the fake server.
type Option func(*Server)

// WithStreamChunks sets the chunks written, one flush each, for streamed RAG.
func WithStreamChunks(chunks ...string) Option {
	return func(s *Server) { s.chunks = chunks }
}

// WithFailure makes path (without Prefix) answer with status and a
// FastAPI-style {"detail": detail} body.
func WithFailure(path string, status int, detail string) Option {
	return func(s *Server) { s.failures[path] = failure{status: status, detail: detail} }
}

// New starts a fake server. Callers must Close it.
func New(opts ...Option) *Server {
	s := &Server{
		chunks:   []string{"Aristotle was ", "a Greek philosopher."},
		failures: map[string]failure{},
	}
	for _, o := range opts {
		o(s)
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// BaseURL is the server URL without the prefix, as passed to r2r.New.
func (s *Server) BaseURL() string { return s.URL }

// Requests returns a copy of everything recorded so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Last returns the most recent request.
func (s *Server) Last() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Route(Prefix, func(r chi.Router) {
		r.Use(bearerAuth(s.tokens), s.fail)
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"response": "ok"})
		})
		r.Get("/app_settings", results(map[string]any{"config": map[string]any{}, "prompts": map[string]any{}}))
		r.Post("/update_prompt", results(map[string]string{"message": "Prompt updated successfully."}))
		r.Post("/ingest_files", s.ingestFiles)
		r.Post("/update_files", s.ingestFiles)
		r.Post("/ingest_documents", results(map[string]any{"processed_documents": []string{}}))
		r.Post("/update_documents", results(map[string]any{"processed_documents": []string{}}))
		r.Post("/search", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"results": searchResults()})
		})
		r.Post("/rag", s.rag)
		r.Delete("/delete", results(map[string]any{}))
		r.Post("/logs", results([]any{}))
		r.Post("/analytics", results(map[string]any{"analytics_data": map[string]any{}}))
		r.Post("/users_overview", results([]any{}))
		r.Get("/users_overview", results([]any{}))
		r.Post("/documents_overview", results([]any{}))
		r.Post("/document_chunks", results([]any{}))
	})
	return r
}

// record buffers the request body so both the recorder and the handler can read it.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:      r.Method,
			Path:        strings.TrimPrefix(r.URL.Path, Prefix),
			RawQuery:    r.URL.RawQuery,
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
			Status:      ww.status,
		})
		s.mu.Unlock()
	})
}

func (s *Server) fail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f, ok := s.failures[strings.TrimPrefix(r.URL.Path, Prefix)]; ok {
			writeJSON(w, f.status, map[string]string{"detail": f.detail})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) ingestFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil { //nolint:mnd
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	names := make([]string, 0, len(r.MultipartForm.File["files"]))
	for _, fh := range r.MultipartForm.File["files"] {
		names = append(names, fh.Filename)
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": map[string]any{"processed_documents": names}})
}

func (s *Server) rag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RAGGenerationConfig *struct {
			Stream bool `json:"stream"`
		} `json:"rag_generation_config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "Invalid request body: " + err.Error()})
		return
	}

	if req.RAGGenerationConfig == nil || !req.RAGGenerationConfig.Stream {
		writeJSON(w, http.StatusOK, map[string]any{"results": map[string]any{
			"completion": map[string]any{
				"id":      "chatcmpl-r2rtest",
				"object":  "chat.completion",
				"model":   "gpt-4o",
				"choices": []any{map[string]any{"index": 0, "finish_reason": "stop", "message": map[string]any{"role": "assistant", "content": strings.Join(s.chunks, "")}}},
			},
			"search_results": searchResults(),
		}})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	for _, c := range s.chunks {
		_, _ = io.WriteString(w, c)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func searchResults() map[string]any {
	return map[string]any{
		"vector_search_results": []any{map[string]any{
			"id":       "9fbe403b-c11c-5aae-8ade-ef22980c3ad1",
			"score":    0.87,
			"metadata": map[string]any{"text": "Aristotle was a Greek philosopher and polymath.", "title": "aristotle.txt"},
		}},
		"kg_search_results": nil,
	}
}

func results(v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"results": v})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // delegating to underlying ResponseWriter
}

// Flush lets streamed responses through the recorder.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
