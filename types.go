package r2r

import (
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/r2r/internal/payload"
)

// Document is a JSON-ingestable document (IngestDocuments / UpdateDocuments).
type Document = payload.Document

// HealthResponse is returned by Health.
type HealthResponse struct {
	Response string `json:"response"`
}

// SearchResponse is returned by Search.
type SearchResponse struct {
	Results SearchResults `json:"results"`
}

// SearchResults carries vector and knowledge-graph hits. KG results are
// server-defined and kept raw.
type SearchResults struct {
	VectorSearchResults []VectorSearchResult `json:"vector_search_results"`
	KGSearchResults     json.RawMessage      `json:"kg_search_results,omitempty"`
}

// VectorSearchResult is one vector hit.
type VectorSearchResult struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// Text returns the chunk text stored under metadata["text"], if any.
func (r VectorSearchResult) Text() string {
	s, _ := r.Metadata["text"].(string)
	return s
}

// RAGResponse is the buffered result of RAG. The completion follows the
// OpenAI chat completion shape.
type RAGResponse struct {
	Results RAGResults `json:"results"`
}

// RAGResults holds the completion and the search context it was built from.
type RAGResults struct {
	Completion    openai.ChatCompletionResponse `json:"completion"`
	SearchResults SearchResults                 `json:"search_results"`
}

// Content returns the first choice's message content, or "".
func (r *RAGResponse) Content() string {
	if r == nil || len(r.Results.Completion.Choices) == 0 {
		return ""
	}
	return r.Results.Completion.Choices[0].Message.Content
}

// RAGResult is either a buffered Response or a live Stream, never both.
type RAGResult struct {
	Response *RAGResponse
	Stream   *Stream
}

// Streaming reports whether the result is a stream.
func (r RAGResult) Streaming() bool { return r.Stream != nil }
