package payload

// Wire shapes of the R2R service. Field names are fixed by the server contract.

// GenerationConfig holds LLM generation parameters. Nil fields are omitted.
type GenerationConfig struct {
	Temperature         *float64         `json:"temperature,omitempty"`
	TopP                *float64         `json:"top_p,omitempty"`
	TopK                *int             `json:"top_k,omitempty"`
	MaxTokensToSample   *int             `json:"max_tokens_to_sample,omitempty"`
	Model               string           `json:"model,omitempty"`
	Stream              *bool            `json:"stream,omitempty"`
	Functions           []map[string]any `json:"functions,omitempty"`
	SkipSpecialTokens   *bool            `json:"skip_special_tokens,omitempty"`
	StopToken           *string          `json:"stop_token,omitempty"`
	NumBeams            *int             `json:"num_beams,omitempty"`
	DoSample            *bool            `json:"do_sample,omitempty"`
	GenerateWithChat    *bool            `json:"generate_with_chat,omitempty"`
	AddGenerationKwargs map[string]any   `json:"add_generation_kwargs,omitempty"`
	APIBase             string           `json:"api_base,omitempty"`
}

// VectorSearchSettings is always sent fully resolved.
type VectorSearchSettings struct {
	UseVectorSearch bool           `json:"use_vector_search"`
	SearchFilters   map[string]any `json:"search_filters"`
	SearchLimit     int            `json:"search_limit"`
	DoHybridSearch  bool           `json:"do_hybrid_search"`
}

// KGSearchSettings sends agent_generation_config as null when unset:
// the server treats null as "no override".
type KGSearchSettings struct {
	UseKGSearch           bool              `json:"use_kg_search"`
	AgentGenerationConfig *GenerationConfig `json:"agent_generation_config"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query                string               `json:"query"`
	VectorSearchSettings VectorSearchSettings `json:"vector_search_settings"`
	KGSearchSettings     KGSearchSettings     `json:"kg_search_settings"`
}

// RAGRequest is the body of POST /rag.
type RAGRequest struct {
	Query                string               `json:"query"`
	VectorSearchSettings VectorSearchSettings `json:"vector_search_settings"`
	KGSearchSettings     KGSearchSettings     `json:"kg_search_settings"`
	RAGGenerationConfig  *GenerationConfig    `json:"rag_generation_config,omitempty"`
}

// Streaming reports whether the request asks for a streamed completion.
func (r *RAGRequest) Streaming() bool {
	return r.RAGGenerationConfig != nil &&
		r.RAGGenerationConfig.Stream != nil &&
		*r.RAGGenerationConfig.Stream
}

// Document is a JSON-ingestable document.
type Document struct {
	ID       string         `json:"id,omitempty"`
	Type     string         `json:"type"`
	Data     string         `json:"data"`
	Metadata map[string]any `json:"metadata"`
}

// IngestDocumentsRequest is the body of POST /ingest_documents.
type IngestDocumentsRequest struct {
	Documents        []Document `json:"documents"`
	Versions         []string   `json:"versions,omitempty"`
	SkipDocumentInfo *bool      `json:"skip_document_info,omitempty"`
}

// UpdateDocumentsRequest is the body of POST /update_documents.
type UpdateDocumentsRequest struct {
	Documents []Document `json:"documents"`
}

// UpdatePromptRequest is the body of POST /update_prompt.
type UpdatePromptRequest struct {
	Name       string            `json:"name"`
	Template   string            `json:"template,omitempty"`
	InputTypes map[string]string `json:"input_types,omitempty"`
}

// DeleteRequest is the body of DELETE /delete. Keys[i] and Values[i] form one predicate.
type DeleteRequest struct {
	Keys   []string `json:"keys"`
	Values []any    `json:"values"`
}

// LogsRequest is the body of POST /logs. LogTypeFilter is null when unset.
type LogsRequest struct {
	LogTypeFilter    *string `json:"log_type_filter"`
	MaxRunsRequested int     `json:"max_runs_requested"`
}

// FilterCriteria nests filters under the "filters" key.
type FilterCriteria struct {
	Filters map[string]string `json:"filters,omitempty"`
}

// AnalysisTypes nests analysis types under the "analysis_types" key.
type AnalysisTypes struct {
	AnalysisTypes map[string][]string `json:"analysis_types,omitempty"`
}

// AnalyticsRequest is the body of POST /analytics.
type AnalyticsRequest struct {
	FilterCriteria FilterCriteria `json:"filter_criteria"`
	AnalysisTypes  AnalysisTypes  `json:"analysis_types"`
}

// UsersOverviewRequest is the body of POST /users_overview.
type UsersOverviewRequest struct {
	UserIDs []string `json:"user_ids,omitempty"`
}

// DocumentsOverviewRequest is the body of POST /documents_overview.
type DocumentsOverviewRequest struct {
	DocumentIDs []string `json:"document_ids,omitempty"`
	UserIDs     []string `json:"user_ids,omitempty"`
}

// DocumentChunksRequest is the body of POST /document_chunks.
type DocumentChunksRequest struct {
	DocumentID string `json:"document_id"`
}
