package r2r

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/r2r/internal/payload"
	"github.com/kailas-cloud/r2r/internal/transport/httpapi"
)

// RAGOptions configure RAG and StreamRAG.
type RAGOptions struct {
	SearchOptions
	// GenerationConfig is sent as rag_generation_config when set.
	// Stream=true selects a streamed response. Defaults are not merged in;
	// see MergeGenerationConfig.
	GenerationConfig *GenerationConfig
}

// Search runs a vector and/or knowledge-graph search. opts may be nil.
func (c *Client) Search(ctx context.Context, query string, opts *SearchOptions) (*SearchResponse, error) {
	return call(ctx, c, "search", func(ctx context.Context) (*SearchResponse, error) {
		var o SearchOptions
		if opts != nil {
			o = *opts
		}
		vs, kg := o.Resolve()
		req := payload.SearchRequest{Query: query, VectorSearchSettings: vs, KGSearchSettings: kg}

		var out SearchResponse
		if err := c.doJSON(ctx, http.MethodPost, "/search", req, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

// RAG runs retrieval-augmented generation. When the generation config asks
// for streaming, the result holds an open Stream the caller must close;
// otherwise it holds the parsed response.
func (c *Client) RAG(ctx context.Context, query string, opts *RAGOptions) (RAGResult, error) {
	return call(ctx, c, "rag", func(ctx context.Context) (RAGResult, error) {
		req := ragRequest(query, opts)
		if req.Streaming() {
			s, err := c.openStream(ctx, req)
			if err != nil {
				return RAGResult{}, err
			}
			return RAGResult{Stream: s}, nil
		}

		var out RAGResponse
		if err := c.doJSON(ctx, http.MethodPost, "/rag", req, &out); err != nil {
			return RAGResult{}, err
		}
		return RAGResult{Response: &out}, nil
	})
}

// StreamRAG is RAG with streaming forced on, whatever the generation config says.
func (c *Client) StreamRAG(ctx context.Context, query string, opts *RAGOptions) (*Stream, error) {
	return call(ctx, c, "stream_rag", func(ctx context.Context) (*Stream, error) {
		req := ragRequest(query, opts)
		cfg := GenerationConfig{}
		if req.RAGGenerationConfig != nil {
			cfg = *req.RAGGenerationConfig
		}
		cfg.Stream = Ptr(true)
		req.RAGGenerationConfig = &cfg
		return c.openStream(ctx, req)
	})
}

func ragRequest(query string, opts *RAGOptions) payload.RAGRequest {
	var o RAGOptions
	if opts != nil {
		o = *opts
	}
	vs, kg := o.Resolve()
	req := payload.RAGRequest{Query: query, VectorSearchSettings: vs, KGSearchSettings: kg}
	if o.GenerationConfig != nil {
		cfg := *o.GenerationConfig
		req.RAGGenerationConfig = &cfg
	}
	return req
}

func (c *Client) openStream(ctx context.Context, req payload.RAGRequest) (*Stream, error) {
	body, err := payload.JSON(req)
	if err != nil {
		return nil, err
	}
	r := httpapi.Request{Method: http.MethodPost, Path: "/rag", Body: body}
	rc, err := c.api.Open(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("rag stream: %w", err)
	}
	return newStream(rc, r.Method, r.Path), nil
}
