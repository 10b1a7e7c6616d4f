package r2r

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/r2r/internal/payload"
	"github.com/kailas-cloud/r2r/internal/transport/httpapi"
)

// DefaultMaxRuns is the number of runs Logs requests when none is given.
const DefaultMaxRuns = 100

// Health checks that the service is up.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	return call(ctx, c, "health", func(ctx context.Context) (*HealthResponse, error) {
		var out HealthResponse
		if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

// AppSettings returns the server's application settings.
func (c *Client) AppSettings(ctx context.Context) (json.RawMessage, error) {
	return call(ctx, c, "app_settings", func(ctx context.Context) (json.RawMessage, error) {
		return c.getJSON(ctx, "/app_settings", "")
	})
}

// UpdatePromptOptions are the optional fields of UpdatePrompt.
type UpdatePromptOptions struct {
	Template   string
	InputTypes map[string]string
}

// UpdatePrompt changes a named prompt template.
func (c *Client) UpdatePrompt(ctx context.Context, name string, opts *UpdatePromptOptions) (json.RawMessage, error) {
	return call(ctx, c, "update_prompt", func(ctx context.Context) (json.RawMessage, error) {
		req := payload.UpdatePromptRequest{Name: name}
		if opts != nil {
			req.Template = opts.Template
			req.InputTypes = opts.InputTypes
		}
		return c.postJSON(ctx, "/update_prompt", req)
	})
}

// Delete removes documents matching every keys[i] == values[i] predicate.
// The predicates travel as a JSON body on DELETE.
func (c *Client) Delete(ctx context.Context, keys []string, values []any) (json.RawMessage, error) {
	return call(ctx, c, "delete", func(ctx context.Context) (json.RawMessage, error) {
		if len(keys) != len(values) {
			return nil, fmt.Errorf("delete: %d keys, %d values: %w",
				len(keys), len(values), ErrArgumentCountMismatch)
		}
		if len(keys) == 0 {
			return nil, fmt.Errorf("delete: no predicates: %w", ErrInvalidArgument)
		}
		var out json.RawMessage
		err := c.doJSON(ctx, http.MethodDelete, "/delete",
			payload.DeleteRequest{Keys: keys, Values: values}, &out)
		return out, err
	})
}

// LogsOptions filter Logs. The zero value requests all log types and
// DefaultMaxRuns runs.
type LogsOptions struct {
	LogTypeFilter string
	MaxRuns       int
}

// Logs fetches recent pipeline run logs.
func (c *Client) Logs(ctx context.Context, opts *LogsOptions) (json.RawMessage, error) {
	return call(ctx, c, "logs", func(ctx context.Context) (json.RawMessage, error) {
		req := payload.LogsRequest{MaxRunsRequested: DefaultMaxRuns}
		if opts != nil {
			if opts.LogTypeFilter != "" {
				req.LogTypeFilter = Ptr(opts.LogTypeFilter)
			}
			if opts.MaxRuns > 0 {
				req.MaxRunsRequested = opts.MaxRuns
			}
		}
		return c.postJSON(ctx, "/logs", req)
	})
}

// Analytics runs server-side analyses over logs matching filters.
func (c *Client) Analytics(
	ctx context.Context, filters map[string]string, analysisTypes map[string][]string,
) (json.RawMessage, error) {
	return call(ctx, c, "analytics", func(ctx context.Context) (json.RawMessage, error) {
		return c.postJSON(ctx, "/analytics", payload.AnalyticsRequest{
			FilterCriteria: payload.FilterCriteria{Filters: filters},
			AnalysisTypes:  payload.AnalysisTypes{AnalysisTypes: analysisTypes},
		})
	})
}

// UsersOverview summarizes users. An empty userIDs means all users.
func (c *Client) UsersOverview(ctx context.Context, userIDs []string) (json.RawMessage, error) {
	return call(ctx, c, "users_overview", func(ctx context.Context) (json.RawMessage, error) {
		return c.postJSON(ctx, "/users_overview", payload.UsersOverviewRequest{UserIDs: userIDs})
	})
}

// UsersOverviewQuery is UsersOverview for servers that take the user IDs as
// repeated query parameters on GET.
//
// Deprecated: use UsersOverview.
func (c *Client) UsersOverviewQuery(ctx context.Context, userIDs []string) (json.RawMessage, error) {
	return call(ctx, c, "users_overview_query", func(ctx context.Context) (json.RawMessage, error) {
		var query string
		if len(userIDs) > 0 {
			q, err := runtime.StyleParamWithLocation("form", true, "user_ids", runtime.ParamLocationQuery, userIDs)
			if err != nil {
				return nil, fmt.Errorf("encode user_ids: %w", err)
			}
			query = q
		}
		return c.getJSON(ctx, "/users_overview", query)
	})
}

// DocumentsOverview summarizes documents, optionally restricted by
// document and user IDs.
func (c *Client) DocumentsOverview(
	ctx context.Context, documentIDs, userIDs []string,
) (json.RawMessage, error) {
	return call(ctx, c, "documents_overview", func(ctx context.Context) (json.RawMessage, error) {
		return c.postJSON(ctx, "/documents_overview", payload.DocumentsOverviewRequest{
			DocumentIDs: documentIDs,
			UserIDs:     userIDs,
		})
	})
}

// DocumentChunks returns the stored chunks of one document.
func (c *Client) DocumentChunks(ctx context.Context, documentID string) (json.RawMessage, error) {
	return call(ctx, c, "document_chunks", func(ctx context.Context) (json.RawMessage, error) {
		if documentID == "" {
			return nil, fmt.Errorf("document chunks: empty document id: %w", ErrInvalidArgument)
		}
		return c.postJSON(ctx, "/document_chunks", payload.DocumentChunksRequest{DocumentID: documentID})
	})
}

// doJSON sends in as a JSON body (none for nil) and decodes the reply into out.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	r := httpapi.Request{Method: method, Path: path}
	if in != nil {
		body, err := payload.JSON(in)
		if err != nil {
			return err
		}
		r.Body = body
	}
	return c.api.Decode(ctx, r, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in any) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.doJSON(ctx, http.MethodPost, path, in, &out)
	return out, err
}

func (c *Client) getJSON(ctx context.Context, path, rawQuery string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.api.Decode(ctx, httpapi.Request{Method: http.MethodGet, Path: path, RawQuery: rawQuery}, &out)
	return out, err
}
