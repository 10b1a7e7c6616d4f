package r2r

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/r2r/internal/payload"
	"github.com/kailas-cloud/r2r/internal/transport/httpapi"
)

// IngestFilesOptions are the optional form fields of IngestFiles.
// Nil fields are not sent; supplied ones are sent JSON-encoded.
type IngestFilesOptions struct {
	// Metadatas is index-aligned with the files. Missing or nil entries
	// are sent as {}; entries past the last file are dropped.
	Metadatas        []map[string]any
	DocumentIDs      []string
	UserIDs          []string
	Versions         []string
	SkipDocumentInfo *bool
}

// UpdateFilesOptions are the form fields of UpdateFiles.
type UpdateFilesOptions struct {
	// DocumentIDs must have one entry per file.
	DocumentIDs []string
	// Metadatas is index-aligned with the files. Missing or nil entries
	// are sent as {}; entries past the last file are dropped.
	Metadatas []map[string]any
}

// IngestDocumentsOptions are the optional fields of IngestDocuments.
type IngestDocumentsOptions struct {
	Versions         []string
	SkipDocumentInfo *bool
}

// IngestFiles uploads files as multipart/form-data to /ingest_files.
// The result is server-defined and returned raw.
func (c *Client) IngestFiles(
	ctx context.Context, files []Upload, opts *IngestFilesOptions,
) (json.RawMessage, error) {
	return call(ctx, c, "ingest_files", func(ctx context.Context) (json.RawMessage, error) {
		if opts == nil {
			opts = &IngestFilesOptions{}
		}
		if err := validateUploads(files); err != nil {
			return nil, err
		}

		form, err := c.openFiles(files)
		if err != nil {
			return nil, err
		}
		if opts.Metadatas != nil {
			form.JSON("metadatas", padMetadatas(opts.Metadatas, len(files)))
		}
		if opts.DocumentIDs != nil {
			form.JSON("document_ids", opts.DocumentIDs)
		}
		if opts.UserIDs != nil {
			form.JSON("user_ids", opts.UserIDs)
		}
		if opts.Versions != nil {
			form.JSON("versions", opts.Versions)
		}
		if opts.SkipDocumentInfo != nil {
			form.JSON("skip_document_info", *opts.SkipDocumentInfo)
		}
		return c.sendForm(ctx, "/ingest_files", form)
	})
}

// UpdateFiles replaces existing documents with new file contents.
// len(files) must equal len(opts.DocumentIDs); otherwise it fails with
// ErrArgumentCountMismatch before any file is opened or request sent.
func (c *Client) UpdateFiles(
	ctx context.Context, files []Upload, opts UpdateFilesOptions,
) (json.RawMessage, error) {
	return call(ctx, c, "update_files", func(ctx context.Context) (json.RawMessage, error) {
		if len(files) != len(opts.DocumentIDs) {
			return nil, fmt.Errorf("update files: %d files, %d document ids: %w",
				len(files), len(opts.DocumentIDs), ErrArgumentCountMismatch)
		}
		if err := validateUploads(files); err != nil {
			return nil, err
		}

		form, err := c.openFiles(files)
		if err != nil {
			return nil, err
		}
		form.JSON("document_ids", opts.DocumentIDs)
		form.JSON("metadatas", padMetadatas(opts.Metadatas, len(files)))
		return c.sendForm(ctx, "/update_files", form)
	})
}

// IngestDocuments sends documents as JSON to /ingest_documents.
func (c *Client) IngestDocuments(
	ctx context.Context, docs []Document, opts *IngestDocumentsOptions,
) (json.RawMessage, error) {
	return call(ctx, c, "ingest_documents", func(ctx context.Context) (json.RawMessage, error) {
		req := payload.IngestDocumentsRequest{Documents: docs}
		if opts != nil {
			req.Versions = opts.Versions
			req.SkipDocumentInfo = opts.SkipDocumentInfo
		}
		return c.postJSON(ctx, "/ingest_documents", req)
	})
}

// UpdateDocuments sends replacement documents as JSON to /update_documents.
func (c *Client) UpdateDocuments(ctx context.Context, docs []Document) (json.RawMessage, error) {
	return call(ctx, c, "update_documents", func(ctx context.Context) (json.RawMessage, error) {
		return c.postJSON(ctx, "/update_documents", payload.UpdateDocumentsRequest{Documents: docs})
	})
}

func validateUploads(files []Upload) error {
	if len(files) == 0 {
		return fmt.Errorf("no files: %w", ErrInvalidArgument)
	}
	for _, u := range files {
		if err := u.validate(); err != nil {
			return err
		}
	}
	return nil
}

// openFiles resolves every upload into a "files" part. On failure the
// already opened files are closed.
func (c *Client) openFiles(files []Upload) (*payload.Form, error) {
	form := payload.NewForm()
	for _, u := range files {
		r, err := u.open(c.fs)
		if err != nil {
			form.Abort()
			return nil, fmt.Errorf("open upload: %w", err)
		}
		form.File("files", u.filename(), r)
	}
	return form, nil
}

func (c *Client) sendForm(ctx context.Context, path string, form *payload.Form) (json.RawMessage, error) {
	body, err := form.Body()
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	var out json.RawMessage
	err = c.api.Decode(ctx, httpapi.Request{Method: http.MethodPost, Path: path, Body: body}, &out)
	return out, err
}

// padMetadatas returns exactly one metadata object per file; gaps become {}
// and entries beyond n are dropped.
func padMetadatas(in []map[string]any, n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		if i < len(in) && in[i] != nil {
			out[i] = in[i]
			continue
		}
		out[i] = map[string]any{}
	}
	return out
}
