package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ContentTypeJSON is the content type of every non-multipart body.
const ContentTypeJSON = "application/json"

// Body is an assembled request body together with its content type.
// Closing it releases any file handles the body streams from.
type Body struct {
	ContentType string

	r       io.Reader
	closers []io.Closer
	size    int64 // -1 when unknown
}

// Read implements io.Reader.
func (b *Body) Read(p []byte) (int, error) {
	return b.r.Read(p) //nolint:wrapcheck // body reader is passed through to net/http
}

// Close releases the readers backing the body. Safe to call more than once.
func (b *Body) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// Len returns the body length, or -1 when it is only known after streaming.
func (b *Body) Len() int64 { return b.size }

// JSON marshals v into a JSON body.
func JSON(v any) (*Body, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return &Body{
		ContentType: ContentTypeJSON,
		r:           bytes.NewReader(data),
		size:        int64(len(data)),
	}, nil
}
