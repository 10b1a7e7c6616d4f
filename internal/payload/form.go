package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
)

// Form assembles a multipart/form-data body without buffering file contents.
// Part headers and small fields are rendered into memory segments and file
// readers are spliced in between, so each file is read once, while the
// transport consumes the body.
type Form struct {
	mw      *multipart.Writer
	cur     *bytes.Buffer
	parts   []io.Reader
	closers []io.Closer
	err     error
}

// NewForm creates an empty form.
func NewForm() *Form {
	f := &Form{cur: new(bytes.Buffer)}
	f.mw = multipart.NewWriter(segmentWriter{f})
	return f
}

// segmentWriter routes multipart.Writer output into the current memory segment.
type segmentWriter struct{ f *Form }

func (w segmentWriter) Write(p []byte) (int, error) {
	return w.f.cur.Write(p) //nolint:wrapcheck // bytes.Buffer never fails
}

// File appends a file part. If r is an io.Closer it is closed with the body.
func (f *Form) File(field, filename string, r io.Reader) {
	if c, ok := r.(io.Closer); ok {
		f.closers = append(f.closers, c)
	}
	if f.err != nil {
		return
	}
	if _, err := f.mw.CreateFormFile(field, filename); err != nil {
		f.err = fmt.Errorf("create part %q: %w", field, err)
		return
	}
	f.flush()
	f.parts = append(f.parts, r)
}

// Field appends a plain text field.
func (f *Form) Field(field, value string) {
	if f.err != nil {
		return
	}
	if err := f.mw.WriteField(field, value); err != nil {
		f.err = fmt.Errorf("write field %q: %w", field, err)
	}
}

// JSON appends a field whose value is the JSON encoding of v.
func (f *Form) JSON(field string, v any) {
	if f.err != nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		f.err = fmt.Errorf("encode field %q: %w", field, err)
		return
	}
	f.Field(field, string(data))
}

// Body finalizes the form. On error every attached file is closed.
func (f *Form) Body() (*Body, error) {
	if f.err == nil {
		if err := f.mw.Close(); err != nil {
			f.err = fmt.Errorf("close form: %w", err)
		}
	}
	b := &Body{closers: f.closers, size: -1}
	if f.err != nil {
		_ = b.Close()
		return nil, f.err
	}
	f.flush()
	b.ContentType = f.mw.FormDataContentType()
	b.r = io.MultiReader(f.parts...)
	return b, nil
}

// Abort closes every file attached so far.
func (f *Form) Abort() {
	b := &Body{closers: f.closers}
	_ = b.Close()
	f.closers = nil
}

func (f *Form) flush() {
	if f.cur.Len() == 0 {
		return
	}
	f.parts = append(f.parts, bytes.NewReader(f.cur.Bytes()))
	f.cur = new(bytes.Buffer)
}
