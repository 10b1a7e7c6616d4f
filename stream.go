package r2r

import (
	"io"
	"iter"
	"strings"

	"github.com/kailas-cloud/r2r/internal/domain"
	"github.com/kailas-cloud/r2r/internal/stream"
)

// Stream is an open streamed response. Chunks are decoded UTF-8 text in
// arrival order. A Stream is not safe for concurrent use, except that Close
// may be called from another goroutine to abort a blocked read.
//
//	defer s.Close()
//	for s.Next() {
//		fmt.Print(s.Text())
//	}
//	if err := s.Err(); err != nil { ... }
type Stream struct {
	dec    *stream.Decoder
	method string
	path   string
}

func newStream(body io.ReadCloser, method, path string) *Stream {
	return &Stream{dec: stream.NewDecoder(body), method: method, path: path}
}

// Next advances to the next chunk. It returns false at end of stream, on
// error, or after Close.
func (s *Stream) Next() bool { return s.dec.Next() }

// Text returns the current chunk.
func (s *Stream) Text() string { return s.dec.Text() }

// Err returns the error that ended the stream, or nil on clean end.
// Read failures are wrapped in *TransportError.
func (s *Stream) Err() error {
	err := s.dec.Err()
	if err == nil {
		return nil
	}
	return &domain.TransportError{Method: s.method, Path: s.path, Err: err}
}

// Close releases the response body. Safe to call more than once.
func (s *Stream) Close() error { return s.dec.Close() }

// Chunks yields every chunk, then a final non-nil error if the stream failed.
// Breaking out of the loop closes the stream.
func (s *Stream) Chunks() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		defer s.Close()
		for s.Next() {
			if !yield(s.Text(), nil) {
				return
			}
		}
		if err := s.Err(); err != nil {
			yield("", err)
		}
	}
}

// WriteTo copies all chunks to w and closes the stream.
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for chunk, err := range s.Chunks() {
		if err != nil {
			return n, err
		}
		m, werr := io.WriteString(w, chunk)
		n += int64(m)
		if werr != nil {
			return n, werr
		}
	}
	return n, nil
}

// Collect reads the whole stream into a string and closes it.
func (s *Stream) Collect() (string, error) {
	var b strings.Builder
	_, err := s.WriteTo(&b)
	return b.String(), err
}
