// Package stream turns a live response body into a sequence of UTF-8 text chunks.
package stream

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const defaultBufSize = 32 * 1024

// Decoder reads a byte stream and yields one decoded text chunk per
// underlying read. Invalid byte sequences become U+FFFD; a multibyte rune
// split across reads is carried over to the next chunk.
//
// Server framing is opaque at this layer: end of data is io.EOF from the body.
//
// Next, Text and Err belong to the reading goroutine. Close may be called
// from any goroutine and unblocks a pending Next.
type Decoder struct {
	body    io.ReadCloser
	dec     transform.Transformer
	buf     []byte
	carry   []byte
	text    string
	err     error
	pending error
	done    bool

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewDecoder wraps body. The decoder owns body and closes it on Close or at end of stream.
func NewDecoder(body io.ReadCloser) *Decoder {
	return NewDecoderSize(body, defaultBufSize)
}

// NewDecoderSize is NewDecoder with an explicit read buffer size.
func NewDecoderSize(body io.ReadCloser, size int) *Decoder {
	if size <= 0 {
		size = defaultBufSize
	}
	return &Decoder{
		body: body,
		dec:  unicode.UTF8.NewDecoder(),
		buf:  make([]byte, size),
	}
}

// Next advances to the next chunk. It returns false at end of stream or on
// error; Err distinguishes the two.
func (d *Decoder) Next() bool {
	for !d.done {
		if d.closed.Load() {
			d.done = true
			d.text = ""
			return false
		}
		if d.pending != nil {
			return d.finish(d.pending)
		}

		n, err := d.body.Read(d.buf)
		if d.closed.Load() {
			// Read was aborted by Close; its error is not a stream failure.
			d.done = true
			d.text = ""
			return false
		}
		if err != nil {
			d.pending = err
		}
		if n == 0 {
			continue
		}
		if text := d.decode(d.buf[:n], false); text != "" {
			d.text = text
			return true
		}
	}
	return false
}

// finish handles the terminal read result, flushing any carried bytes.
func (d *Decoder) finish(err error) bool {
	d.done = true
	d.text = ""
	if !errors.Is(err, io.EOF) {
		d.err = err
		_ = d.Close()
		return false
	}
	_ = d.Close()
	if len(d.carry) > 0 {
		d.text = d.decode(nil, true)
		return d.text != ""
	}
	return false
}

// Text returns the current chunk.
func (d *Decoder) Text() string { return d.text }

// Err returns the first non-EOF error encountered.
func (d *Decoder) Err() error { return d.err }

// Close releases the underlying body. Safe to call more than once.
func (d *Decoder) Close() error {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		d.closeErr = d.body.Close()
	})
	return d.closeErr //nolint:wrapcheck // caller wraps
}

// decode converts carry+src to text, keeping an incomplete trailing rune unless atEOF.
func (d *Decoder) decode(src []byte, atEOF bool) string {
	in := src
	if len(d.carry) > 0 {
		in = append(d.carry, src...)
		d.carry = nil
	}
	// Worst case every byte becomes a 3-byte U+FFFD.
	dst := make([]byte, len(in)*3)
	nDst, nSrc, err := d.dec.Transform(dst, in, atEOF)
	if errors.Is(err, transform.ErrShortSrc) && nSrc < len(in) {
		d.carry = append([]byte(nil), in[nSrc:]...)
	}
	return string(dst[:nDst])
}
