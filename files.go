package r2r

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSystem opens path-based uploads.
type FileSystem interface {
	Open(name string) (io.ReadCloser, error)
}

// OSFileSystem reads from local disk.
type OSFileSystem struct{}

// Open implements FileSystem.
func (OSFileSystem) Open(name string) (io.ReadCloser, error) {
	return os.Open(name) //nolint:gosec // caller-chosen upload path
}

// NoFileSystem rejects path-based uploads. Use it where local disk access
// is unavailable; reader-based uploads still work.
type NoFileSystem struct{}

// Open implements FileSystem.
func (NoFileSystem) Open(name string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("open %q: %w", name, ErrUnsupportedEnvironment)
}

// Upload is one file to send. Exactly one of Path or Reader is set.
type Upload struct {
	// Name is the filename sent to the server. Defaults to the base of Path.
	Name   string
	Path   string
	Reader io.Reader
}

// FileFromPath uploads a file from the client's FileSystem.
func FileFromPath(path string) Upload {
	return Upload{Name: filepath.Base(path), Path: path}
}

// FileFromReader uploads in-memory or streamed content.
// If r is an io.Closer it is closed once the request finishes.
func FileFromReader(name string, r io.Reader) Upload {
	return Upload{Name: name, Reader: r}
}

func (u Upload) validate() error {
	switch {
	case u.Path == "" && u.Reader == nil:
		return fmt.Errorf("upload %q: no path or reader: %w", u.Name, ErrInvalidUpload)
	case u.Path != "" && u.Reader != nil:
		return fmt.Errorf("upload %q: both path and reader set: %w", u.Name, ErrInvalidUpload)
	case u.Reader != nil && u.Name == "":
		return fmt.Errorf("upload: reader without name: %w", ErrInvalidUpload)
	}
	return nil
}

func (u Upload) filename() string {
	if u.Name != "" {
		return u.Name
	}
	return filepath.Base(u.Path)
}

// open resolves the upload to a reader using fs.
func (u Upload) open(fs FileSystem) (io.Reader, error) {
	if u.Reader != nil {
		return u.Reader, nil
	}
	f, err := fs.Open(u.Path)
	if err != nil {
		return nil, err
	}
	return f, nil
}
