// Package storage keeps uploaded photo files on local disk.
//
// Files are written under one upload directory with a random name
// (`<uuid>.<ext>`) and published by the server under a URL prefix
// (`/uploads/<uuid>.<ext>`). The database stores only the URL; this package
// is the only code that maps a URL back to a file.
package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/sakif/travel-journal/internal/apperror"
)

// URLPrefix is the public path uploaded files are served under.
const URLPrefix = "/uploads/"

// allowedTypes maps the sniffed content type to the stored file extension.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// StoredFile describes a file written by Save.
type StoredFile struct {
	Name        string
	URL         string
	ContentType string
	Size        int64
}

// LocalStore writes photo files into a directory.
type LocalStore struct {
	dir      string
	maxBytes int64
}

// NewLocalStore creates the upload directory if needed.
func NewLocalStore(dir string, maxBytes int64) (*LocalStore, error) {
	if maxBytes <= 0 {
		return nil, errors.New("storage: max upload size must be positive")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating upload dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the directory files are stored in.
func (s *LocalStore) Dir() string {
	return s.dir
}

// MaxBytes returns the largest accepted file size.
func (s *LocalStore) MaxBytes() int64 {
	return s.maxBytes
}

// Save streams r to a new file.
//
// The content type is sniffed from the first 512 bytes, never taken from the
// client. Anything but JPEG, PNG, GIF or WebP is a validation error, and a
// body over the size limit is a TooLarge error; in both cases nothing is left
// on disk.
func (s *LocalStore) Save(ctx context.Context, r io.Reader) (StoredFile, error) {
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return StoredFile{}, fmt.Errorf("storage: reading upload: %w", err)
	}
	if len(head) == 0 {
		return StoredFile{}, apperror.ValidationFailed("file", "file is empty")
	}

	contentType := http.DetectContentType(head)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return StoredFile{}, apperror.ValidationFailed("file",
			fmt.Sprintf("unsupported file type %s (allowed: jpeg, png, gif, webp)", contentType))
	}

	if err := ctx.Err(); err != nil {
		return StoredFile{}, err
	}

	name := uuid.NewString() + ext
	full := filepath.Join(s.dir, name)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return StoredFile{}, fmt.Errorf("storage: creating %s: %w", name, err)
	}

	// Read one byte past the limit to tell "exactly max" from "too big".
	n, copyErr := io.Copy(f, io.LimitReader(br, s.maxBytes+1))
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		os.Remove(full)
		return StoredFile{}, fmt.Errorf("storage: writing %s: %w", name, copyErr)
	case closeErr != nil:
		os.Remove(full)
		return StoredFile{}, fmt.Errorf("storage: closing %s: %w", name, closeErr)
	case n > s.maxBytes:
		os.Remove(full)
		return StoredFile{}, apperror.TooLarge(
			fmt.Sprintf("file exceeds the %d byte upload limit", s.maxBytes))
	}

	return StoredFile{
		Name:        name,
		URL:         URLPrefix + name,
		ContentType: contentType,
		Size:        n,
	}, nil
}

// Remove deletes the file behind a URL produced by Save. URLs that do not
// point into the upload directory (external links, traversal attempts) are
// ignored, and a file that is already gone is not an error.
func (s *LocalStore) Remove(url string) error {
	name, ok := s.nameFromURL(url)
	if !ok {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: removing %s: %w", name, err)
	}
	return nil
}

// IsLocal reports whether url refers to a file managed by this store.
func (s *LocalStore) IsLocal(url string) bool {
	_, ok := s.nameFromURL(url)
	return ok
}

func (s *LocalStore) nameFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, URLPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(url, URLPrefix)
	if name == "" || name != path.Base(name) || strings.ContainsAny(name, `/\`) || name == ".." {
		return "", false
	}
	return name, true
}
