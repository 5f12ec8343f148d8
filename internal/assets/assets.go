// Package assets stores and serves the uploaded files a site can offer for
// download. The database keeps only bare filenames; this package owns the
// mapping to paths inside the upload directory.
package assets

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Store resolves asset references against a single upload directory.
type Store struct {
	dir string
}

// NewStore creates an asset store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the upload directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Resolve normalizes a stored asset reference into a concrete path and
// reports whether the file exists. An empty reference, a reference escaping
// the upload directory, or a missing file all yield exists=false; none of
// these are errors.
func (s *Store) Resolve(reference string) (path string, exists bool) {
	norm := strings.TrimSpace(strings.ReplaceAll(reference, `\`, "/"))
	if norm == "" {
		return "", false
	}

	path = filepath.Join(s.dir, filepath.Base(norm))
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return path, false
	}
	return path, true
}

// Open opens a resolved asset path for reading.
func (s *Store) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Save streams an upload into the store under a sanitized name and returns
// the name to persist.
func (s *Store) Save(originalName string, r io.Reader) (string, error) {
	name := SafeName(originalName)
	if name == "" {
		return "", fmt.Errorf("empty asset name")
	}

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create asset file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write asset file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close asset file: %w", err)
	}
	return name, nil
}

// Remove deletes a stored asset. References outside the upload directory or
// already-missing files are ignored.
func (s *Store) Remove(reference string) {
	path, exists := s.Resolve(reference)
	if !exists {
		return
	}
	_ = os.Remove(path)
}

// SafeName strips any path components a browser may have attached to an
// upload name and replaces spaces.
func SafeName(original string) string {
	name := strings.ReplaceAll(original, `\`, "/")
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// MIMEType infers the content type to serve an asset with. Video extensions
// get a video type, Android packages their install type, and everything else
// a generic binary type.
func MIMEType(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".mp4"),
		strings.HasSuffix(lower, ".webm"),
		strings.HasSuffix(lower, ".ogg"):
		if mt := mime.TypeByExtension(filepath.Ext(lower)); mt != "" {
			return mt
		}
		return "video/mp4"
	case strings.HasSuffix(lower, ".apk"):
		return "application/vnd.android.package-archive"
	default:
		return "application/octet-stream"
	}
}
