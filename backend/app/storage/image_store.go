// Package storage keeps uploaded article images on a filesystem and serves
// them back under a public URL prefix.
package storage

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var ErrUnsupportedType = errors.New("unsupported image content type")

// allowedTypes maps every accepted upload content type to the extension the
// stored file gets.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/tif":  ".tif",
}

// Allowed reports whether contentType is one of the accepted image types.
// Parameters such as "; charset=..." are ignored.
func Allowed(contentType string) bool {
	_, ok := allowedTypes[normalize(contentType)]
	return ok
}

func normalize(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// Upload is an image attached to a request.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type ImageStore struct {
	fs     afero.Fs
	dir    string
	prefix string
}

func NewImageStore(fs afero.Fs, dir, publicPrefix string) (*ImageStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ImageStore{fs: fs, dir: dir, prefix: "/" + strings.Trim(publicPrefix, "/")}, nil
}

// Save writes the upload under a generated name and returns its public path.
// The client's file name is never used on disk.
func (s *ImageStore) Save(up Upload) (string, error) {
	ext, ok := allowedTypes[normalize(up.ContentType)]
	if !ok {
		return "", ErrUnsupportedType
	}
	name := uuid.NewString() + ext
	full := filepath.Join(s.dir, name)
	f, err := s.fs.Create(full)
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	if _, err := io.Copy(f, up.Body); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(full)
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(full)
		return "", fmt.Errorf("close image: %w", err)
	}
	return path.Join(s.prefix, name), nil
}

// Remove deletes a file previously returned by Save. Paths outside the
// public prefix are ignored.
func (s *ImageStore) Remove(publicPath string) error {
	if publicPath == "" || !strings.HasPrefix(publicPath, s.prefix+"/") {
		return nil
	}
	err := s.fs.Remove(filepath.Join(s.dir, path.Base(publicPath)))
	if err != nil && !errors.Is(err, afero.ErrFileNotFound) {
		return err
	}
	return nil
}

func (s *ImageStore) Prefix() string { return s.prefix }

// Handler serves stored images; directory listings are not exposed.
func (s *ImageStore) Handler() http.Handler {
	files := http.StripPrefix(s.prefix+"/", http.FileServer(afero.NewHttpFs(s.fs).Dir(s.dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
