// internal/domain/upload/storage.go
package upload

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/apperr"
)

// Storage keeps uploaded images on the local filesystem. Paths handed out are
// slash-separated and relative to the storage root, so they can be stored in
// the database and served under the media prefix as-is.
type Storage struct {
	root     string
	maxBytes int64
	allowed  map[string]bool
}

// NewStorage creates a storage rooted at cfg.LocalPath
func NewStorage(cfg config.UploadConfig) *Storage {
	allowed := make(map[string]bool, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return &Storage{
		root:     cfg.LocalPath,
		maxBytes: cfg.MaxBytes,
		allowed:  allowed,
	}
}

// Root is the directory files are written under
func (s *Storage) Root() string {
	return s.root
}

// Save checks that r holds a decodable image within the size limit and
// writes it under dir with a generated name. filename only supplies the
// extension.
func (s *Storage) Save(dir, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !s.allowed[ext] {
		return "", apperr.New(apperr.KindInvalidInput, "upload", "file type %q is not allowed", ext)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", apperr.New(apperr.KindInvalidInput, "upload", "image must be at most %d bytes", s.maxBytes)
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", apperr.New(apperr.KindInvalidInput, "upload", "file is not a valid image")
	}

	rel := path.Join(dir, uuid.NewString()+"."+ext)
	full := s.fullPath(rel)

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return rel, nil
}

// Remove deletes a stored file; a file that is already gone is not an error
func (s *Storage) Remove(rel string) error {
	if err := os.Remove(s.fullPath(rel)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists reports whether rel is present in storage
func (s *Storage) Exists(rel string) bool {
	_, err := os.Stat(s.fullPath(rel))
	return err == nil
}

func (s *Storage) fullPath(rel string) string {
	// Clean against a rooted path so ".." cannot climb out of root
	return filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+rel)))
}
