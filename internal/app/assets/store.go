// Package assets stores entity pictures on disk under kind-scoped
// directories. Uploads get a unique stored name; records only ever reference
// the returned relative path.
package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/antoinealex/eureka-empowerment-environment/pkg/logger"
)

// ErrNotFound marks a fetch for a file absent on disk, independent of any
// database record.
var ErrNotFound = errors.New("file not found")

// ErrIntegrity marks a checksum verification mismatch.
var ErrIntegrity = errors.New("checksum comparison failed")

// UnsupportedMediaError rejects an upload whose MIME type is not allowed.
type UnsupportedMediaError struct {
	Mime string
}

func (e *UnsupportedMediaError) Error() string { return e.Mime + " not allowed" }

// Upload is an incoming file before it is stored.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Store is a filesystem-backed picture store rooted at one directory.
type Store struct {
	root    string
	allowed map[string]bool
	log     *logger.Logger
}

// New builds a store rooted at dir, accepting only the listed MIME types.
// An empty allow-list accepts nothing.
func New(dir string, allowedMime []string, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewDefault("assets")
	}
	allowed := make(map[string]bool, len(allowedMime))
	for _, m := range allowedMime {
		allowed[m] = true
	}
	return &Store{root: dir, allowed: allowed, log: log}
}

// AllowMime rejects the upload when its MIME type is outside the allow-list.
// The declared content type wins; absent one, the content is sniffed.
func (s *Store) AllowMime(up Upload) error {
	mime := up.ContentType
	if mime == "" {
		mime = http.DetectContentType(up.Data)
	}
	if !s.allowed[mime] {
		return &UnsupportedMediaError{Mime: mime}
	}
	return nil
}

// Upload stores the file under the kind's directory with a unique name and
// 0644 permissions, returning the stored name. The caller records the name
// as the entity's picture path.
func (s *Store) Upload(kind string, up Upload) (string, error) {
	dir := filepath.Join(s.root, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}

	name := uuid.NewString() + filepath.Ext(up.Filename)
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, up.Data, 0o644); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}

	s.log.WithField("kind", kind).WithField("path", name).Debug("file stored")
	return name, nil
}

// Fetch returns the stored file bytes, or ErrNotFound when the file is
// absent on disk.
func (s *Store) Fetch(kind, path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, kind, path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch %s/%s: %w", kind, path, err)
	}
	return data, nil
}

// Remove deletes the stored file. Removing an absent file is a no-op.
func (s *Store) Remove(kind, path string) error {
	err := os.Remove(filepath.Join(s.root, kind, path))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s/%s: %w", kind, path, err)
	}
	return nil
}

// Checksum returns the hex SHA-256 of the stored file contents.
func (s *Store) Checksum(kind, path string) (string, error) {
	data, err := s.Fetch(kind, path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// VerifyChecksum recomputes the file checksum and fails with ErrIntegrity on
// mismatch.
func (s *Store) VerifyChecksum(kind, path, expected string) error {
	actual, err := s.Checksum(kind, path)
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("%s/%s: %w", kind, path, ErrIntegrity)
	}
	return nil
}
