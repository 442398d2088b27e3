package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docchat/internal/domain"
)

// DocumentStore keeps uploaded files in a flat directory under their original
// base name. Saving a name that already exists overwrites it; deduplication is
// the caller's concern.
type DocumentStore struct {
	dir string
}

func NewDocumentStore(dir string) *DocumentStore {
	return &DocumentStore{dir: dir}
}

func (s *DocumentStore) Dir() string {
	return s.dir
}

// Ensure creates the directory if needed.
func (s *DocumentStore) Ensure() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("%w: create documents dir: %v", domain.ErrIngestion, err)
	}
	return nil
}

// Save writes data to the store and returns the stored path.
func (s *DocumentStore) Save(name string, data []byte) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "" || base == "." || base == ".." || base == "/" {
		return "", fmt.Errorf("%w: invalid file name %q", domain.ErrIngestion, name)
	}

	if err := s.Ensure(); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, base)
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", domain.ErrIngestion, base, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("%w: write %s: %v", domain.ErrIngestion, base, err)
	}
	return path, nil
}
