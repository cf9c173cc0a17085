package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DiskStore persists uploaded KYC documents on the local filesystem under a
// single directory. Stored names are generated, never caller-controlled, so
// a crafted original filename cannot escape the directory.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save writes the content under a generated unique filename and returns the
// stored name plus its path. The original extension is kept for reviewers.
func (s *DiskStore) Save(originalName string, content io.Reader) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	filename := uuid.NewString() + ext
	path := filepath.Join(s.dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("store document: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("store document: %w", err)
	}
	return filename, path, nil
}

// Open returns a reader for a previously stored filename. The name is
// reduced to its base component before joining, as a second line of defense
// against traversal.
func (s *DiskStore) Open(filename string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.dir, filepath.Base(filename)))
}
