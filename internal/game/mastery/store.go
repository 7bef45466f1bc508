package mastery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go

// Store loads and saves the whole mastery blob.
type Store interface {
	// Load returns the stored data, or empty data when nothing has been saved.
	Load(ctx context.Context) (Data, error)
	// Save replaces the stored data.
	Save(ctx context.Context, d Data) error
}

// FileStore keeps the mastery blob in a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore writing to path.
//
// Precondition: path must be non-empty.
func NewFileStore(path string) *FileStore {
	if path == "" {
		panic("mastery: NewFileStore precondition violated: path must be non-empty")
	}
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load reads the file. A missing file yields empty data.
func (s *FileStore) Load(_ context.Context) (Data, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Data{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", s.path, err)
	}
	return Unmarshal(b)
}

// Save writes d atomically by renaming a temporary file over the target.
func (s *FileStore) Save(_ context.Context, d Data) error {
	b, err := Marshal(d)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %q: %w", s.path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".mastery-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %q: %w", s.path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %q: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %q: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing %q: %w", s.path, err)
	}
	return nil
}
