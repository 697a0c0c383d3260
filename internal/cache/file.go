package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/config"
)

const entryExt = ".entry"

// FileStore keeps one flat file per entry under dir/<stage>/.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file cache needs a directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(stage, fingerprint string) string {
	return filepath.Join(s.dir, stage, fingerprint+entryExt)
}

func (s *FileStore) Get(_ context.Context, stage, fingerprint string) ([]byte, bool, error) {
	if err := validKey(stage, fingerprint); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.path(stage, fingerprint))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}
	return data, true, nil
}

// Put writes to a temporary file in the stage directory, fsyncs it and
// renames it over the final name.
func (s *FileStore) Put(_ context.Context, stage, fingerprint string, payload []byte) error {
	if err := validKey(stage, fingerprint); err != nil {
		return err
	}
	finalPath := s.path(stage, fingerprint)
	dir := filepath.Dir(finalPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating stage directory: %w", err)
	}
	f, err := os.CreateTemp(dir, fingerprint+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpPath := f.Name()
	if _, err := f.Write(payload); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing cache entry: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("publishing cache entry: %w", err)
	}
	return nil
}

// Purge removes the stage's entries. Temp files of in-flight writes are
// left for their writers to clean up.
func (s *FileStore) Purge(_ context.Context, stage string) (int64, error) {
	if err := validStage(stage); err != nil {
		return 0, err
	}
	entries, err := filepath.Glob(filepath.Join(s.dir, stage, "*"+entryExt))
	if err != nil {
		return 0, fmt.Errorf("listing cache entries: %w", err)
	}
	var removed int64
	for _, path := range entries {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("removing cache entry: %w", err)
		}
		removed++
	}
	return removed, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) Name() string { return config.BackendFS }
