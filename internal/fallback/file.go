// internal/fallback/file.go
package fallback

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"admission-checker/internal/common/errors"
)

// FileCache keeps one JSON object per university, degree -> verdict, under dir.
type FileCache struct {
	dir string
	mu  sync.Mutex
}

func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

func (c *FileCache) path(university string) string {
	return filepath.Join(c.dir, university+"_cache.json")
}

func (c *FileCache) Get(ctx context.Context, university, degree string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.load(university)
	if err != nil {
		return "", false, err
	}
	v, ok := entries[degree]
	return v, ok, nil
}

func (c *FileCache) Put(ctx context.Context, university, degree, verdict string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.load(university)
	if err != nil {
		// an unreadable file is replaced rather than blocking new verdicts
		entries = map[string]string{}
	}
	entries[degree] = verdict
	return c.store(university, entries)
}

// load returns an empty map when the file does not exist yet.
func (c *FileCache) load(university string) (map[string]string, error) {
	data, err := os.ReadFile(c.path(university))
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, errors.NewCacheUnavailableError("file", err)
	}
	entries := map[string]string{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.NewCacheUnavailableError("file", fmt.Errorf("decode %s: %w", c.path(university), err))
	}
	return entries, nil
}

func (c *FileCache) store(university string, entries map[string]string) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return errors.NewCacheUnavailableError("file", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.NewCacheUnavailableError("file", err)
	}

	tmp, err := os.CreateTemp(c.dir, university+"-*.tmp")
	if err != nil {
		return errors.NewCacheUnavailableError("file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.NewCacheUnavailableError("file", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewCacheUnavailableError("file", err)
	}
	if err := os.Rename(tmp.Name(), c.path(university)); err != nil {
		return errors.NewCacheUnavailableError("file", err)
	}
	return nil
}
