// Package cache stores provisioned Java runtime directories. Entries are
// keyed deterministically by (source, major version, os key, arch key) and
// are never mutated in place: a runtime directory is created once and only
// ever wholly replaced on an explicit re-provision.
package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Key identifies one runtime cache entry.
type Key struct {
	Source  string // "mojang" or "adoptium"
	Major   int
	OSKey   string
	ArchKey string
}

func (k Key) String() string {
	return fmt.Sprintf("%s-%d-%s-%s", k.Source, k.Major, k.OSKey, k.ArchKey)
}

// RuntimeCache is a file-backed cache of extracted runtimes.
type RuntimeCache struct {
	baseDir string
	mu      sync.RWMutex
}

// New creates a cache rooted at baseDir, defaulting to
// ~/.lodestone/runtimes when baseDir is empty.
func New(baseDir string) (*RuntimeCache, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".lodestone", "runtimes")
	}

	if err := os.MkdirAll(baseDir, 0750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	return &RuntimeCache{baseDir: baseDir}, nil
}

// Path returns the directory a key maps to, whether or not it exists.
func (c *RuntimeCache) Path(key Key) string {
	return filepath.Join(c.baseDir, key.String())
}

// Get returns the cached runtime directory for key if one exists.
func (c *RuntimeCache) Get(key Key) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	path := c.Path(key)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path, true
	}
	return "", false
}

// Set moves an extracted runtime tree into the cache slot for key,
// replacing any previous entry.
func (c *RuntimeCache) Set(key Key, dir string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cachePath := c.Path(key)
	if err := os.RemoveAll(cachePath); err != nil {
		return "", fmt.Errorf("clearing cache slot: %w", err)
	}

	if dir != cachePath {
		if err := os.Rename(dir, cachePath); err != nil {
			// Rename fails across filesystems; fall back to a copy.
			if err := copyDir(dir, cachePath); err != nil {
				return "", fmt.Errorf("moving to cache: %w", err)
			}
			_ = os.RemoveAll(dir)
		}
	}
	return cachePath, nil
}

// Evict removes the entry for key so a subsequent provision starts from
// scratch. Missing entries are not an error.
func (c *RuntimeCache) Evict(key Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(c.Path(key))
}

// Clear removes every cached runtime.
func (c *RuntimeCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(c.baseDir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// List returns the directory names of all cached runtimes.
func (c *RuntimeCache) List() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src) // #nosec G304 - paths stay inside the cache tree
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode) // #nosec G304
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
