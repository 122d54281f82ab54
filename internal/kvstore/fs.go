package kvstore

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const fileExt = ".json"

// FS is a Store that keeps one file per key under a directory.
type FS struct {
	root string // absolute path to the store directory

	mu      sync.Mutex
	written map[string]string // key -> digest of the last value this store wrote
}

// NewFS creates a file-system store rooted at dir, creating it if needed.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("kvstore: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("kvstore: mkdir root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("kvstore: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("kvstore: root is not a directory: %s", abs)
	}
	return &FS{root: abs, written: make(map[string]string)}, nil
}

// Root returns the absolute directory of the store.
func (f *FS) Root() string { return f.root }

func (f *FS) path(key string) (string, error) {
	if err := ValidKey(key); err != nil {
		return "", err
	}
	return filepath.Join(f.root, key+fileExt), nil
}

// Get implements Store.
func (f *FS) Get(key string) (string, bool, error) {
	p, err := f.path(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kvstore: read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set atomically replaces the file of key: tmp file -> fsync -> rename.
func (f *FS) Set(key, value string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, ".vibenotes-tmp-*")
	if err != nil {
		return fmt.Errorf("kvstore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(value); err != nil {
		return fmt.Errorf("kvstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("kvstore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("kvstore: close temp: %w", err)
	}

	// Record before the rename so a watcher never sees our own write as foreign.
	f.mu.Lock()
	f.written[key] = digest([]byte(value))
	f.mu.Unlock()

	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("kvstore: rename: %w", err)
	}
	success = true
	return nil
}

// Close implements Store.
func (f *FS) Close() error { return nil }

// foreign reports whether data for key differs from the last value this
// store wrote.
func (f *FS) foreign(key string, data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written[key] != digest(data)
}

// keyFromPath maps an absolute file path inside the root to its key.
func (f *FS) keyFromPath(p string) (string, bool) {
	if filepath.Dir(p) != f.root {
		return "", false
	}
	name := filepath.Base(p)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
		return "", false
	}
	key := strings.TrimSuffix(name, fileExt)
	if ValidKey(key) != nil {
		return "", false
	}
	return key, true
}

func digest(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
