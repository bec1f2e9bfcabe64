package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Cache is a content-addressed blob store rooted at Dir.
type Cache struct {
	Dir string
}

// DefaultDir returns ~/.solaudit/cache.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".solaudit", "cache"), nil
}

// New returns a cache rooted at dir, creating it if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{Dir: dir}, nil
}

// Key computes a unique key filename using inputs (e.g., tool tag + content)
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) Load(key string) ([]byte, bool) {
	b, err := os.ReadFile(filepath.Join(c.Dir, key))
	if err != nil {
		return nil, false
	}
	return b, true
}

func (c *Cache) Store(key string, data []byte) error {
	return os.WriteFile(filepath.Join(c.Dir, key), data, 0o644)
}
