package datasource

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Cache is a file-backed response cache for filing providers. Entries expire
// by file modification time, so a restart keeps warm data without any index.
type Cache struct {
	cacheDir string
	ttl      time.Duration
	mu       sync.RWMutex
}

// CacheEntry is one cached response
type CacheEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// NewCache creates a cache rooted at cacheDir
func NewCache(cacheDir string, ttl time.Duration) *Cache {
	if cacheDir == "" {
		cacheDir = ".cache/filings"
	}

	os.MkdirAll(cacheDir, 0755)

	return &Cache{
		cacheDir: cacheDir,
		ttl:      ttl,
	}
}

// Get retrieves an item from cache
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cacheFile := c.cacheFilePath(key)

	info, err := os.Stat(cacheFile)
	if err != nil {
		return nil, false
	}

	if time.Since(info.ModTime()) > c.ttl {
		os.Remove(cacheFile)
		return nil, false
	}

	data, err := os.ReadFile(cacheFile)
	if err != nil {
		return nil, false
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}

	return entry.Data, true
}

// Set stores an item in cache
func (c *Cache) Set(key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := CacheEntry{
		Key:       key,
		Data:      data,
		Timestamp: time.Now(),
	}

	entryData, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return os.WriteFile(c.cacheFilePath(key), entryData, 0644)
}

// Clear removes all cache entries
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return os.RemoveAll(c.cacheDir)
}

// CleanupExpired removes expired cache entries
func (c *Cache) CleanupExpired() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if time.Since(info.ModTime()) > c.ttl {
			os.Remove(filepath.Join(c.cacheDir, entry.Name()))
		}
	}

	return nil
}

func (c *Cache) cacheFilePath(key string) string {
	hash := md5.Sum([]byte(key))
	return filepath.Join(c.cacheDir, fmt.Sprintf("%x.json", hash))
}

// GetOrFetch returns the cached value for key, calling fetchFn on a miss.
// A failed cache write never fails the fetch.
func (c *Cache) GetOrFetch(key string, fetchFn func() ([]byte, error)) ([]byte, error) {
	if data, ok := c.Get(key); ok {
		return data, nil
	}

	data, err := fetchFn()
	if err != nil {
		return nil, err
	}

	c.Set(key, data)

	return data, nil
}

// MakeKey builds a cache key from parts
func MakeKey(parts ...string) string {
	return strings.Join(parts, "|")
}
