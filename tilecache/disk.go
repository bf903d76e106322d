package tilecache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// evictTarget is the fraction of the size limit eviction shrinks to, so
// evictions run in batches instead of one per Set
const evictTarget = 0.9

// DiskCache persists encoded tiles on disk, evicting least-recently-used
// entries in the background when the size limit is exceeded. It backs
// the in-memory Cache so tiles survive restarts. File paths derive from
// the key hash, so tiles written by a previous run are found again.
type DiskCache struct {
	baseDir string
	maxSize int64

	mu    sync.RWMutex
	index map[string]*diskEntry // keyed by file path

	currSize atomic.Int64
	evictCh  chan struct{}
	done     chan struct{}
}

type diskEntry struct {
	size   int64
	access time.Time
}

// NewDisk opens (or creates) a disk cache rooted at baseDir with the
// given size limit
func NewDisk(baseDir string, maxSizeMB int) (*DiskCache, error) {
	if maxSizeMB <= 0 {
		return nil, fmt.Errorf("tilecache: disk size limit must be positive, got %d", maxSizeMB)
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("tilecache: creating cache directory: %w", err)
	}

	c := &DiskCache{
		baseDir: baseDir,
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		index:   make(map[string]*diskEntry),
		evictCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	if err := c.loadIndex(); err != nil {
		return nil, err
	}
	go c.evictionWorker()

	log.Printf("[DiskCache] opened %s: %d tiles, %.1f MB",
		baseDir, len(c.index), float64(c.currSize.Load())/1024/1024)
	return c, nil
}

// filePath hashes the key into a two-level path, sidestepping filesystem
// naming limits
func (c *DiskCache) filePath(key string) string {
	hash := sha256.Sum256([]byte(key))
	hashStr := hex.EncodeToString(hash[:])
	return filepath.Join(c.baseDir, hashStr[:2], hashStr+".tile")
}

// Get returns the stored bytes for a key. A missing or unreadable file
// drops the entry.
func (c *DiskCache) Get(key string) ([]byte, bool) {
	path := c.filePath(key)

	c.mu.RLock()
	entry, ok := c.index[path]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.mu.Lock()
		if cur, still := c.index[path]; still && cur == entry {
			delete(c.index, path)
			c.currSize.Add(-entry.size)
		}
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	entry.access = time.Now()
	c.mu.Unlock()
	return data, true
}

// Set stores bytes for a key, scheduling eviction when over the limit
func (c *DiskCache) Set(key string, data []byte) error {
	path := c.filePath(key)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("tilecache: creating cache subdirectory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("tilecache: writing cache file: %w", err)
	}

	entry := &diskEntry{size: int64(len(data)), access: time.Now()}

	c.mu.Lock()
	if old, ok := c.index[path]; ok {
		c.currSize.Add(-old.size)
	}
	c.index[path] = entry
	c.mu.Unlock()
	c.currSize.Add(entry.size)

	if c.currSize.Load() > c.maxSize {
		select {
		case c.evictCh <- struct{}{}:
		default:
		}
	}
	return nil
}

// Stats returns the entry count and byte sizes
func (c *DiskCache) Stats() (entries int, sizeBytes, maxBytes int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.index), c.currSize.Load(), c.maxSize
}

// Clear removes every cached tile
func (c *DiskCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for path := range c.index {
		os.Remove(path)
		delete(c.index, path)
	}
	c.currSize.Store(0)
	return nil
}

// Close stops the eviction worker
func (c *DiskCache) Close() {
	close(c.done)
}

func (c *DiskCache) evictionWorker() {
	for {
		select {
		case <-c.done:
			return
		case <-c.evictCh:
			c.evict()
		}
	}
}

// evict removes least-recently-used entries until the cache is below the
// eviction target
func (c *DiskCache) evict() {
	target := int64(float64(c.maxSize) * evictTarget)

	type candidate struct {
		path   string
		access time.Time
	}
	c.mu.RLock()
	candidates := make([]candidate, 0, len(c.index))
	for path, entry := range c.index {
		candidates = append(candidates, candidate{path: path, access: entry.access})
	}
	c.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].access.Before(candidates[j].access)
	})

	removed := 0
	for _, cand := range candidates {
		if c.currSize.Load() <= target {
			break
		}
		c.mu.Lock()
		entry, ok := c.index[cand.path]
		if ok {
			delete(c.index, cand.path)
		}
		c.mu.Unlock()
		if !ok {
			continue
		}
		os.Remove(cand.path)
		c.currSize.Add(-entry.size)
		removed++
	}
	if removed > 0 {
		log.Printf("[DiskCache] evicted %d tiles, now %.1f MB",
			removed, float64(c.currSize.Load())/1024/1024)
	}
}

// loadIndex rebuilds the index from the files already on disk. Access
// times start at the file modification time.
func (c *DiskCache) loadIndex() error {
	return filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || filepath.Ext(path) != ".tile" {
			return nil
		}
		c.index[path] = &diskEntry{size: info.Size(), access: info.ModTime()}
		c.currSize.Add(info.Size())
		return nil
	})
}
