package gallery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/teslashibe/go-follow/internal/log"
)

// cacheVersion is bumped whenever the on-disk layout changes.
const cacheVersion = 1

// cacheRecord is the cached encoding of one reference image.
// An empty Descriptor records an image in which no face was found.
type cacheRecord struct {
	Size       int64      `msgpack:"size"`
	ModTime    int64      `msgpack:"mtime"`
	Descriptor Descriptor `msgpack:"descriptor"`
}

type cacheFile struct {
	Version int                    `msgpack:"version"`
	Backend string                 `msgpack:"backend"`
	Records map[string]cacheRecord `msgpack:"records"`
}

// Cache persists reference image descriptors between runs so unchanged
// images are not re-encoded. Records are keyed by file name and invalidated
// by size or modification time changes. Descriptors from one backend are
// never served to another.
type Cache struct {
	path    string
	backend string

	mu      sync.Mutex
	records map[string]cacheRecord
	dirty   bool
}

// OpenCache loads the cache at path for the given encoder backend.
// A missing, unreadable, or foreign cache starts empty.
func OpenCache(path, backend string) *Cache {
	c := &Cache{
		path:    path,
		backend: backend,
		records: make(map[string]cacheRecord),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Component("gallery").Warn("descriptor cache unreadable, starting empty", "path", path, "error", err)
		}
		return c
	}

	var f cacheFile
	if err := msgpack.Unmarshal(data, &f); err != nil {
		log.Component("gallery").Warn("descriptor cache corrupt, starting empty", "path", path, "error", err)
		return c
	}
	if f.Version != cacheVersion || f.Backend != backend {
		log.Component("gallery").Info("descriptor cache from another backend or version, ignoring",
			"path", path, "backend", f.Backend, "version", f.Version)
		return c
	}
	if f.Records != nil {
		c.records = f.Records
	}
	return c
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

func (c *Cache) lookup(name string, info fs.FileInfo) (Descriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[name]
	if !ok || rec.Size != info.Size() || rec.ModTime != info.ModTime().UnixNano() {
		return nil, false
	}
	return rec.Descriptor, true
}

func (c *Cache) store(name string, info fs.FileInfo, desc Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records[name] = cacheRecord{
		Size:       info.Size(),
		ModTime:    info.ModTime().UnixNano(),
		Descriptor: desc.Clone(),
	}
	c.dirty = true
}

// retain drops records for files no longer in the reference directory.
func (c *Cache) retain(names []string) int {
	keep := make(map[string]struct{}, len(names))
	for _, n := range names {
		keep[n] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for name := range c.records {
		if _, ok := keep[name]; !ok {
			delete(c.records, name)
			dropped++
		}
	}
	if dropped > 0 {
		c.dirty = true
	}
	return dropped
}

// Save writes the cache if anything changed since it was opened.
// The file is replaced atomically.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}

	data, err := msgpack.Marshal(cacheFile{
		Version: cacheVersion,
		Backend: c.backend,
		Records: c.records,
	})
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}

	tmp := fmt.Sprintf("%s.%d.tmp", c.path, time.Now().UnixNano())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace cache: %w", err)
	}

	c.dirty = false
	return nil
}
