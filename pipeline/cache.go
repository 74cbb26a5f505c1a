package pipeline

import (
	"encoding/binary"
	"slices"
	"sync"
	"sync/atomic"
)

// Sizes of the pipeline cache data header and of one entry after it.
const (
	CacheHeaderSize = 32
	CacheEntrySize  = 8
)

// cacheHeaderVersion is the header layout version written into cache data.
const cacheHeaderVersion = 1

// Identity identifies the device a cache's data belongs to.
type Identity struct {
	VendorID uint32
	DeviceID uint32
	UUID     [16]byte
}

// Cache remembers which pipelines have been built. It is keyed by the FNV
// hash of the pipeline description.
//
// Cache is safe for concurrent use. Lookups take a read lock; insertions
// take the write lock and check again.
type Cache struct {
	id Identity

	mu   sync.RWMutex
	keys map[uint64]struct{}

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCache creates a cache seeded with data from a previous Data call.
// Data written for another device or in another format is ignored.
func NewCache(id Identity, initial []byte) *Cache {
	c := &Cache{id: id, keys: make(map[uint64]struct{})}
	if len(initial) == 0 {
		return c
	}
	if !c.compatible(initial) {
		slogger().Debug("pipeline: ignoring incompatible cache data", "bytes", len(initial))
		return c
	}
	for b := initial[CacheHeaderSize:]; len(b) >= CacheEntrySize; b = b[CacheEntrySize:] {
		c.keys[binary.LittleEndian.Uint64(b)] = struct{}{}
	}
	return c
}

func (c *Cache) compatible(data []byte) bool {
	if len(data) < CacheHeaderSize {
		return false
	}
	var want [CacheHeaderSize]byte
	c.putHeader(want[:])
	return [CacheHeaderSize]byte(data[:CacheHeaderSize]) == want
}

func (c *Cache) putHeader(b []byte) {
	binary.LittleEndian.PutUint32(b[0:], CacheHeaderSize)
	binary.LittleEndian.PutUint32(b[4:], cacheHeaderVersion)
	binary.LittleEndian.PutUint32(b[8:], c.id.VendorID)
	binary.LittleEndian.PutUint32(b[12:], c.id.DeviceID)
	copy(b[16:32], c.id.UUID[:])
}

// Observe records a request for key and reports whether it was a hit.
func (c *Cache) Observe(key uint64) bool {
	c.mu.RLock()
	_, ok := c.keys[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.keys[key]; ok {
		c.hits.Add(1)
		return true
	}
	c.keys[key] = struct{}{}
	c.misses.Add(1)
	return false
}

// Contains reports whether key is cached.
func (c *Cache) Contains(key uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.keys[key]
	return ok
}

// Len returns the number of cached keys.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keys)
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Data serializes the cache: a 32-byte header followed by the sorted keys.
func (c *Cache) Data() []byte {
	c.mu.RLock()
	keys := make([]uint64, 0, len(c.keys))
	for k := range c.keys {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	slices.Sort(keys)

	b := make([]byte, CacheHeaderSize, CacheHeaderSize+CacheEntrySize*len(keys))
	c.putHeader(b)
	for _, k := range keys {
		b = binary.LittleEndian.AppendUint64(b, k)
	}
	return b
}

// Merge adds the keys of every source cache.
func (c *Cache) Merge(srcs ...*Cache) {
	for _, src := range srcs {
		if src == c || src == nil {
			continue
		}
		src.mu.RLock()
		keys := make([]uint64, 0, len(src.keys))
		for k := range src.keys {
			keys = append(keys, k)
		}
		src.mu.RUnlock()

		c.mu.Lock()
		for _, k := range keys {
			c.keys[k] = struct{}{}
		}
		c.mu.Unlock()
	}
}
