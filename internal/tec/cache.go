package tec

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

const DefaultCacheCapacity = 4096

// DefaultMotiveCache is shared by devices built without WithCache.
var DefaultMotiveCache = NewMotiveCache(DefaultCacheCapacity)

type cacheKey struct {
	emitter   Electrode
	collector Electrode
	model     Model
}

func (k cacheKey) String() string {
	var b strings.Builder
	b.WriteString(k.model.Name())
	if lm, ok := k.model.(LangmuirModel); ok && lm.Table != nil {
		fmt.Fprintf(&b, "@%p", lm.Table)
	}
	for _, e := range [2]Electrode{k.emitter, k.collector} {
		for _, v := range [6]float64{e.temperature, e.barrier, e.richardson, e.emissivity, e.voltage, e.position} {
			b.WriteByte('|')
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	return b.String()
}

// MotiveCache memoizes motive profiles by device value. Concurrent
// requests for the same value share one solve; failed solves are not
// stored. Once full, the oldest entry is evicted first.
type MotiveCache struct {
	mu       sync.RWMutex
	entries  map[cacheKey]*Profile
	order    []cacheKey
	capacity int
	group    singleflight.Group

	hits   atomic.Int64
	solves atomic.Int64
}

func NewMotiveCache(capacity int) *MotiveCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &MotiveCache{
		entries:  make(map[cacheKey]*Profile),
		capacity: capacity,
	}
}

func (c *MotiveCache) lookup(k cacheKey) (*Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.entries[k]
	return p, ok
}

// Get returns the cached profile for k or runs compute once for all
// concurrent callers asking for the same key.
func (c *MotiveCache) Get(k cacheKey, compute func() (*Profile, error)) (*Profile, error) {
	if p, ok := c.lookup(k); ok {
		c.hits.Add(1)
		return p, nil
	}

	v, err, _ := c.group.Do(k.String(), func() (interface{}, error) {
		if p, ok := c.lookup(k); ok {
			return p, nil
		}
		p, err := compute()
		c.solves.Add(1)
		if err != nil {
			return nil, err
		}
		c.store(k, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Profile), nil
}

func (c *MotiveCache) store(k cacheKey, p *Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[k]; ok {
		return
	}
	for len(c.order) >= c.capacity {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
	c.entries[k] = p
	c.order = append(c.order, k)
}

func (c *MotiveCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats reports lookups served from the cache and solver runs.
func (c *MotiveCache) Stats() (hits, solves int64) {
	return c.hits.Load(), c.solves.Load()
}

func (c *MotiveCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]*Profile)
	c.order = nil
	c.hits.Store(0)
	c.solves.Store(0)
}
