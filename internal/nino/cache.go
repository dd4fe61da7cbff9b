package nino

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"sync"

	"github.com/couchcryptid/enso-eruption-analysis/internal/domain"
)

// Indexer computes regional indices and remembers region selections per grid,
// so the four onset experiments of a run (which share a grid) select once.
// Safe for concurrent use.
type Indexer struct {
	cache *lruCache
}

// NewIndexer creates an Indexer that keeps up to maxEntries selections.
func NewIndexer(maxEntries int) *Indexer {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Indexer{cache: newLRUCache(maxEntries)}
}

// Region is ComputeRegionIndex with selection caching.
func (x *Indexer) Region(field domain.GriddedField, region domain.Region) (domain.IndexSeries, error) {
	if err := field.Validate(); err != nil {
		return domain.IndexSeries{}, err
	}
	key := selectionKey(field, region)
	sel, ok := x.cache.get(key)
	if !ok {
		var err error
		sel, err = selectRegion(field, region)
		if err != nil {
			return domain.IndexSeries{}, err
		}
		x.cache.put(key, sel)
	}
	return reduce(field, sel, region.Name)
}

func (x *Indexer) Nino34(field domain.GriddedField) (domain.IndexSeries, error) {
	return x.Region(field, domain.Nino34)
}

func (x *Indexer) GlobalMean(field domain.GriddedField) (domain.IndexSeries, error) {
	return x.Region(field, domain.Global)
}

// Len reports how many selections are cached.
func (x *Indexer) Len() int {
	x.cache.mu.Lock()
	defer x.cache.mu.Unlock()
	return len(x.cache.entries)
}

// selectionKey identifies a region on a particular coordinate grid.
func selectionKey(field domain.GriddedField, region domain.Region) string {
	h := fnv.New64a()
	var b [8]byte
	for _, coords := range [][]float64{field.Lat, field.Lon} {
		binary.LittleEndian.PutUint64(b[:], uint64(len(coords)))
		h.Write(b[:])
		for _, v := range coords {
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
			h.Write(b[:])
		}
	}
	return fmt.Sprintf("%s|%g|%g|%g|%g|%d|%d|%x", region.Name, region.LatMin, region.LatMax,
		region.LonWest, region.LonEast, field.Dims.Lat, field.Dims.Lon, h.Sum64())
}

// lruCache is a small thread-safe LRU of region selections.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value selection
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (selection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return selection{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value selection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
