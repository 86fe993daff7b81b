// internal/cache/lru.go
//
// Tiny LRU cache with optional per-entry expiry.  Used as the in-process
// geocode cache when Redis is not configured, and by the view engine to hold
// parsed *template.Template sets.  Safe for concurrent use.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a non‑generic least‑recently‑used cache.
// Keys must be comparable; values can be any.
type LRU struct {
	mu   sync.Mutex
	cap  int
	ll   *list.List
	dict map[any]*list.Element
	now  func() time.Time
}

type pair struct {
	key any
	val any
	exp time.Time // zero = never
}

// New returns an LRU with the given capacity.  Panics on cap < 1.
func New(capacity int) *LRU {
	if capacity < 1 {
		panic("cache: capacity must be ≥1")
	}
	return &LRU{
		cap:  capacity,
		ll:   list.New(),
		dict: make(map[any]*list.Element, capacity),
		now:  time.Now,
	}
}

// Get retrieves a value or nil and marks it MRU.  Expired entries are
// dropped on access.
func (c *LRU) Get(key any) (val any, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ele, hit := c.dict[key]
	if !hit {
		return nil, false
	}
	p := ele.Value.(pair)
	if !p.exp.IsZero() && c.now().After(p.exp) {
		c.ll.Remove(ele)
		delete(c.dict, key)
		return nil, false
	}
	c.ll.MoveToFront(ele)
	return p.val, true
}

// Add inserts or updates a value that never expires.
func (c *LRU) Add(key, val any) { c.AddTTL(key, val, 0) }

// AddTTL inserts or updates a value that expires after ttl (0 = never).
func (c *LRU) AddTTL(key, val any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	if ele, hit := c.dict[key]; hit {
		ele.Value = pair{key, val, exp}
		c.ll.MoveToFront(ele)
		return
	}
	ele := c.ll.PushFront(pair{key, val, exp})
	c.dict[key] = ele
	if c.ll.Len() > c.cap {
		last := c.ll.Back()
		c.ll.Remove(last)
		delete(c.dict, last.Value.(pair).key)
	}
}

// Len reports current size, expired entries included until touched.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
