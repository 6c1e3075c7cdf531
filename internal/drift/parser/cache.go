package parser

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheKey identifies one cached ParseResult by content and language, so a
// file renamed or moved but byte-identical still hits.
type cacheKey struct {
	contentHash string
	language    string
}

// sketch is a small count-min frequency sketch used for TinyLFU admission:
// estimate how often a key has recently been seen without storing the key
// itself. Counters saturate at 15 and the whole table halves once total
// increments cross a reset threshold, so frequency reflects recent access
// patterns rather than all-time counts.
type sketch struct {
	mu        sync.Mutex
	counters  [4][]uint8
	width     uint64
	additions uint64
	resetAt   uint64
}

func newSketch(width int) *sketch {
	if width < 16 {
		width = 16
	}
	s := &sketch{width: uint64(width), resetAt: uint64(width) * 10}
	for i := range s.counters {
		s.counters[i] = make([]uint8, width)
	}
	return s
}

func (s *sketch) rowIndex(row int, h uint64) uint64 {
	// Mix in the row number so the four rows aren't identical.
	mixed := h ^ (uint64(row+1) * 0x9E3779B97F4A7C15)
	return mixed % s.width
}

func (s *sketch) increment(h uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for row := 0; row < 4; row++ {
		idx := s.rowIndex(row, h)
		if s.counters[row][idx] < 15 {
			s.counters[row][idx]++
		}
	}
	s.additions++
	if s.additions >= s.resetAt {
		for row := range s.counters {
			for i := range s.counters[row] {
				s.counters[row][i] /= 2
			}
		}
		s.additions /= 2
	}
}

func (s *sketch) estimate(h uint64) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	min := uint8(15)
	for row := 0; row < 4; row++ {
		v := s.counters[row][s.rowIndex(row, h)]
		if v < min {
			min = v
		}
	}
	return min
}

func fnv1a(s string) uint64 {
	const offset = 14695981039346656037
	const prime = 1099511628211
	h := uint64(offset)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	return h
}

func keyHash(k cacheKey) uint64 {
	return fnv1a(k.language + "\x00" + k.contentHash)
}

// Cache is a TinyLFU-admission parse cache: entries are kept by a bounded
// LRU, but an incoming entry only displaces the LRU's current victim when
// the sketch estimates it has been seen at least as often recently. This
// protects a hot working set from being flushed by a burst of one-off
// touches (e.g. a full rescan of rarely-changed vendored files).
type Cache struct {
	mu     sync.Mutex
	lru    *lru.Cache[cacheKey, ParseResult]
	freq   *sketch
	cap    int
}

// NewCache returns a Cache admitting at most capacity entries.
func NewCache(capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	backing, _ := lru.New[cacheKey, ParseResult](capacity)
	return &Cache{lru: backing, freq: newSketch(capacity * 4), cap: capacity}
}

// Get returns the cached ParseResult for (contentHash, language), if any. A
// hit bumps the frequency sketch; a cache hit is structurally
// indistinguishable from a miss-then-parse in its returned value, since
// both paths construct the same ParseResult type.
func (c *Cache) Get(contentHash, language string) (ParseResult, bool) {
	key := cacheKey{contentHash: contentHash, language: language}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.freq.increment(keyHash(key))
	result, ok := c.lru.Get(key)
	return result, ok
}

// Put admits result into the cache under TinyLFU's policy: if there is
// spare capacity, or the key is already present, it is stored unconditionally.
// Otherwise the current LRU victim is evicted only if the candidate's
// estimated recent frequency is >= the victim's; a candidate that loses the
// comparison is dropped (not cached) rather than admitted, matching TinyLFU's
// "doorman" admission filter.
func (c *Cache) Put(result ParseResult) {
	key := cacheKey{contentHash: result.ContentHash, language: result.Language}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.freq.increment(keyHash(key))

	if c.lru.Contains(key) || c.lru.Len() < c.cap {
		c.lru.Add(key, result)
		return
	}

	victimKey, victimVal, ok := c.lru.RemoveOldest()
	if !ok {
		c.lru.Add(key, result)
		return
	}

	candidateFreq := c.freq.estimate(keyHash(key))
	victimFreq := c.freq.estimate(keyHash(victimKey))
	if candidateFreq >= victimFreq {
		c.lru.Add(key, result)
		return
	}

	// Candidate loses the admission test: restore the victim, drop the
	// candidate on the floor.
	c.lru.Add(victimKey, victimVal)
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
