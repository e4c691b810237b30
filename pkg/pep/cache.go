package pep

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"acgs-hq/sentinel/pkg/consensus"
)

// cleanupInterval is how often expired cache entries are swept.
const cleanupInterval = 30 * time.Second

// Cache is a TTL + LRU decision cache. Keys are request fingerprints that
// include the constitutional hash, so a principle reload naturally misses;
// Purge exists for eager invalidation on reload.
type Cache struct {
	ttl        time.Duration
	maxEntries int

	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List

	stop chan struct{}
	done chan struct{}
}

type cacheEntry struct {
	key       string
	decision  *consensus.ConsensusDecision
	expiresAt time.Time
}

// NewCache creates a cache and starts its background sweeper. Call Close to
// stop it.
func NewCache(ttl time.Duration, maxEntries int) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	c := &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]*list.Element),
		lru:        list.New(),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Get returns the cached decision for the key, if present and unexpired.
func (c *Cache) Get(key string) (*consensus.ConsensusDecision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.removeLocked(elem)
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return entry.decision, true
}

// Put stores a decision, evicting the least recently used entry when full.
func (c *Cache) Put(key string, decision *consensus.ConsensusDecision) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.decision = decision
		entry.expiresAt = time.Now().Add(c.ttl)
		c.lru.MoveToFront(elem)
		return
	}

	for len(c.entries) >= c.maxEntries {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest)
	}

	elem := c.lru.PushFront(&cacheEntry{
		key:       key,
		decision:  decision,
		expiresAt: time.Now().Add(c.ttl),
	})
	c.entries[key] = elem
}

// Purge drops all entries. Called when the principle set is replaced.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.lru.Init()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close stops the background sweeper.
func (c *Cache) Close() {
	close(c.stop)
	<-c.done
}

func (c *Cache) sweep() {
	defer close(c.done)
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for elem := c.lru.Back(); elem != nil; {
				prev := elem.Prev()
				if now.After(elem.Value.(*cacheEntry).expiresAt) {
					c.removeLocked(elem)
				}
				elem = prev
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) removeLocked(elem *list.Element) {
	entry := c.lru.Remove(elem).(*cacheEntry)
	delete(c.entries, entry.key)
}

// CacheKey fingerprints a request for cache lookup. The fingerprint covers
// the normalized content, category, sorted context attributes, and the
// constitutional hash, so equivalent requests collide and any principle
// change misses.
func CacheKey(content string, attributes map[string]string, category, constitutionalHash string) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(content))))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(category)))
	h.Write([]byte{0})

	keys := make([]string, 0, len(attributes))
	for k := range attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(attributes[k]))
		h.Write([]byte{0})
	}

	h.Write([]byte(constitutionalHash))
	return hex.EncodeToString(h.Sum(nil))
}
