package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"souschef/internal/domain"
)

// AnswerCache is an in-memory LRU cache for generated answers, keyed by
// prompt and retrieval depth. Entries expire after a TTL and are dropped
// when the index generation changes.
type AnswerCache struct {
	mu       sync.RWMutex
	entries  map[string]*answerEntry
	order    []string
	maxSize  int
	ttl      time.Duration
	indexGen uint64
}

type answerEntry struct {
	answer    *domain.Answer
	timestamp time.Time
	indexGen  uint64
}

func NewAnswerCache(maxSize int, ttl time.Duration) *AnswerCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AnswerCache{
		entries: make(map[string]*answerEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func answerKey(prompt string, topK int) string {
	data := []byte(prompt)
	data = append(data, byte(topK>>8), byte(topK))
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

func (c *AnswerCache) Get(prompt string, topK int) (*domain.Answer, bool) {
	c.mu.RLock()
	key := answerKey(prompt, topK)
	entry, exists := c.entries[key]
	currentGen := c.indexGen
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Since(entry.timestamp) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.mu.Unlock()
		return nil, false
	}

	if entry.indexGen != currentGen {
		c.mu.Lock()
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.moveToEnd(key)
	c.mu.Unlock()

	return entry.answer, true
}

func (c *AnswerCache) Put(prompt string, topK int, answer *domain.Answer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := answerKey(prompt, topK)

	if _, exists := c.entries[key]; exists {
		c.entries[key] = &answerEntry{
			answer:    answer,
			timestamp: time.Now(),
			indexGen:  c.indexGen,
		}
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = &answerEntry{
		answer:    answer,
		timestamp: time.Now(),
		indexGen:  c.indexGen,
	}
	c.order = append(c.order, key)
}

// Invalidate drops all entries. Called when a new index is published.
func (c *AnswerCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*answerEntry)
	c.order = c.order[:0]
	c.indexGen++
}

func (c *AnswerCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *AnswerCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *AnswerCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *AnswerCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
