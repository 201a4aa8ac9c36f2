// Quillfeed - Personalized Story Feed and Pagination Core
// Copyright 2026 J. Merrin (quillfeed)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/quillfeed

// Package pagecache provides a bounded, concurrency-safe LRU cache mapping
// story ids to their computed page sequences.
package pagecache

import (
	"sync"

	"github.com/quillfeed/quillfeed/internal/paginate"
)

// DefaultCapacity is the reference cache bound.
const DefaultCapacity = 20

// entry is a node in the access-order list.
type entry struct {
	key  string
	doc  paginate.Document
	prev *entry
	next *entry
}

// Cache is a thread-safe least-recently-used page cache. It provides O(1)
// Get, Set, and eviction using a hashmap over a doubly-linked list with
// sentinel nodes; head.next is the most recently used, tail.prev the least.
//
// The capacity is never exceeded: eviction makes room before insertion. A
// memory-pressure signal evicts the least-recently-used half of the entries
// so the cache degrades instead of collapsing.
type Cache struct {
	mu sync.RWMutex

	capacity int
	items    map[string]*entry
	head     *entry
	tail     *entry

	// stats
	hits   int64
	misses int64
}

// New creates a page cache with the given capacity. Non-positive capacities
// fall back to DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	c := &Cache{
		capacity: capacity,
		items:    make(map[string]*entry, capacity),
		head:     &entry{},
		tail:     &entry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get returns the cached page sequence for a story. A hit moves the story
// to the most-recently-used position; a miss does not mutate state.
func (c *Cache) Get(storyID string) (paginate.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[storyID]
	if !ok {
		c.misses++
		return paginate.Document{}, false
	}

	c.moveToFront(e)
	c.hits++
	return e.doc, true
}

// Contains reports whether a story is cached without updating access order.
func (c *Cache) Contains(storyID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.items[storyID]
	return ok
}

// Set stores a complete page sequence. Overwriting an existing story
// refreshes its recency without changing occupancy; inserting a new story
// at capacity evicts least-recently-used stories until there is room.
func (c *Cache) Set(storyID string, doc paginate.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[storyID]; ok {
		e.doc = doc
		c.moveToFront(e)
		return
	}

	for len(c.items) >= c.capacity {
		c.evictOldest()
	}

	e := &entry{key: storyID, doc: doc}
	c.addToFront(e)
	c.items[storyID] = e
}

// Remove drops a story from the cache. Reports whether it was present.
func (c *Cache) Remove(storyID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[storyID]
	if !ok {
		return false
	}
	c.removeEntry(e)
	return true
}

// Len returns the current number of cached stories.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*entry, c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// HandleMemoryPressure evicts the least-recently-used half of the current
// entries (integer division, rounding down) and returns how many were
// removed.
func (c *Cache) HandleMemoryPressure() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := len(c.items) / 2
	for i := 0; i < target; i++ {
		c.evictOldest()
	}
	return target
}

// Stats returns hit/miss counts and the current size.
func (c *Cache) Stats() (hits, misses int64, size int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, len(c.items)
}

// Internal methods (must be called with the write lock held)

func (c *Cache) addToFront(e *entry) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *Cache) moveToFront(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	c.addToFront(e)
}

func (c *Cache) removeEntry(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	delete(c.items, e.key)
}

func (c *Cache) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.removeEntry(oldest)
}
