// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package pagefile

// pageCache is a fixed-capacity, in-memory LRU cache of pages keyed by
// page id. Reading or writing through File always goes by way of this
// cache so that hot pages avoid round trips through the file handle.
type pageCache struct {
	entries  map[int64]*cacheEntry
	capacity int
	head     *cacheEntry
	tail     *cacheEntry
}

type cacheEntry struct {
	id         int64
	page       *page
	prev, next *cacheEntry
}

func newPageCache(capacity int) *pageCache {
	return &pageCache{entries: make(map[int64]*cacheEntry, capacity), capacity: capacity}
}

// get returns the cached page for id, if present, moving it to the front
// of the recency list.
func (c *pageCache) get(id int64) (*page, bool) {
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	c.touch(e)
	return e.page, true
}

// set inserts or updates the cached page for id, evicting the
// least-recently-used entry if the cache is at capacity. evicted is valid
// only when ok is true.
func (c *pageCache) set(id int64, p *page) (evictedID int64, evicted *page, ok bool) {
	if e, found := c.entries[id]; found {
		e.page = p
		c.touch(e)
		return 0, nil, false
	}

	e := &cacheEntry{id: id, page: p}
	if len(c.entries) >= c.capacity {
		victim := c.tail
		c.unlink(victim)
		delete(c.entries, victim.id)
		evictedID, evicted, ok = victim.id, victim.page, true
	}
	c.entries[id] = e
	c.pushFront(e)
	return evictedID, evicted, ok
}

// iterate calls fn once for every cached page, in no particular order.
func (c *pageCache) iterate(fn func(id int64, p *page)) {
	for id, e := range c.entries {
		fn(id, e.page)
	}
}

func (c *pageCache) touch(e *cacheEntry) {
	if c.head == e {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *pageCache) pushFront(e *cacheEntry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *pageCache) unlink(e *cacheEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else if c.head == e {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else if c.tail == e {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}
