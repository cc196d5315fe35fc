package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Cache is a thread-safe key-value store with optional TTLs and tag-based invalidation.
// Instances are passed explicitly to their users; there is no package-level instance.
type Cache struct {
	m sync.Map
	// tagIndex maps a tag to the set of keys carrying it.
	tagIndex sync.Map // map[string]*sync.Map
	now      func() time.Time
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{now: time.Now}
}

// NewCacheWithClock creates a Cache that reads time from now (tests).
func NewCacheWithClock(now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{now: now}
}

// cacheItem holds a value and its expiration time.
type cacheItem struct {
	Value     interface{}
	ExpiresAt int64 // unix nanoseconds; 0 means no expiration
}

// Set stores value under key. A zero ttl never expires. Tags allow bulk invalidation via DeleteByTag.
func (c *Cache) Set(key, value interface{}, ttl time.Duration, tags []string) {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = c.clock().Add(ttl).UnixNano()
	}
	c.m.Store(key, &cacheItem{Value: value, ExpiresAt: expiresAt})
	if len(tags) > 0 {
		c.TagKey(key, tags)
	}
}

// Get returns the value for key when present and not expired.
func (c *Cache) Get(key interface{}) (interface{}, bool) {
	v, ok := c.m.Load(key)
	if !ok {
		return nil, false
	}
	item := v.(*cacheItem)
	if item.expired(c.clock().UnixNano()) {
		c.evict(key, item)
		return nil, false
	}
	return item.Value, true
}

// evict removes key only while it still holds item, so a concurrent Set survives.
func (c *Cache) evict(key interface{}, item *cacheItem) bool {
	if !c.m.CompareAndDelete(key, item) {
		return false
	}
	c.untag(key)
	return true
}

func (i *cacheItem) expired(now int64) bool {
	return i.ExpiresAt > 0 && now > i.ExpiresAt
}

// GetOrCompute returns the cached value for key, computing and storing it on a miss.
// A compute error is returned as-is and nothing is stored.
func (c *Cache) GetOrCompute(key interface{}, ttl time.Duration, tags []string, compute func() (interface{}, error)) (interface{}, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	c.Set(key, v, ttl, tags)
	return v, nil
}

// Delete removes key and drops it from every tag index.
func (c *Cache) Delete(key interface{}) {
	c.m.Delete(key)
	c.untag(key)
}

func (c *Cache) untag(key interface{}) {
	c.tagIndex.Range(func(_, val interface{}) bool {
		val.(*sync.Map).Delete(key)
		return true
	})
}

// DeleteMany removes multiple keys.
func (c *Cache) DeleteMany(keys ...interface{}) {
	for _, key := range keys {
		c.Delete(key)
	}
}

// CompositeKey joins parts into a single string key.
func CompositeKey(keys ...interface{}) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%v", k)
	}
	return strings.Join(parts, "|")
}

// Len counts live entries, including expired ones not yet evicted.
func (c *Cache) Len() int {
	n := 0
	c.m.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// Sweep evicts every expired entry and returns how many were removed. Get only evicts the
// key it reads, so long-lived caches with many one-off keys need a periodic sweep.
func (c *Cache) Sweep() int {
	now := c.clock().UnixNano()
	removed := 0
	c.m.Range(func(key, value interface{}) bool {
		if item := value.(*cacheItem); item.expired(now) && c.evict(key, item) {
			removed++
		}
		return true
	})
	return removed
}

// StartSweeper runs Sweep every interval until the returned stop func is called.
func (c *Cache) StartSweeper(interval time.Duration, onSweep func(removed int)) (stop func()) {
	if interval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if n := c.Sweep(); n > 0 && onSweep != nil {
					onSweep(n)
				}
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
		<-exited
	}
}

// TagKey assigns tags to key.
func (c *Cache) TagKey(key interface{}, tags []string) {
	for _, tag := range tags {
		val, _ := c.tagIndex.LoadOrStore(tag, &sync.Map{})
		val.(*sync.Map).Store(key, struct{}{})
	}
}

// GetKeysByTag returns every key assigned to tag.
func (c *Cache) GetKeysByTag(tag string) []interface{} {
	var keys []interface{}
	if val, ok := c.tagIndex.Load(tag); ok {
		val.(*sync.Map).Range(func(key, _ interface{}) bool {
			keys = append(keys, key)
			return true
		})
	}
	return keys
}

// DeleteByTag deletes every entry assigned to tag.
func (c *Cache) DeleteByTag(tag string) {
	val, ok := c.tagIndex.LoadAndDelete(tag)
	if !ok {
		return
	}
	var keys []interface{}
	val.(*sync.Map).Range(func(key, _ interface{}) bool {
		keys = append(keys, key)
		return true
	})
	c.DeleteMany(keys...)
}

func (c *Cache) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}
