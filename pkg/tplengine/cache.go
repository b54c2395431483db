package tplengine

import (
	"sync/atomic"
	"text/template"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of parsed templates kept per run
const DefaultCacheSize = 64

// Cache holds parsed templates for the lifetime of one conversion run
type Cache struct {
	entries *lru.Cache[string, *template.Template]
	hits    atomic.Int64
	misses  atomic.Int64
}

func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, *template.Template](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

func (c *Cache) Get(name string) (*template.Template, bool) {
	tmpl, ok := c.entries.Get(name)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return tmpl, ok
}

func (c *Cache) Add(name string, tmpl *template.Template) {
	c.entries.Add(name, tmpl)
}

// Stats returns the hit and miss counters
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) Len() int {
	return c.entries.Len()
}
