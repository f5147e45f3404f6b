package chart

import (
	"strings"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

// freecache rejects entries above 1/1024 of its size, so this leaves room for 64KB images.
const cacheSize = 64 * 1024 * 1024

// Cache keeps rendered charts for a short time. A nil *Cache never hits.
type Cache struct {
	store *freecache.Cache
	ttl   time.Duration
}

// NewCache returns nil when ttl disables caching.
func NewCache(ttl time.Duration) *Cache {
	if ttl < time.Second {
		return nil
	}
	return &Cache{store: freecache.NewCache(cacheSize), ttl: ttl}
}

func cacheKey(symbol string) []byte {
	return []byte(strings.ToUpper(symbol))
}

func (c *Cache) Get(symbol string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.store.Get(cacheKey(symbol))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *Cache) Set(symbol string, data []byte) {
	if c == nil {
		return
	}
	if err := c.store.Set(cacheKey(symbol), data, int(c.ttl.Seconds())); err != nil {
		log.WithField("symbol", symbol).Debugf("chart not cached: %v", err)
	}
}
