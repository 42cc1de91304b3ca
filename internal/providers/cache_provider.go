package providers

import (
	"annolist/internal/structures"

	"github.com/coocood/freecache"
)

// CacheProviderInterface stores encoded backend lookups for a bounded time.
type CacheProviderInterface interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

const minCacheSizeMB = 1

type CacheProvider struct {
	cache      *freecache.Cache
	ttlSeconds int
}

func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size < minCacheSizeMB {
		logger.Infof(TypeApp, "Dashboard lookup cache disabled")
		return &noopCache{}
	}

	ttl := int(conf.Cache.TTL.Seconds())
	if ttl < 1 {
		ttl = 1
	}
	logger.Infof(TypeApp, "Dashboard lookup cache: %dMB, TTL=%ds", conf.Cache.Size, ttl)

	return &CacheProvider{
		cache:      freecache.NewCache(conf.Cache.Size << 20),
		ttlSeconds: ttl,
	}
}

func (c *CacheProvider) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

// Set drops the entry silently when freecache rejects it (value larger than
// a segment).
func (c *CacheProvider) Set(key string, value []byte) {
	_ = c.cache.Set([]byte(key), value, c.ttlSeconds)
}

type noopCache struct{}

func (*noopCache) Get(string) ([]byte, bool) { return nil, false }
func (*noopCache) Set(string, []byte)        {}
