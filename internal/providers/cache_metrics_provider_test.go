package providers

import (
	"annolist/internal/structures"
	"testing"

	"github.com/stretchr/testify/assert"
)

type mapCache struct {
	data map[string][]byte
}

func (c *mapCache) Get(key string) ([]byte, bool) {
	v, ok := c.data[key]
	return v, ok
}
func (c *mapCache) Set(key string, value []byte) {
	c.data[key] = value
}

func TestInstrumentedCache_HitAndMiss(t *testing.T) {
	inner := &mapCache{data: map[string][]byte{"search:1": []byte("[]")}}
	metrics := &mockMetrics{}
	cache := &instrumentedCache{inner: inner, metrics: metrics}

	val, ok := cache.Get("search:1")
	assert.True(t, ok)
	assert.Equal(t, []byte("[]"), val)

	val, ok = cache.Get("search:2")
	assert.False(t, ok)
	assert.Nil(t, val)

	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 1, metrics.misses)
}

func TestInstrumentedCache_SetDelegates(t *testing.T) {
	inner := &mapCache{data: map[string][]byte{}}
	metrics := &mockMetrics{}
	cache := &instrumentedCache{inner: inner, metrics: metrics}

	cache.Set("search:3", []byte("x"))

	val, ok := inner.Get("search:3")
	assert.True(t, ok)
	assert.Equal(t, []byte("x"), val)
	assert.Zero(t, metrics.hits+metrics.misses)
}

func TestNewInstrumentedCacheProvider_DisabledStaysBare(t *testing.T) {
	conf := &structures.Config{Cache: structures.CacheConfig{Enabled: false}}
	metrics := &mockMetrics{}

	c := NewInstrumentedCacheProvider(conf, &cacheTestLogger{}, metrics)
	assert.IsType(t, &noopCache{}, c)

	c.Get("search:1")
	assert.Zero(t, metrics.misses)
}

func TestNewInstrumentedCacheProvider_EnabledWraps(t *testing.T) {
	conf := &structures.Config{Cache: structures.CacheConfig{Enabled: true, Size: 1}}
	metrics := &mockMetrics{}

	c := NewInstrumentedCacheProvider(conf, &cacheTestLogger{}, metrics)
	assert.IsType(t, &instrumentedCache{}, c)

	c.Set("search:1", []byte("v"))
	_, ok := c.Get("search:1")
	assert.True(t, ok)
	assert.Equal(t, 1, metrics.hits)
}
