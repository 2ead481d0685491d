package filestore

import (
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	typeCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rm_type_cache_hits_total",
		Help: "Общее количество попаданий в кэш типов содержимого.",
	})
	typeCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rm_type_cache_misses_total",
		Help: "Общее количество промахов кэша типов содержимого.",
	})
)

// TypeCache — LRU-кэш MIME-типов артефактов с TTL.
// Содержимое артефакта по дескриптору не меняется.
type TypeCache struct {
	cache *expirable.LRU[string, string]
}

// NewTypeCache создаёт кэш на maxSize дескрипторов.
func NewTypeCache(maxSize int, ttl time.Duration) *TypeCache {
	return &TypeCache{cache: expirable.NewLRU[string, string](maxSize, nil, ttl)}
}

// Get возвращает тип содержимого из кэша.
func (c *TypeCache) Get(handle string) (string, bool) {
	ct, ok := c.cache.Get(handle)
	if ok {
		typeCacheHitsTotal.Inc()
		return ct, true
	}
	typeCacheMissesTotal.Inc()
	return "", false
}

// Set сохраняет тип содержимого дескриптора.
func (c *TypeCache) Set(handle, contentType string) {
	c.cache.Add(handle, contentType)
}

// Delete удаляет дескриптор из кэша.
func (c *TypeCache) Delete(handle string) {
	c.cache.Remove(handle)
}

// Len возвращает количество записей в кэше.
func (c *TypeCache) Len() int {
	return c.cache.Len()
}

// DetectType возвращает MIME-тип артефакта: из кэша или по первым
// байтам содержимого. Позиция чтения r возвращается в начало.
func (c *TypeCache) DetectType(handle string, r io.ReadSeeker) (string, error) {
	if ct, ok := c.Get(handle); ok {
		return ct, nil
	}
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	c.Set(handle, mt.String())
	return mt.String(), nil
}
