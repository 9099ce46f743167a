package main

import (
	"io"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/dgraph-io/ristretto"
)

// Entry is a rendered response body.
type Entry struct {
	ContentType string
	Body        []byte
	Created     time.Time
	Expires     time.Time
}

// Cache stores rendered responses by cache key (see Converter.CacheKey).
type Cache interface {
	Get(key string) (Entry, bool)
	Put(key string, e Entry) bool
}

// CacheStats is a snapshot of the cache counters. The counts are only updated
// when ristretto processes its buffers, so they may lag by a few seconds.
type CacheStats struct {
	Len    uint64 `json:"len"`
	Size   uint64 `json:"size"`
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Puts   uint64 `json:"puts"`
}

// RistrettoCache is a Cache bounded by the total size of the entries.
type RistrettoCache struct {
	r *ristretto.Cache
}

func NewRistrettoCache(maxBytes int64) (*RistrettoCache, error) {
	r, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000,
		MaxCost:     maxBytes,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}
	return &RistrettoCache{r}, nil
}

// Put stores e until it expires. It returns false if e has already expired or
// ristretto dropped it.
func (c *RistrettoCache) Put(key string, e Entry) bool {
	ttl := time.Until(e.Expires)
	if ttl <= 0 {
		return false
	}
	return c.r.SetWithTTL(key, e, int64(len(key)+len(e.Body)+len(e.ContentType)), ttl)
}

func (c *RistrettoCache) Get(key string) (Entry, bool) {
	if x, ok := c.r.Get(key); ok {
		return x.(Entry), true
	}
	return Entry{}, false
}

func (c *RistrettoCache) Close() {
	c.r.Close()
}

func (c *RistrettoCache) Stats() CacheStats {
	m := c.r.Metrics
	return CacheStats{
		Len:    m.KeysAdded() - m.KeysEvicted(),
		Size:   m.CostAdded() - m.CostEvicted(),
		Hits:   m.Hits(),
		Misses: m.Misses(),
		Puts:   m.KeysAdded() + m.KeysUpdated(),
	}
}

func (c *RistrettoCache) WritePrometheus(w io.Writer) {
	st := c.Stats()
	m := metrics.NewSet()
	m.NewGauge("mcverd_cache_entries", func() float64 { return float64(st.Len) })
	m.NewGauge("mcverd_cache_size_bytes", func() float64 { return float64(st.Size) })
	m.NewCounter("mcverd_cache_hits_total").Set(st.Hits)
	m.NewCounter("mcverd_cache_misses_total").Set(st.Misses)
	m.NewCounter("mcverd_cache_puts_total").Set(st.Puts)
	m.WritePrometheus(w)
}

// StatsHandler writes the cache stats and the server uptime as JSON.
func (c *RistrettoCache) StatsHandler(start time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, struct {
			Since  time.Time `json:"since"`
			Uptime string    `json:"uptime"`
			CacheStats
		}{start, time.Since(start).Round(time.Second).String(), c.Stats()})
	}
}
