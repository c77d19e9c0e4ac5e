package marketdata

import (
	"sync"
	"time"

	"mtf-trading-bot/internal/types"
)

// seriesCache keeps recently fetched series per (symbol, interval).
type seriesCache struct {
	entries map[string]cachedSeries
	ttl     time.Duration
	mu      sync.RWMutex
}

type cachedSeries struct {
	series  *types.Series
	fetched time.Time
}

func newSeriesCache(ttl time.Duration) *seriesCache {
	return &seriesCache{
		entries: make(map[string]cachedSeries),
		ttl:     ttl,
	}
}

func cacheKey(symbol string, iv Interval) string {
	return symbol + "|" + string(iv)
}

func (sc *seriesCache) get(symbol string, iv Interval, now time.Time) (*types.Series, bool) {
	if sc.ttl <= 0 {
		return nil, false
	}
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	e, ok := sc.entries[cacheKey(symbol, iv)]
	if !ok || now.Sub(e.fetched) > sc.ttl {
		return nil, false
	}
	return e.series, true
}

func (sc *seriesCache) put(symbol string, iv Interval, s *types.Series, now time.Time) {
	if sc.ttl <= 0 {
		return
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()

	for k, e := range sc.entries {
		if now.Sub(e.fetched) > sc.ttl {
			delete(sc.entries, k)
		}
	}
	sc.entries[cacheKey(symbol, iv)] = cachedSeries{series: s, fetched: now}
}

func (sc *seriesCache) clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.entries = make(map[string]cachedSeries)
}
