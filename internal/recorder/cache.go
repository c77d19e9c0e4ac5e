package recorder

import (
	"strings"
	"sync"
	"time"

	"mtf-trading-bot/internal/types"
)

// AnalysisCache reuses an analysis response per (ticker, scope) for a short
// TTL so repeated requests do not refetch market data.
type AnalysisCache struct {
	mu      sync.Mutex
	entries map[string]cachedResult
	ttl     time.Duration
	now     func() time.Time
}

type cachedResult struct {
	result  types.AnalysisResponse
	expires time.Time
}

func NewAnalysisCache(ttl time.Duration) *AnalysisCache {
	return &AnalysisCache{
		entries: make(map[string]cachedResult),
		ttl:     ttl,
		now:     time.Now,
	}
}

func analysisKey(ticker string, scope types.TradeScope) string {
	return strings.ToUpper(ticker) + "|" + string(scope)
}

func (c *AnalysisCache) Get(ticker string, scope types.TradeScope) (types.AnalysisResponse, bool) {
	if c == nil || c.ttl <= 0 {
		return types.AnalysisResponse{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[analysisKey(ticker, scope)]
	if !ok || !c.now().Before(e.expires) {
		return types.AnalysisResponse{}, false
	}
	return e.result, true
}

func (c *AnalysisCache) Put(ticker string, scope types.TradeScope, result types.AnalysisResponse) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[analysisKey(ticker, scope)] = cachedResult{result: result, expires: now.Add(c.ttl)}
}

func (c *AnalysisCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
