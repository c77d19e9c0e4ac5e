package marketdata

import (
	"strings"
	"sync"
)

// instrumentMapper maps trading symbols to Kite instrument tokens.
type instrumentMapper struct {
	symbolToToken map[string]int
	mu            sync.RWMutex
}

func newInstrumentMapper() *instrumentMapper {
	return &instrumentMapper{symbolToToken: make(map[string]int)}
}

func (im *instrumentMapper) addMapping(symbol string, token int) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.symbolToToken[strings.ToUpper(symbol)] = token
}

func (im *instrumentMapper) getToken(symbol string) (int, bool) {
	im.mu.RLock()
	defer im.mu.RUnlock()
	token, ok := im.symbolToToken[strings.ToUpper(symbol)]
	return token, ok
}

func (im *instrumentMapper) size() int {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return len(im.symbolToToken)
}
