package d365

import (
	"sync"

	"golang.org/x/oauth2"
)

// TokenCache stores tokens between calls. Implementations must be safe for
// concurrent use: webhook requests authenticate in parallel.
type TokenCache interface {
	Get(key string) (*oauth2.Token, bool)
	Put(key string, tok *oauth2.Token)
}

type MemoryTokenCache struct {
	mu     sync.RWMutex
	tokens map[string]*oauth2.Token
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{tokens: make(map[string]*oauth2.Token)}
}

func (c *MemoryTokenCache) Get(key string) (*oauth2.Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tok, ok := c.tokens[key]
	return tok, ok
}

// Put stores a copy so callers cannot mutate a token other goroutines read.
func (c *MemoryTokenCache) Put(key string, tok *oauth2.Token) {
	if tok == nil {
		return
	}
	cp := *tok
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[key] = &cp
}
