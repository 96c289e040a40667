package resolver

import (
	"context"
	"net/url"
	"sync"

	"github.com/sw33tLie/applinks/internal/utils"
	"github.com/sw33tLie/applinks/pkg/applink"
)

// Cache stores resolved links keyed by absolute URL string.
// Get returns nil, nil on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (*applink.AppLink, error)
	Put(ctx context.Context, key string, link *applink.AppLink) error
}

// MemoryCache is an in-process Cache. Entries live as long as the cache does.
type MemoryCache struct {
	mu    sync.RWMutex
	links map[string]*applink.AppLink
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{links: make(map[string]*applink.AppLink)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*applink.AppLink, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.links[key], nil
}

func (c *MemoryCache) Put(_ context.Context, key string, link *applink.AppLink) error {
	c.mu.Lock()
	c.links[key] = link
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.links)
}

// Cached wraps any applink.Resolver with a Cache. Failed lookups are not cached.
type Cached struct {
	Resolver applink.Resolver
	Cache    Cache
}

func (c *Cached) AppLink(ctx context.Context, destination *url.URL) (*applink.AppLink, error) {
	key := destination.String()
	if link, err := c.Cache.Get(ctx, key); err != nil {
		utils.Log.Warnf("App link cache lookup for %s failed: %v", key, err)
	} else if link != nil {
		return link, nil
	}

	link, err := c.Resolver.AppLink(ctx, destination)
	if err != nil || link == nil {
		return link, err
	}
	if err := c.Cache.Put(ctx, key, link); err != nil {
		utils.Log.Warnf("Could not cache app link for %s: %v", key, err)
	}
	return link, nil
}
