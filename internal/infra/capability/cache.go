package capability

import (
	"context"
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"mcpreg/internal/domain"
)

// SourceLocator reports which file a discoverer reads for a tool.
type SourceLocator interface {
	SourcePath(toolPath string) string
}

// CachingDiscoverer memoises an inner discoverer keyed on the scanned file's
// path, size and modification time, so an edited source is always rescanned.
type CachingDiscoverer struct {
	inner   domain.CapabilityDiscoverer
	locator SourceLocator
	cache   *lru.Cache[string, []string]
}

func NewCachingDiscoverer(inner domain.CapabilityDiscoverer, locator SourceLocator, size int) (*CachingDiscoverer, error) {
	if size <= 0 {
		size = domain.DefaultCapabilityCacheSize
	}
	cache, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("capability cache: %w", err)
	}
	return &CachingDiscoverer{inner: inner, locator: locator, cache: cache}, nil
}

func (c *CachingDiscoverer) Discover(ctx context.Context, toolPath string) []string {
	info, err := os.Stat(c.locator.SourcePath(toolPath))
	if err != nil {
		return c.inner.Discover(ctx, toolPath)
	}
	key := fmt.Sprintf("%s|%d|%d", toolPath, info.Size(), info.ModTime().UnixNano())
	if cached, ok := c.cache.Get(key); ok {
		return append([]string{}, cached...)
	}
	found := c.inner.Discover(ctx, toolPath)
	// A canceled discovery is not a result for this source.
	if ctx != nil && ctx.Err() != nil {
		return found
	}
	c.cache.Add(key, append([]string{}, found...))
	return found
}

// Len reports the number of cached entries.
func (c *CachingDiscoverer) Len() int {
	return c.cache.Len()
}

var _ domain.CapabilityDiscoverer = (*CachingDiscoverer)(nil)
