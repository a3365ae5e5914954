// Package cache provides Redis caching decorators for slow lookups.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"phish_backend/internal/feature/reversesearch/domain/entity"
	"phish_backend/internal/feature/reversesearch/usecase"
)

// CachingDomainResolver decorates a DomainResolver with Redis caching of
// Resolve results. RegisteredDomain is a pure computation and is not cached.
type CachingDomainResolver struct {
	inner     usecase.DomainResolver
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.DomainResolver = (*CachingDomainResolver)(nil)

// NewCachingDomainResolver decorates inner with Redis caching.
// If ttl is 0, it defaults to 1 hour. If namespace is empty, it uses "domains".
func NewCachingDomainResolver(rdb *redis.Client, ttl time.Duration, inner usecase.DomainResolver, namespace string) *CachingDomainResolver {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if namespace == "" {
		namespace = "domains"
	}
	return &CachingDomainResolver{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// RegisteredDomain delegates to the wrapped resolver.
func (c *CachingDomainResolver) RegisteredDomain(host string) (string, error) {
	return c.inner.RegisteredDomain(host)
}

// Resolve checks the cache first and falls back to the wrapped resolver.
func (c *CachingDomainResolver) Resolve(ctx context.Context, rawURL string) (*entity.DomainInfo, error) {
	hk, ok := hostKey(rawURL)
	if c.rdb == nil || !ok {
		return c.inner.Resolve(ctx, rawURL)
	}
	key := c.namespace + ":" + hk

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.DomainInfo
		if err := json.Unmarshal(b, &out); err == nil {
			return &out, nil
		}
		// corrupted entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.Resolve(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	// best effort
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}
