package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"marketplace/internal/metrics"
	"marketplace/pkg/logger"
)

// Cache stores generated replies by key
type Cache interface {
	GetString(ctx context.Context, key string) (string, bool, error)
	SetString(ctx context.Context, key, value string, ttl time.Duration) error
}

// CachedGenerator memoizes non-empty replies per (provider, prompt).
// Cache failures are logged and never fail the call.
type CachedGenerator struct {
	next  Generator
	cache Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewCachedGenerator wraps next with cache; a nil cache or non-positive ttl returns next unchanged
func NewCachedGenerator(next Generator, cache Cache, ttl time.Duration) Generator {
	if cache == nil || ttl <= 0 {
		return next
	}
	return &CachedGenerator{
		next:  next,
		cache: cache,
		ttl:   ttl,
		log:   logger.Get().With("component", "generation_cache", "provider", next.Name()),
	}
}

func (g *CachedGenerator) Name() string { return g.next.Name() }

func (g *CachedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	key := CacheKey(g.next.Name(), prompt)

	cached, ok, err := g.cache.GetString(ctx, key)
	switch {
	case err != nil:
		metrics.RecordCacheLookup("error")
		g.log.Warnw("Cache lookup failed", "error", err)
	case ok && strings.TrimSpace(cached) != "":
		metrics.RecordCacheLookup("hit")
		return cached, nil
	default:
		metrics.RecordCacheLookup("miss")
	}

	reply, err := g.next.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(reply) != "" {
		if err := g.cache.SetString(ctx, key, reply, g.ttl); err != nil {
			g.log.Warnw("Cache store failed", "error", err)
		}
	}

	return reply, nil
}

// CacheKey derives the storage key for a provider and prompt
func CacheKey(provider, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return "generation:" + provider + ":" + hex.EncodeToString(sum[:])
}
