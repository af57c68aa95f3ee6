// Package gateway runs expensive report fetches through a TTL cache.
package gateway

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bidash/internal/cache"
)

const tracerName = "bidash/internal/gateway"

// FetchFunc produces a fresh value on a cache miss.
type FetchFunc[V any] func(ctx context.Context) (V, error)

// Gateway pairs one cache with the fetches that fill it.
//
// A call makes zero downstream calls on a hit and exactly one on a miss.
// Fetch errors are returned exactly as produced: they are never wrapped,
// never cached, and never answered with an expired entry.
type Gateway[V any] struct {
	name   string
	cache  *cache.Cache[V]
	tracer trace.Tracer
}

// New creates a Gateway named after the report it serves.
func New[V any](name string, c *cache.Cache[V]) *Gateway[V] {
	return &Gateway[V]{
		name:   name,
		cache:  c,
		tracer: otel.Tracer(tracerName),
	}
}

// Name returns the report name.
func (g *Gateway[V]) Name() string { return g.name }

// Len returns the number of entries in the backing cache.
func (g *Gateway[V]) Len() int { return g.cache.Len() }

// Get returns the cached value for key, or runs fetch and caches its result.
// The bool reports a cache hit.
func (g *Gateway[V]) Get(ctx context.Context, key string, fetch FetchFunc[V]) (V, bool, error) {
	return g.GetWithTTL(ctx, key, 0, fetch)
}

// GetWithTTL is Get with a per-key TTL override. The override can only
// shorten the cache-wide TTL; 0 keeps it.
func (g *Gateway[V]) GetWithTTL(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc[V]) (V, bool, error) {
	ctx, span := g.tracer.Start(ctx, "gateway."+g.name, trace.WithAttributes(
		attribute.String("cache.key", key),
	))
	defer span.End()

	if v, ok := g.cache.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return v, true, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	v, err := fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var zero V
		return zero, false, err
	}
	g.cache.SetWithTTL(key, v, ttl)
	return v, false, nil
}
