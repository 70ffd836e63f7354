package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(cfg Config) (*SemanticCache, *MemoryBackend) {
	backend := NewMemoryBackend()
	return New(cfg, backend), backend
}

func TestSemanticCache_HitAboveThreshold(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(Config{
		SimilarityThreshold: 0.9,
		TTL:                 time.Hour,
		MaxEntries:          100,
	})

	stored := []float32{1, 0, 0}
	cache.Store(ctx, "what to do in Paris", "Visit the Louvre.", stored)

	// Near-identical embedding, similarity well above 0.9.
	probe := []float32{0.99, 0.1, 0}
	hit := cache.Lookup(ctx, "things to do in Paris", probe)
	require.NotNil(t, hit)
	assert.Equal(t, "Visit the Louvre.", hit.Answer)
	assert.Equal(t, "what to do in Paris", hit.Query)
	assert.Greater(t, hit.Similarity, float32(0.9))
}

func TestSemanticCache_MissBelowThreshold(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(Config{
		SimilarityThreshold: 0.9,
		TTL:                 time.Hour,
		MaxEntries:          100,
	})

	cache.Store(ctx, "what to do in Paris", "Visit the Louvre.", []float32{1, 0, 0})

	// Orthogonal embedding, similarity 0.
	hit := cache.Lookup(ctx, "best ramen in Tokyo", []float32{0, 1, 0})
	assert.Nil(t, hit)

	stats := cache.GetStats()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestSemanticCache_ThresholdIsInclusive(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(Config{
		SimilarityThreshold: 1.0,
		TTL:                 time.Hour,
		MaxEntries:          100,
	})

	vec := []float32{1, 0, 0}
	cache.Store(ctx, "q", "a", vec)

	// Identical vectors produce similarity exactly 1.0, which must hit.
	hit := cache.Lookup(ctx, "q2", vec)
	require.NotNil(t, hit)
	assert.Equal(t, float32(1.0), hit.Similarity)
}

func TestSemanticCache_TieBreaksToMostRecent(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(Config{
		SimilarityThreshold: 0.9,
		TTL:                 time.Hour,
		MaxEntries:          100,
	})

	vec := []float32{1, 0, 0}
	cache.Store(ctx, "q1", "older answer", vec)
	cache.Store(ctx, "q2", "newer answer", vec)

	hit := cache.Lookup(ctx, "q3", vec)
	require.NotNil(t, hit)
	assert.Equal(t, "newer answer", hit.Answer)
}

func TestSemanticCache_Expiration(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(Config{
		SimilarityThreshold: 0.9,
		TTL:                 100 * time.Millisecond,
		MaxEntries:          100,
	})

	vec := []float32{1, 0, 0}
	cache.Store(ctx, "q", "a", vec)

	require.NotNil(t, cache.Lookup(ctx, "q", vec))

	time.Sleep(150 * time.Millisecond)

	assert.Nil(t, cache.Lookup(ctx, "q", vec), "expired entry should not hit")
}

func TestSemanticCache_EvictsOldestBeyondCap(t *testing.T) {
	ctx := context.Background()
	cache, backend := newTestCache(Config{
		SimilarityThreshold: 0.9,
		TTL:                 time.Hour,
		MaxEntries:          2,
	})

	v1 := []float32{1, 0, 0}
	v2 := []float32{0, 1, 0}
	v3 := []float32{0, 0, 1}
	cache.Store(ctx, "q1", "a1", v1)
	cache.Store(ctx, "q2", "a2", v2)
	cache.Store(ctx, "q3", "a3", v3)

	n, err := backend.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Nil(t, cache.Lookup(ctx, "q1", v1), "oldest entry should be evicted")
	require.NotNil(t, cache.Lookup(ctx, "q3", v3))

	stats := cache.GetStats()
	assert.Equal(t, int64(1), stats.Evictions)
}

func TestSemanticCache_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	cache, backend := newTestCache(Config{
		SimilarityThreshold: 0.9,
		TTL:                 50 * time.Millisecond,
		MaxEntries:          100,
	})

	cache.Store(ctx, "q", "a", []float32{1, 0, 0})
	time.Sleep(80 * time.Millisecond)

	purged, err := cache.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	n, err := backend.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// brokenBackend fails every operation.
type brokenBackend struct{}

func (brokenBackend) Insert(context.Context, *Entry) error { return errors.New("backend down") }
func (brokenBackend) Nearest(context.Context, []float32, time.Time) (*Match, error) {
	return nil, errors.New("backend down")
}
func (brokenBackend) Count(context.Context) (int, error) { return 0, errors.New("backend down") }
func (brokenBackend) EvictOldest(context.Context, int) (int, error) {
	return 0, errors.New("backend down")
}
func (brokenBackend) PurgeExpired(context.Context, time.Time) (int, error) {
	return 0, errors.New("backend down")
}

func TestSemanticCache_LookupFailureIsMiss(t *testing.T) {
	ctx := context.Background()
	cache := New(Config{SimilarityThreshold: 0.9, TTL: time.Hour, MaxEntries: 10}, brokenBackend{})

	hit := cache.Lookup(ctx, "q", []float32{1, 0, 0})
	assert.Nil(t, hit)

	stats := cache.GetStats()
	assert.Equal(t, int64(1), stats.LookupFailures)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestSemanticCache_StoreFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	cache := New(Config{SimilarityThreshold: 0.9, TTL: time.Hour, MaxEntries: 10}, brokenBackend{})

	// Must not panic or surface the error.
	cache.Store(ctx, "q", "a", []float32{1, 0, 0})

	stats := cache.GetStats()
	assert.Equal(t, int64(1), stats.StoreFailures)
	assert.Equal(t, int64(0), stats.Stores)
}

func TestSemanticCache_EmptyEmbeddingNeverStoresOrHits(t *testing.T) {
	ctx := context.Background()
	cache, backend := newTestCache(Config{SimilarityThreshold: 0.9, TTL: time.Hour, MaxEntries: 10})

	cache.Store(ctx, "q", "a", nil)
	n, err := backend.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Nil(t, cache.Lookup(ctx, "q", nil))
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1.0, 2.0, 3.0}
	b := []float32{1.0, 2.0, 3.0}
	assert.InDelta(t, 1.0, cosineSimilarity(a, b), 0.001)

	c := []float32{1.0, 0.0, 0.0}
	d := []float32{0.0, 1.0, 0.0}
	assert.InDelta(t, 0.0, cosineSimilarity(c, d), 0.001)

	e := []float32{1.0, 0.0, 0.0}
	f := []float32{-1.0, 0.0, 0.0}
	assert.InDelta(t, -1.0, cosineSimilarity(e, f), 0.001)

	// Mismatched lengths score zero.
	g := []float32{1.0, 2.0}
	h := []float32{1.0, 2.0, 3.0}
	assert.Equal(t, float32(0), cosineSimilarity(g, h))

	// Zero vectors score zero.
	zero := []float32{0, 0, 0}
	assert.Equal(t, float32(0), cosineSimilarity(zero, e))
	assert.Equal(t, float32(0), cosineSimilarity(e, zero))
}
