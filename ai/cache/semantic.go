package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config configures the semantic cache.
type Config struct {
	// SimilarityThreshold is the minimum cosine similarity for a hit (0-1).
	SimilarityThreshold float32

	// TTL is the time-to-live for cache entries.
	TTL time.Duration

	// MaxEntries caps the cache size; the oldest entries are evicted first.
	MaxEntries int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.92,
		TTL:                 24 * time.Hour,
		MaxEntries:          1000,
	}
}

// Hit is a successful cache probe.
type Hit struct {
	// Answer is the cached answer, returned verbatim.
	Answer string

	// Query is the original query that produced the answer.
	Query string

	// Similarity is the cosine similarity between the probe and the entry.
	Similarity float32
}

// Stats counts cache activity since startup.
type Stats struct {
	Hits           int64
	Misses         int64
	Stores         int64
	StoreFailures  int64
	LookupFailures int64
	Evictions      int64
}

// SemanticCache matches queries by embedding similarity instead of equality.
// It never fails a request: a broken backend degrades every lookup to a miss
// and turns every store into a log line.
type SemanticCache struct {
	cfg     Config
	backend Backend

	stats   Stats
	statsMu sync.Mutex
}

// New creates a semantic cache over the given backend. Out-of-range config
// values fall back to defaults.
func New(cfg Config, backend Backend) *SemanticCache {
	def := DefaultConfig()
	if cfg.SimilarityThreshold <= 0 || cfg.SimilarityThreshold > 1 {
		cfg.SimilarityThreshold = def.SimilarityThreshold
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	return &SemanticCache{cfg: cfg, backend: backend}
}

// Lookup probes the cache with the query embedding. It returns nil on a miss,
// including whenever the backend errors.
func (c *SemanticCache) Lookup(ctx context.Context, query string, embedding []float32) *Hit {
	if len(embedding) == 0 {
		return nil
	}

	cutoff := time.Now().Add(-c.cfg.TTL)
	match, err := c.backend.Nearest(ctx, embedding, cutoff)
	if err != nil {
		slog.Warn("cache lookup failed, treating as miss", "error", err)
		c.record(func(s *Stats) { s.LookupFailures++; s.Misses++ })
		return nil
	}
	if match == nil || match.Similarity < c.cfg.SimilarityThreshold {
		c.record(func(s *Stats) { s.Misses++ })
		return nil
	}

	c.record(func(s *Stats) { s.Hits++ })
	slog.Debug("cache hit",
		"similarity", match.Similarity,
		"cached_query", match.Entry.Query,
	)
	return &Hit{
		Answer:     match.Entry.Answer,
		Query:      match.Entry.Query,
		Similarity: match.Similarity,
	}
}

// Store writes a finalized answer under the query embedding. The answer has
// already been delivered to the caller, so failures are logged and swallowed.
func (c *SemanticCache) Store(ctx context.Context, query, answer string, embedding []float32) {
	if len(embedding) == 0 || answer == "" {
		return
	}

	entry := &Entry{
		UID:       uuid.New().String(),
		Query:     query,
		Answer:    answer,
		Embedding: embedding,
		CreatedAt: time.Now(),
	}
	if err := c.backend.Insert(ctx, entry); err != nil {
		slog.Warn("cache store failed, answer already delivered", "error", err)
		c.record(func(s *Stats) { s.StoreFailures++ })
		return
	}
	c.record(func(s *Stats) { s.Stores++ })

	c.enforceCap(ctx)
}

// PurgeExpired removes entries older than the TTL and returns how many were
// dropped. Intended for a background sweep; lookups already ignore expired
// entries.
func (c *SemanticCache) PurgeExpired(ctx context.Context) (int, error) {
	return c.backend.PurgeExpired(ctx, time.Now().Add(-c.cfg.TTL))
}

// GetStats returns a snapshot of the cache counters.
func (c *SemanticCache) GetStats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

func (c *SemanticCache) enforceCap(ctx context.Context) {
	n, err := c.backend.Count(ctx)
	if err != nil {
		slog.Warn("cache count failed, skipping eviction", "error", err)
		return
	}
	if n <= c.cfg.MaxEntries {
		return
	}
	evicted, err := c.backend.EvictOldest(ctx, c.cfg.MaxEntries)
	if err != nil {
		slog.Warn("cache eviction failed", "error", err)
		return
	}
	if evicted > 0 {
		c.record(func(s *Stats) { s.Evictions += int64(evicted) })
		slog.Debug("cache evicted oldest entries", "count", evicted)
	}
}

func (c *SemanticCache) record(update func(*Stats)) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	update(&c.stats)
}
