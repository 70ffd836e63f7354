// Package cache provides the semantic answer cache: finalized answers are
// stored under the embedding of the query that produced them, and a new
// query reuses an answer when its embedding is close enough.
package cache

import (
	"context"
	"math"
	"time"
)

// Entry is a write-once cache record. Entries are never updated in place;
// expiry and eviction are the only ways one disappears.
type Entry struct {
	UID       string
	Query     string
	Answer    string
	Embedding []float32
	CreatedAt time.Time
}

// Match pairs an entry with its cosine similarity to the probe vector.
type Match struct {
	Entry      *Entry
	Similarity float32
}

// Backend persists cache entries and answers nearest-neighbor probes.
type Backend interface {
	Insert(ctx context.Context, entry *Entry) error

	// Nearest returns the entry most similar to vector among entries created
	// at or after cutoff, or nil when none qualify. Ties on similarity
	// resolve to the most recently inserted entry.
	Nearest(ctx context.Context, vector []float32, cutoff time.Time) (*Match, error)

	Count(ctx context.Context) (int, error)

	// EvictOldest removes entries in insertion order until at most keep
	// remain, returning how many were removed.
	EvictOldest(ctx context.Context, keep int) (int, error)

	// PurgeExpired removes entries created before cutoff.
	PurgeExpired(ctx context.Context, cutoff time.Time) (int, error)
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct float32
	var normA, normB float32

	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
