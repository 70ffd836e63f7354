package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/wayfarerhq/wayfarer/store"
)

// StoreBackend persists the cache in the main database, surviving restarts
// and shared by every replica pointing at the same instance.
type StoreBackend struct {
	store *store.Store
}

func NewStoreBackend(st *store.Store) *StoreBackend {
	return &StoreBackend{store: st}
}

func (b *StoreBackend) Insert(ctx context.Context, entry *Entry) error {
	_, err := b.store.UpsertCachedAnswer(ctx, &store.UpsertCachedAnswer{
		UID:       entry.UID,
		Query:     entry.Query,
		Answer:    entry.Answer,
		Embedding: entry.Embedding,
		CreatedTs: entry.CreatedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("insert cached answer: %w", err)
	}
	return nil
}

func (b *StoreBackend) Nearest(ctx context.Context, vector []float32, cutoff time.Time) (*Match, error) {
	result, err := b.store.NearestCachedAnswer(ctx, &store.NearestCachedAnswerOptions{
		Vector:       vector,
		CreatedAfter: cutoff.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("nearest cached answer: %w", err)
	}
	if result == nil {
		return nil, nil
	}
	return &Match{
		Entry: &Entry{
			UID:       result.CachedAnswer.UID,
			Query:     result.CachedAnswer.Query,
			Answer:    result.CachedAnswer.Answer,
			CreatedAt: time.Unix(result.CachedAnswer.CreatedTs, 0),
		},
		Similarity: result.Score,
	}, nil
}

func (b *StoreBackend) Count(ctx context.Context) (int, error) {
	n, err := b.store.CountCachedAnswers(ctx)
	if err != nil {
		return 0, fmt.Errorf("count cached answers: %w", err)
	}
	return int(n), nil
}

func (b *StoreBackend) EvictOldest(ctx context.Context, keep int) (int, error) {
	n, err := b.store.TrimCachedAnswers(ctx, int64(keep))
	if err != nil {
		return 0, fmt.Errorf("trim cached answers: %w", err)
	}
	return int(n), nil
}

func (b *StoreBackend) PurgeExpired(ctx context.Context, cutoff time.Time) (int, error) {
	n, err := b.store.PurgeExpiredCachedAnswers(ctx, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("purge cached answers: %w", err)
	}
	return int(n), nil
}
