package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryBackend keeps entries in process memory. The list runs newest to
// oldest; since entries are write-once and reads never reorder them, evicting
// from the back is exact insertion-order eviction.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries *list.List // front = newest
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: list.New()}
}

func (b *MemoryBackend) Insert(_ context.Context, entry *Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries.PushFront(entry)
	return nil
}

func (b *MemoryBackend) Nearest(_ context.Context, vector []float32, cutoff time.Time) (*Match, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	// Walking newest-first with a strictly-greater comparison keeps the most
	// recent entry on similarity ties.
	var best *Match
	for e := b.entries.Front(); e != nil; e = e.Next() {
		entry := e.Value.(*Entry)
		if entry.CreatedAt.Before(cutoff) {
			continue
		}
		sim := cosineSimilarity(vector, entry.Embedding)
		if best == nil || sim > best.Similarity {
			best = &Match{Entry: entry, Similarity: sim}
		}
	}
	return best, nil
}

func (b *MemoryBackend) Count(_ context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.entries.Len(), nil
}

func (b *MemoryBackend) EvictOldest(_ context.Context, keep int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for b.entries.Len() > keep {
		back := b.entries.Back()
		if back == nil {
			break
		}
		b.entries.Remove(back)
		removed++
	}
	return removed, nil
}

func (b *MemoryBackend) PurgeExpired(_ context.Context, cutoff time.Time) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for e := b.entries.Back(); e != nil; {
		entry := e.Value.(*Entry)
		if !entry.CreatedAt.Before(cutoff) {
			// Entries are in insertion order, everything further front is newer.
			break
		}
		prev := e.Prev()
		b.entries.Remove(e)
		removed++
		e = prev
	}
	return removed, nil
}
