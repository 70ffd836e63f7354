package store

import (
	"context"

	"github.com/pkg/errors"
)

// CachedAnswer is a finalized answer stored under the embedding of the query
// that produced it. Entries are written once and never updated; eviction and
// expiry are the only ways an entry disappears.
type CachedAnswer struct {
	ID     int32
	UID    string
	Query  string
	Answer string

	// Embedding is populated on writes only; nearest-neighbor results omit
	// it since the similarity score already carries the comparison.
	Embedding []float32

	CreatedTs int64
}

// CachedAnswerWithScore pairs a cached answer with its cosine similarity to
// the probe vector.
type CachedAnswerWithScore struct {
	CachedAnswer *CachedAnswer
	Score        float32
}

type UpsertCachedAnswer struct {
	UID       string
	Query     string
	Answer    string
	Embedding []float32
	CreatedTs int64
}

func (u *UpsertCachedAnswer) Validate() error {
	if u.UID == "" {
		return errors.New("uid is required")
	}
	if len(u.Embedding) == 0 {
		return errors.New("embedding cannot be empty")
	}
	if u.Answer == "" {
		return errors.New("answer cannot be empty")
	}
	return nil
}

// NearestCachedAnswerOptions configures a single-nearest-neighbor probe over
// the answer cache.
type NearestCachedAnswerOptions struct {
	Vector []float32

	// CreatedAfter excludes entries older than the given Unix timestamp.
	// Zero disables the cutoff.
	CreatedAfter int64
}

func (o *NearestCachedAnswerOptions) Validate() error {
	if len(o.Vector) == 0 {
		return errors.New("vector cannot be empty")
	}
	return nil
}

func (s *Store) UpsertCachedAnswer(ctx context.Context, upsert *UpsertCachedAnswer) (*CachedAnswer, error) {
	if err := upsert.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid cached answer upsert")
	}
	return s.driver.UpsertCachedAnswer(ctx, upsert)
}

// NearestCachedAnswer returns the most similar non-expired entry, or nil when
// the cache is empty. Ties on similarity resolve to the most recent entry.
func (s *Store) NearestCachedAnswer(ctx context.Context, opts *NearestCachedAnswerOptions) (*CachedAnswerWithScore, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid nearest options")
	}
	return s.driver.NearestCachedAnswer(ctx, opts)
}

// PurgeExpiredCachedAnswers deletes entries created before the cutoff and
// returns how many rows were removed.
func (s *Store) PurgeExpiredCachedAnswers(ctx context.Context, cutoffTs int64) (int64, error) {
	return s.driver.PurgeExpiredCachedAnswers(ctx, cutoffTs)
}

// CountCachedAnswers reports the current number of cache entries.
func (s *Store) CountCachedAnswers(ctx context.Context) (int64, error) {
	return s.driver.CountCachedAnswers(ctx)
}

// TrimCachedAnswers deletes the oldest entries until at most keep remain.
// It returns how many rows were removed.
func (s *Store) TrimCachedAnswers(ctx context.Context, keep int64) (int64, error) {
	if keep < 0 {
		return 0, errors.Errorf("keep %d must be non-negative", keep)
	}
	return s.driver.TrimCachedAnswers(ctx, keep)
}
