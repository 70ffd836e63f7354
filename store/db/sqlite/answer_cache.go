package sqlite

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/wayfarerhq/wayfarer/store"
)

func (d *DB) UpsertCachedAnswer(ctx context.Context, upsert *store.UpsertCachedAnswer) (*store.CachedAnswer, error) {
	createdTs := upsert.CreatedTs
	if createdTs == 0 {
		createdTs = time.Now().Unix()
	}

	stmt := `
		INSERT INTO answer_cache (uid, query, answer, embedding, created_ts)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`
	entry := store.CachedAnswer{
		UID:       upsert.UID,
		Query:     upsert.Query,
		Answer:    upsert.Answer,
		Embedding: upsert.Embedding,
		CreatedTs: createdTs,
	}
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.UID,
		upsert.Query,
		upsert.Answer,
		vectorToBlob(upsert.Embedding),
		createdTs,
	).Scan(&entry.ID); err != nil {
		return nil, errors.Wrap(err, "failed to insert cached answer")
	}
	return &entry, nil
}

func (d *DB) NearestCachedAnswer(ctx context.Context, opts *store.NearestCachedAnswerOptions) (*store.CachedAnswerWithScore, error) {
	// Newest-first scan with strictly-greater comparison keeps the most
	// recent entry on similarity ties.
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, uid, query, answer, embedding, created_ts
		FROM answer_cache
		WHERE created_ts >= ?
		ORDER BY created_ts DESC, id DESC
		LIMIT ?
	`, opts.CreatedAfter, vectorSearchCandidateLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load cached answers")
	}
	defer rows.Close()

	var best *store.CachedAnswerWithScore
	for rows.Next() {
		var entry store.CachedAnswer
		var blob []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.UID,
			&entry.Query,
			&entry.Answer,
			&blob,
			&entry.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan cached answer")
		}
		vector, err := blobToVector(blob)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode embedding for cached answer %s", entry.UID)
		}

		score := cosineSimilarity(opts.Vector, vector)
		if best == nil || score > best.Score {
			best = &store.CachedAnswerWithScore{CachedAnswer: &entry, Score: score}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate cached answers")
	}
	return best, nil
}

func (d *DB) PurgeExpiredCachedAnswers(ctx context.Context, cutoffTs int64) (int64, error) {
	result, err := d.db.ExecContext(ctx, "DELETE FROM answer_cache WHERE created_ts < ?", cutoffTs)
	if err != nil {
		return 0, errors.Wrap(err, "failed to purge cached answers")
	}
	return result.RowsAffected()
}

func (d *DB) CountCachedAnswers(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM answer_cache").Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count cached answers")
	}
	return count, nil
}

func (d *DB) TrimCachedAnswers(ctx context.Context, keep int64) (int64, error) {
	result, err := d.db.ExecContext(ctx, `
		DELETE FROM answer_cache
		WHERE id NOT IN (
			SELECT id FROM answer_cache ORDER BY created_ts DESC, id DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, errors.Wrap(err, "failed to trim cached answers")
	}
	return result.RowsAffected()
}
