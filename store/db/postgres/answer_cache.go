package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pgvector/pgvector-go"
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
		VALUES ($1, $2, $3, $4, $5)
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
		pgvector.NewVector(upsert.Embedding),
		createdTs,
	).Scan(&entry.ID); err != nil {
		return nil, errors.Wrap(err, "failed to insert cached answer")
	}
	return &entry, nil
}

func (d *DB) NearestCachedAnswer(ctx context.Context, opts *store.NearestCachedAnswerOptions) (*store.CachedAnswerWithScore, error) {
	// Ties on distance resolve to the most recent entry.
	query := `
		SELECT id, uid, query, answer, created_ts,
			1 - (embedding <=> $1) AS score
		FROM answer_cache
		WHERE created_ts >= $2
		ORDER BY embedding <=> $3, created_ts DESC, id DESC
		LIMIT 1
	`
	var entry store.CachedAnswer
	var score float32
	err := d.db.QueryRowContext(ctx, query,
		pgvector.NewVector(opts.Vector),
		opts.CreatedAfter,
		pgvector.NewVector(opts.Vector),
	).Scan(
		&entry.ID,
		&entry.UID,
		&entry.Query,
		&entry.Answer,
		&entry.CreatedTs,
		&score,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find nearest cached answer")
	}
	return &store.CachedAnswerWithScore{CachedAnswer: &entry, Score: score}, nil
}

func (d *DB) PurgeExpiredCachedAnswers(ctx context.Context, cutoffTs int64) (int64, error) {
	result, err := d.db.ExecContext(ctx, "DELETE FROM answer_cache WHERE created_ts < $1", cutoffTs)
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
			SELECT id FROM answer_cache ORDER BY created_ts DESC, id DESC LIMIT $1
		)
	`, keep)
	if err != nil {
		return 0, errors.Wrap(err, "failed to trim cached answers")
	}
	return result.RowsAffected()
}
