package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/wayfarerhq/wayfarer/store"
)

func (d *DB) UpsertPlace(ctx context.Context, upsert *store.UpsertPlace) (*store.Place, error) {
	var embedding any
	if len(upsert.Embedding) > 0 {
		embedding = pgvector.NewVector(upsert.Embedding)
	}

	stmt := `
		INSERT INTO place (uid, name, city, kind, summary, embedding, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (uid) DO UPDATE SET
			name = EXCLUDED.name,
			city = EXCLUDED.city,
			kind = EXCLUDED.kind,
			summary = EXCLUDED.summary,
			embedding = EXCLUDED.embedding
		RETURNING id, created_ts
	`
	place := store.Place{
		UID:     upsert.UID,
		Name:    upsert.Name,
		City:    upsert.City,
		Kind:    upsert.Kind,
		Summary: upsert.Summary,
	}
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.UID,
		upsert.Name,
		upsert.City,
		upsert.Kind,
		upsert.Summary,
		embedding,
		time.Now().Unix(),
	).Scan(&place.ID, &place.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to upsert place")
	}
	return &place, nil
}

func (d *DB) ListPlaces(ctx context.Context, find *store.FindPlace) ([]*store.Place, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Name; v != nil {
		where, args = append(where, "LOWER(name) = LOWER("+placeholder(len(args)+1)+")"), append(args, *v)
	}

	query := `
		SELECT id, uid, name, city, kind, summary, created_ts
		FROM place
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY id
	`
	if v := find.Limit; v != nil {
		query += fmt.Sprintf(" LIMIT %d", *v)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list places")
	}
	defer rows.Close()

	list := []*store.Place{}
	for rows.Next() {
		var place store.Place
		if err := rows.Scan(
			&place.ID,
			&place.UID,
			&place.Name,
			&place.City,
			&place.Kind,
			&place.Summary,
			&place.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan place")
		}
		list = append(list, &place)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate places")
	}
	return list, nil
}

func (d *DB) PlaceVectorSearch(ctx context.Context, opts *store.PlaceVectorSearchOptions) ([]*store.PlaceWithScore, error) {
	// <=> is pgvector cosine distance; similarity = 1 - distance. The uid
	// tiebreak keeps result order stable across runs.
	query := `
		SELECT id, uid, name, city, kind, summary, created_ts,
			1 - (embedding <=> $1) AS score
		FROM place
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $2, uid
		LIMIT $3
	`
	rows, err := d.db.QueryContext(ctx, query,
		pgvector.NewVector(opts.Vector),
		pgvector.NewVector(opts.Vector),
		opts.Limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run vector search")
	}
	defer rows.Close()

	list := []*store.PlaceWithScore{}
	for rows.Next() {
		var place store.Place
		var score float32
		if err := rows.Scan(
			&place.ID,
			&place.UID,
			&place.Name,
			&place.City,
			&place.Kind,
			&place.Summary,
			&place.CreatedTs,
			&score,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan vector search row")
		}
		list = append(list, &store.PlaceWithScore{Place: &place, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate vector search rows")
	}
	return list, nil
}
