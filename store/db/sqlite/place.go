package sqlite

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/wayfarerhq/wayfarer/store"
)

// vectorSearchCandidateLimit bounds how many rows the brute-force ranking
// loads. Beyond this, use the postgres driver.
const vectorSearchCandidateLimit = 1000

func (d *DB) UpsertPlace(ctx context.Context, upsert *store.UpsertPlace) (*store.Place, error) {
	var blob []byte
	if len(upsert.Embedding) > 0 {
		blob = vectorToBlob(upsert.Embedding)
	}

	stmt := `
		INSERT INTO place (uid, name, city, kind, summary, embedding, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET
			name = excluded.name,
			city = excluded.city,
			kind = excluded.kind,
			summary = excluded.summary,
			embedding = excluded.embedding
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
		blob,
		time.Now().Unix(),
	).Scan(&place.ID, &place.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to upsert place")
	}
	return &place, nil
}

func (d *DB) ListPlaces(ctx context.Context, find *store.FindPlace) ([]*store.Place, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = ?"), append(args, *v)
	}
	if v := find.Name; v != nil {
		where, args = append(where, "LOWER(name) = LOWER(?)"), append(args, *v)
	}

	query := `
		SELECT id, uid, name, city, kind, summary, embedding, created_ts
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
		place, _, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, place)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate places")
	}
	return list, nil
}

func (d *DB) PlaceVectorSearch(ctx context.Context, opts *store.PlaceVectorSearchOptions) ([]*store.PlaceWithScore, error) {
	// Brute-force ranking: load the most recent embedded places and score
	// them in Go. SQLite has no vector index.
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, uid, name, city, kind, summary, embedding, created_ts
		FROM place
		WHERE embedding IS NOT NULL
		ORDER BY id DESC
		LIMIT ?
	`, vectorSearchCandidateLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load vector search candidates")
	}
	defer rows.Close()

	list := []*store.PlaceWithScore{}
	for rows.Next() {
		place, vector, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, &store.PlaceWithScore{
			Place: place,
			Score: cosineSimilarity(opts.Vector, vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate vector search candidates")
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}
		return list[i].Place.UID < list[j].Place.UID
	})
	if len(list) > opts.Limit {
		list = list[:opts.Limit]
	}
	return list, nil
}

func scanPlace(rows interface{ Scan(...any) error }) (*store.Place, []float32, error) {
	var place store.Place
	var blob []byte
	if err := rows.Scan(
		&place.ID,
		&place.UID,
		&place.Name,
		&place.City,
		&place.Kind,
		&place.Summary,
		&blob,
		&place.CreatedTs,
	); err != nil {
		return nil, nil, errors.Wrap(err, "failed to scan place")
	}
	var vector []float32
	if len(blob) > 0 {
		decoded, err := blobToVector(blob)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to decode embedding for place %s", place.UID)
		}
		vector = decoded
	}
	return &place, vector, nil
}
