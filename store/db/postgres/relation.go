package postgres

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/wayfarerhq/wayfarer/store"
)

func (d *DB) UpsertRelation(ctx context.Context, upsert *store.UpsertRelation) (*store.Relation, error) {
	stmt := `
		INSERT INTO place_relation (subject_uid, relation, object_uid, created_ts)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (subject_uid, relation, object_uid)
			DO UPDATE SET subject_uid = EXCLUDED.subject_uid
		RETURNING id, created_ts
	`
	relation := store.Relation{
		SubjectUID: upsert.SubjectUID,
		Relation:   upsert.Relation,
		ObjectUID:  upsert.ObjectUID,
	}
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.SubjectUID,
		upsert.Relation,
		upsert.ObjectUID,
		time.Now().Unix(),
	).Scan(&relation.ID, &relation.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to upsert relation")
	}
	return &relation, nil
}

// SearchRelationFacts expands the relation graph around places whose names
// match the anchor terms, one or two hops out. Results are ordered
// (depth, subject, relation, object) and deduplicated across hops.
func (d *DB) SearchRelationFacts(ctx context.Context, opts *store.RelationSearchOptions) ([]*store.RelationFact, error) {
	terms := make([]string, 0, len(opts.AnchorTerms))
	for _, t := range opts.AnchorTerms {
		terms = append(terms, strings.ToLower(t))
	}

	depth1, err := d.queryRelationFacts(ctx,
		"WHERE LOWER(s.name) = ANY($1) OR LOWER(o.name) = ANY($2)",
		[]any{pq.Array(terms), pq.Array(terms), opts.Limit}, 1)
	if err != nil {
		return nil, err
	}

	facts := depth1
	if opts.MaxHops >= 2 && len(depth1) > 0 && len(depth1) < opts.Limit {
		frontier := map[string]bool{}
		for _, f := range depth1 {
			frontier[f.SubjectUID] = true
			frontier[f.ObjectUID] = true
		}
		uids := make([]string, 0, len(frontier))
		for uid := range frontier {
			uids = append(uids, uid)
		}
		sort.Strings(uids)

		depth2, err := d.queryRelationFacts(ctx,
			"WHERE r.subject_uid = ANY($1) OR r.object_uid = ANY($2)",
			[]any{pq.Array(uids), pq.Array(uids), opts.Limit}, 2)
		if err != nil {
			return nil, err
		}
		facts = append(facts, depth2...)
	}

	seen := map[string]bool{}
	deduped := make([]*store.RelationFact, 0, len(facts))
	for _, f := range facts {
		key := f.SubjectUID + "\x00" + f.Relation + "\x00" + f.ObjectUID
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, f)
	}
	if len(deduped) > opts.Limit {
		deduped = deduped[:opts.Limit]
	}
	return deduped, nil
}

func (d *DB) queryRelationFacts(ctx context.Context, whereClause string, args []any, depth int32) ([]*store.RelationFact, error) {
	query := `
		SELECT r.subject_uid, s.name, r.relation, r.object_uid, o.name, o.summary
		FROM place_relation r
		JOIN place s ON s.uid = r.subject_uid
		JOIN place o ON o.uid = r.object_uid
		` + whereClause + `
		ORDER BY r.subject_uid, r.relation, r.object_uid
		LIMIT ` + placeholder(len(args)) + `
	`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search relation facts")
	}
	defer rows.Close()

	list := []*store.RelationFact{}
	for rows.Next() {
		fact := store.RelationFact{Depth: depth}
		if err := rows.Scan(
			&fact.SubjectUID,
			&fact.SubjectName,
			&fact.Relation,
			&fact.ObjectUID,
			&fact.ObjectName,
			&fact.ObjectSummary,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan relation fact")
		}
		list = append(list, &fact)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate relation facts")
	}
	return list, nil
}
