package sqlite

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/wayfarerhq/wayfarer/store"
)

func (d *DB) UpsertRelation(ctx context.Context, upsert *store.UpsertRelation) (*store.Relation, error) {
	stmt := `
		INSERT INTO place_relation (subject_uid, relation, object_uid, created_ts)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(subject_uid, relation, object_uid) DO UPDATE SET subject_uid = excluded.subject_uid
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
// match the anchor terms. Depth-1 facts are edges touching an anchor on
// either side; depth-2 facts are edges touching a depth-1 endpoint. Results
// are ordered (depth, subject, relation, object) and deduplicated.
func (d *DB) SearchRelationFacts(ctx context.Context, opts *store.RelationSearchOptions) ([]*store.RelationFact, error) {
	terms := lowered(opts.AnchorTerms)
	marks := placeholders(len(terms))

	args := make([]any, 0, len(terms)*2+1)
	for _, t := range terms {
		args = append(args, t)
	}
	for _, t := range terms {
		args = append(args, t)
	}
	args = append(args, opts.Limit)

	depth1, err := d.queryRelationFacts(ctx, `
		WHERE LOWER(s.name) IN (`+marks+`) OR LOWER(o.name) IN (`+marks+`)`, args, 1)
	if err != nil {
		return nil, err
	}

	facts := depth1
	if opts.MaxHops >= 2 && len(depth1) > 0 && len(depth1) < opts.Limit {
		frontier := frontierUIDs(depth1)
		marks := placeholders(len(frontier))

		args := make([]any, 0, len(frontier)*2+1)
		for _, uid := range frontier {
			args = append(args, uid)
		}
		for _, uid := range frontier {
			args = append(args, uid)
		}
		args = append(args, opts.Limit)

		depth2, err := d.queryRelationFacts(ctx, `
			WHERE r.subject_uid IN (`+marks+`) OR r.object_uid IN (`+marks+`)`, args, 2)
		if err != nil {
			return nil, err
		}
		facts = append(facts, depth2...)
	}

	facts = dedupeFacts(facts)
	if len(facts) > opts.Limit {
		facts = facts[:opts.Limit]
	}
	return facts, nil
}

func (d *DB) queryRelationFacts(ctx context.Context, whereClause string, args []any, depth int32) ([]*store.RelationFact, error) {
	query := `
		SELECT r.subject_uid, s.name, r.relation, r.object_uid, o.name, o.summary
		FROM place_relation r
		JOIN place s ON s.uid = r.subject_uid
		JOIN place o ON o.uid = r.object_uid
		` + whereClause + `
		ORDER BY r.subject_uid, r.relation, r.object_uid
		LIMIT ?
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

func lowered(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, strings.ToLower(t))
	}
	return out
}

// frontierUIDs collects the sorted set of place UIDs touched by the given
// facts, used as anchors for the next hop.
func frontierUIDs(facts []*store.RelationFact) []string {
	seen := map[string]bool{}
	for _, f := range facts {
		seen[f.SubjectUID] = true
		seen[f.ObjectUID] = true
	}
	uids := make([]string, 0, len(seen))
	for uid := range seen {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}

// dedupeFacts drops repeated edges, keeping the lowest-depth occurrence.
// Input is ordered depth-1 first, so first-wins is depth-wins.
func dedupeFacts(facts []*store.RelationFact) []*store.RelationFact {
	seen := map[string]bool{}
	out := make([]*store.RelationFact, 0, len(facts))
	for _, f := range facts {
		key := f.SubjectUID + "\x00" + f.Relation + "\x00" + f.ObjectUID
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}
