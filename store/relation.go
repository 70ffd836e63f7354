package store

import (
	"context"

	"github.com/pkg/errors"
)

// Relation is a directed edge between two places, e.g.
// ("versailles-palace", "near", "paris").
type Relation struct {
	ID         int32
	SubjectUID string
	Relation   string
	ObjectUID  string
	CreatedTs  int64
}

// RelationFact is a relation joined with both endpoint places, shaped for
// prompt construction. Depth is the traversal distance from the query anchor:
// 1 for edges touching an anchor place directly, 2 for edges reached through
// a depth-1 neighbor.
type RelationFact struct {
	SubjectUID    string
	SubjectName   string
	Relation      string
	ObjectUID     string
	ObjectName    string
	ObjectSummary string
	Depth         int32
}

type UpsertRelation struct {
	SubjectUID string
	Relation   string
	ObjectUID  string
}

func (u *UpsertRelation) Validate() error {
	if u.SubjectUID == "" || u.ObjectUID == "" {
		return errors.New("subject and object are required")
	}
	if u.Relation == "" {
		return errors.New("relation is required")
	}
	return nil
}

// RelationSearchOptions configures a graph expansion around places whose
// names match any of AnchorTerms.
type RelationSearchOptions struct {
	// AnchorTerms are lowercased candidate place names extracted from a
	// query, e.g. ["paris", "eiffel tower"].
	AnchorTerms []string

	// MaxHops bounds the traversal depth. Only 1 and 2 are supported.
	MaxHops int

	Limit int
}

func (o *RelationSearchOptions) Validate() error {
	if len(o.AnchorTerms) == 0 {
		return errors.New("anchor terms cannot be empty")
	}
	if o.MaxHops <= 0 {
		o.MaxHops = 1
	}
	if o.MaxHops > 2 {
		return errors.Errorf("max hops %d exceeds maximum allowed value of 2", o.MaxHops)
	}
	if o.Limit <= 0 {
		o.Limit = 30
	}
	if o.Limit > 1000 {
		return errors.Errorf("limit %d exceeds maximum allowed value of 1000", o.Limit)
	}
	return nil
}

func (s *Store) UpsertRelation(ctx context.Context, upsert *UpsertRelation) (*Relation, error) {
	if err := upsert.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid relation upsert")
	}
	return s.driver.UpsertRelation(ctx, upsert)
}

func (s *Store) SearchRelationFacts(ctx context.Context, opts *RelationSearchOptions) ([]*RelationFact, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid relation search options")
	}
	return s.driver.SearchRelationFacts(ctx, opts)
}
