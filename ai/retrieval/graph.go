package retrieval

import (
	"context"
	"fmt"

	"github.com/wayfarerhq/wayfarer/store"
)

// GraphRetriever expands relation facts around the place names mentioned in
// the query text. It works without an embedding, so it stays available when
// the embedding provider is down.
type GraphRetriever struct {
	store    *store.Store
	maxFacts int
	maxHops  int
}

func NewGraphRetriever(st *store.Store, maxFacts, maxHops int) *GraphRetriever {
	if maxFacts <= 0 {
		maxFacts = 30
	}
	if maxHops <= 0 {
		maxHops = 2
	}
	return &GraphRetriever{store: st, maxFacts: maxFacts, maxHops: maxHops}
}

func (r *GraphRetriever) Retrieve(ctx context.Context, query string) ([]Fact, error) {
	terms := AnchorTerms(query)
	if len(terms) == 0 {
		// Nothing to anchor on is an empty result, not a failure.
		return []Fact{}, nil
	}

	results, err := r.store.SearchRelationFacts(ctx, &store.RelationSearchOptions{
		AnchorTerms: terms,
		MaxHops:     r.maxHops,
		Limit:       r.maxFacts,
	})
	if err != nil {
		return nil, fmt.Errorf("relation search failed: %w", err)
	}

	facts := make([]Fact, 0, len(results))
	for _, result := range results {
		facts = append(facts, Fact{
			SubjectName:   result.SubjectName,
			Relation:      result.Relation,
			ObjectName:    result.ObjectName,
			ObjectSummary: result.ObjectSummary,
			Depth:         result.Depth,
		})
	}
	return facts, nil
}
