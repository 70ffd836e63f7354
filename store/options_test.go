package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlaceVectorSearchOptionsValidate(t *testing.T) {
	opts := &PlaceVectorSearchOptions{Vector: []float32{0.1, 0.2}}
	require.NoError(t, opts.Validate())
	require.Equal(t, 5, opts.Limit, "limit should default")

	opts = &PlaceVectorSearchOptions{Vector: nil, Limit: 10}
	require.Error(t, opts.Validate(), "empty vector should be rejected")

	opts = &PlaceVectorSearchOptions{Vector: []float32{0.1}, Limit: 1001}
	require.Error(t, opts.Validate(), "limit above 1000 should be rejected")
}

func TestRelationSearchOptionsValidate(t *testing.T) {
	opts := &RelationSearchOptions{AnchorTerms: []string{"paris"}}
	require.NoError(t, opts.Validate())
	require.Equal(t, 1, opts.MaxHops)
	require.Equal(t, 30, opts.Limit)

	opts = &RelationSearchOptions{AnchorTerms: nil}
	require.Error(t, opts.Validate(), "empty anchors should be rejected")

	opts = &RelationSearchOptions{AnchorTerms: []string{"paris"}, MaxHops: 3}
	require.Error(t, opts.Validate(), "three hops should be rejected")
}

func TestUpsertCachedAnswerValidate(t *testing.T) {
	upsert := &UpsertCachedAnswer{
		UID:       "abc",
		Query:     "things to do in Lyon",
		Answer:    "Visit the old town.",
		Embedding: []float32{0.3, 0.4},
	}
	require.NoError(t, upsert.Validate())

	upsert.Embedding = nil
	require.Error(t, upsert.Validate(), "missing embedding should be rejected")

	upsert.Embedding = []float32{0.3}
	upsert.Answer = ""
	require.Error(t, upsert.Validate(), "empty answer should be rejected")
}

func TestNearestCachedAnswerOptionsValidate(t *testing.T) {
	opts := &NearestCachedAnswerOptions{Vector: []float32{1}}
	require.NoError(t, opts.Validate())

	opts = &NearestCachedAnswerOptions{}
	require.Error(t, opts.Validate())
}
