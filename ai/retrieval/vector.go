package retrieval

import (
	"context"
	"fmt"

	"github.com/wayfarerhq/wayfarer/store"
)

// VectorRetriever ranks place summaries by embedding similarity.
type VectorRetriever struct {
	store *store.Store
	topK  int
}

func NewVectorRetriever(st *store.Store, topK int) *VectorRetriever {
	if topK <= 0 {
		topK = 5
	}
	return &VectorRetriever{store: st, topK: topK}
}

func (r *VectorRetriever) Retrieve(ctx context.Context, embedding []float32) ([]Document, error) {
	if len(embedding) == 0 {
		return nil, ErrMissingEmbedding
	}

	results, err := r.store.PlaceVectorSearch(ctx, &store.PlaceVectorSearchOptions{
		Vector: embedding,
		Limit:  r.topK,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	documents := make([]Document, 0, len(results))
	for _, result := range results {
		documents = append(documents, Document{
			UID:     result.Place.UID,
			Name:    result.Place.Name,
			City:    result.Place.City,
			Kind:    result.Place.Kind,
			Summary: result.Place.Summary,
			Score:   result.Score,
		})
	}
	return documents, nil
}
