package store

import (
	"context"

	"github.com/pkg/errors"
)

// Place is a travel knowledge document: an attraction, museum, district,
// restaurant, or any other destination entity the retrieval layer can surface.
type Place struct {
	ID int32

	// UID is the stable external identifier, e.g. "louvre-museum".
	UID string

	Name    string
	City    string
	Kind    string
	Summary string

	CreatedTs int64
}

// PlaceWithScore pairs a place with its similarity score from a vector search.
type PlaceWithScore struct {
	Place *Place
	Score float32
}

type UpsertPlace struct {
	UID       string
	Name      string
	City      string
	Kind      string
	Summary   string
	Embedding []float32
}

func (u *UpsertPlace) Validate() error {
	if u.UID == "" {
		return errors.New("uid is required")
	}
	if u.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type FindPlace struct {
	ID  *int32
	UID *string

	// Name matches the place name case-insensitively.
	Name *string

	Limit *int
}

// PlaceVectorSearchOptions configures a nearest-neighbor search over place
// embeddings.
type PlaceVectorSearchOptions struct {
	Vector []float32
	Limit  int
}

func (o *PlaceVectorSearchOptions) Validate() error {
	if len(o.Vector) == 0 {
		return errors.New("vector cannot be empty")
	}
	if o.Limit <= 0 {
		o.Limit = 5
	}
	if o.Limit > 1000 {
		return errors.Errorf("limit %d exceeds maximum allowed value of 1000", o.Limit)
	}
	return nil
}

func (s *Store) UpsertPlace(ctx context.Context, upsert *UpsertPlace) (*Place, error) {
	if err := upsert.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid place upsert")
	}
	return s.driver.UpsertPlace(ctx, upsert)
}

func (s *Store) ListPlaces(ctx context.Context, find *FindPlace) ([]*Place, error) {
	return s.driver.ListPlaces(ctx, find)
}

func (s *Store) PlaceVectorSearch(ctx context.Context, opts *PlaceVectorSearchOptions) ([]*PlaceWithScore, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid vector search options")
	}
	return s.driver.PlaceVectorSearch(ctx, opts)
}
