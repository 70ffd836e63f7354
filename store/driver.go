package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	Migrate(ctx context.Context) error
	IsInitialized(ctx context.Context) (bool, error)

	GetSystemSetting(ctx context.Context, name string) (string, error)
	UpsertSystemSetting(ctx context.Context, name, value string) error

	UpsertPlace(ctx context.Context, upsert *UpsertPlace) (*Place, error)
	ListPlaces(ctx context.Context, find *FindPlace) ([]*Place, error)
	PlaceVectorSearch(ctx context.Context, opts *PlaceVectorSearchOptions) ([]*PlaceWithScore, error)

	UpsertRelation(ctx context.Context, upsert *UpsertRelation) (*Relation, error)
	SearchRelationFacts(ctx context.Context, opts *RelationSearchOptions) ([]*RelationFact, error)

	UpsertCachedAnswer(ctx context.Context, upsert *UpsertCachedAnswer) (*CachedAnswer, error)
	NearestCachedAnswer(ctx context.Context, opts *NearestCachedAnswerOptions) (*CachedAnswerWithScore, error)
	PurgeExpiredCachedAnswers(ctx context.Context, cutoffTs int64) (int64, error)
	CountCachedAnswers(ctx context.Context) (int64, error)
	TrimCachedAnswers(ctx context.Context, keep int64) (int64, error)
}
