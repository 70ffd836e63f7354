package store

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/wayfarerhq/wayfarer/internal/profile"
	"github.com/wayfarerhq/wayfarer/internal/version"
)

// SystemSettingSchemaVersion is the setting key holding the schema version
// the database was last migrated to.
const SystemSettingSchemaVersion = "schema_version"

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// Migrate brings the database schema up to date. The schema statements are
// idempotent, so the heavy lifting is delegated to the driver; this layer
// only tracks which schema version the data directory has seen, and refuses
// to run against data written by a newer binary.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.driver.Migrate(ctx); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}

	current := version.GetSchemaVersion(s.profile.Version)
	stored, err := s.driver.GetSystemSetting(ctx, SystemSettingSchemaVersion)
	if err != nil {
		return errors.Wrap(err, "failed to read schema version")
	}
	if stored == "" {
		return s.driver.UpsertSystemSetting(ctx, SystemSettingSchemaVersion, current)
	}
	if version.IsVersionGreaterThan(stored, current) {
		return errors.Errorf("database schema %s is newer than binary schema %s, please upgrade", stored, current)
	}
	if version.IsVersionGreaterThan(current, stored) {
		slog.Info("database schema upgraded", "from", stored, "to", current)
		return s.driver.UpsertSystemSetting(ctx, SystemSettingSchemaVersion, current)
	}
	return nil
}

// IsInitialized reports whether the schema has been created.
func (s *Store) IsInitialized(ctx context.Context) (bool, error) {
	return s.driver.IsInitialized(ctx)
}
