package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"strings"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/wayfarerhq/wayfarer/internal/profile"
	"github.com/wayfarerhq/wayfarer/store"
)

// SQLite is supported on a best-effort basis for development and testing.
// Vector search runs brute-force in Go over BLOB-encoded embeddings, which
// is fine for seed-sized corpora and wrong for production ones. Use the
// postgres driver with pgvector for anything beyond local experiments.

//go:embed migration.sql
var migrationSQL string

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database behind profile.DSN.
//
// Pragma notes:
// - foreign_keys(0): explicit about the SQLite default, no surprises on upgrades.
// - busy_timeout(10000): wait for locks instead of failing immediately.
// - journal_mode(WAL): the recommended mode, prevents most locking issues.
// With the modernc.org/sqlite driver each pragma must be prefixed with `_pragma=`.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// A single connection is optimal for SQLite with WAL; the file is local,
	// so no lifetime or idle limits either.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	driver := DB{db: sqliteDB, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, migrationSQL); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}
	return nil
}

func (d *DB) IsInitialized(ctx context.Context) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type='table' AND name='place')").Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check if database is initialized")
	}
	return exists, nil
}

func (d *DB) GetSystemSetting(ctx context.Context, name string) (string, error) {
	var value string
	err := d.db.QueryRowContext(ctx, "SELECT value FROM system_setting WHERE name = ?", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to get system setting")
	}
	return value, nil
}

func (d *DB) UpsertSystemSetting(ctx context.Context, name, value string) error {
	stmt := `
		INSERT INTO system_setting (name, value)
		VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`
	if _, err := d.db.ExecContext(ctx, stmt, name, value); err != nil {
		return errors.Wrap(err, "failed to upsert system setting")
	}
	return nil
}

// placeholders returns n comma-separated SQLite positional markers.
func placeholders(n int) string {
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, "?")
	}
	return strings.Join(list, ", ")
}
