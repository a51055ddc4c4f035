// Package sqlite implements the book store on SQLite.
package sqlite

import (
	"context"
	"database/sql/driver"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"golang.org/x/text/cases"
	"modernc.org/sqlite"

	"github.com/abctag/abc-server/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const driverName = "sqlite"

var registerOnce sync.Once

// registerFunctions installs casefold(text): surrounding Unicode whitespace
// trimmed, then a full Unicode case fold. SQLite's trim strips only spaces and
// NOCASE and LIKE fold ASCII only.
func registerFunctions() {
	registerOnce.Do(func() {
		sqlx.BindDriver(driverName, sqlx.QUESTION)
		sqlite.MustRegisterDeterministicScalarFunction("casefold", 1,
			func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				switch v := args[0].(type) {
				case nil:
					return nil, nil
				case string:
					return cases.Fold().String(strings.TrimSpace(v)), nil
				case []byte:
					return cases.Fold().String(strings.TrimSpace(string(v))), nil
				default:
					return v, nil
				}
			})
	})
}

// Store provides SQLite-backed persistence for book records.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger

	searchIndexer store.SearchIndexer
}

var _ store.BookStore = (*Store)(nil)

// Open creates a new SQLite store at the given path.
// It configures WAL mode and connection pragmas, and applies pending migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	registerFunctions()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sqlx.Open(driverName, dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := migrate(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:            db,
		logger:        logger,
		searchIndexer: store.NewNoopSearchIndexer(),
	}, nil
}

// dsn applies the pragmas to every pooled connection, not just the first.
func dsn(path string) string {
	q := url.Values{}
	for _, pragma := range []string{
		"journal_mode(WAL)",
		"synchronous(NORMAL)",
		"foreign_keys(ON)",
		"busy_timeout(5000)",
	} {
		q.Add("_pragma", pragma)
	}
	return "file:" + path + "?" + q.Encode()
}

func migrate(ctx context.Context, db *sqlx.DB, logger *slog.Logger) error {
	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db.DB, migrations)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		logger.Info("migration applied",
			"version", r.Source.Version,
			"file", r.Source.Path,
			"duration", r.Duration,
		)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for maintenance commands and tests.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SetSearchIndexer sets the search indexer used for maintaining the search index.
func (s *Store) SetSearchIndexer(indexer store.SearchIndexer) {
	s.searchIndexer = indexer
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
