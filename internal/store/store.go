// Package store records recession fit results in SQLite or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a fit ID does not exist
var ErrNotFound = errors.New("fit not found")

// Backend names accepted by Open
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type dialect struct {
	driver   string
	blobType string
	numbered bool // $1, $2... placeholders instead of ?
}

var dialects = map[string]dialect{
	BackendSQLite:   {driver: "sqlite", blobType: "BLOB"},
	BackendPostgres: {driver: "pgx", blobType: "BYTEA", numbered: true},
}

// Store is a fit result store over database/sql
type Store struct {
	db      *sql.DB
	dialect dialect
	backend string
	logger  *zap.SugaredLogger
}

// Open connects to the backend and verifies the connection. For sqlite the
// dsn is a file path; for postgres it is a pgx connection string.
func Open(ctx context.Context, backend, dsn string, logger *zap.SugaredLogger) (*Store, error) {
	d, ok := dialects[backend]
	if !ok {
		return nil, fmt.Errorf("unsupported storage backend %q", backend)
	}
	if dsn == "" {
		return nil, fmt.Errorf("%s backend requires a data source", backend)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	if backend == BackendSQLite {
		// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", backend, err)
	}

	logger.Infof("connected to %s fit store", backend)
	return &Store{db: db, dialect: d, backend: backend, logger: logger}, nil
}

// Backend returns the backend name the store was opened with
func (s *Store) Backend() string {
	return s.backend
}

// Migrate creates the fit table and its index if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS mrc_fits (
			id         TEXT PRIMARY KEY,
			well       TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			mode       TEXT NOT NULL,
			norm       TEXT NOT NULL,
			b          DOUBLE PRECISION NOT NULL,
			c          DOUBLE PRECISION NOT NULL,
			rmse       DOUBLE PRECISION NOT NULL,
			objective  DOUBLE PRECISION NOT NULL,
			peaks      ` + s.dialect.blobType + ` NOT NULL,
			predicted  ` + s.dialect.blobType + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS mrc_fits_well_idx ON mrc_fits (well, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	s.logger.Debugf("fit store schema is current")
	return nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders for dialects that number them
func (s *Store) rebind(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
