// Package store provides the transactional relational connection and
// schema bootstrap for FederationServer, generalizing the teacher's
// internal/database package from a single-tenant gateway schema to the
// federation data model in spec.md §3.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/federationserver/federationserver/internal/apierr"
	"github.com/federationserver/federationserver/internal/config"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// bootstrapOrder is the fixed table creation order spec.md §4.2 requires:
// operators, entities, evidence, attachments, blacklist, audit_log.
var bootstrapOrder = []struct {
	table string
	file  string
}{
	{"operators", "schema/001_operators.sql"},
	{"entities", "schema/002_entities.sql"},
	{"evidence", "schema/003_evidence.sql"},
	{"attachments", "schema/004_attachments.sql"},
	{"blacklist", "schema/005_blacklist.sql"},
	{"audit_log", "schema/006_audit_log.sql"},
}

// Store wraps the pooled SQL connection used by every repository.
type Store struct {
	DB     *sql.DB
	logger zerolog.Logger
}

// Open opens and verifies a PostgreSQL connection per cfg.
func Open(cfg config.DatabaseConfig, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Name).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("connected to PostgreSQL")

	return &Store{DB: db, logger: logger}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Health reports whether the database is reachable.
func (s *Store) Health() bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return s.DB.PingContext(ctx) == nil
}

// Bootstrap creates each table in fixed order if absent, executing its
// embedded DDL file, then verifies the table exists. Fails with an
// apierr.Database error otherwise, per spec.md §4.2.
func (s *Store) Bootstrap(ctx context.Context) error {
	for _, step := range bootstrapOrder {
		ddl, err := fs.ReadFile(schemaFS, step.file)
		if err != nil {
			return apierr.WrapDatabase("read embedded schema file "+step.file, err)
		}

		if _, err := s.DB.ExecContext(ctx, string(ddl)); err != nil {
			return apierr.WrapDatabase("apply schema for table "+step.table, err)
		}

		var exists bool
		checkQuery := `SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)`
		if err := s.DB.QueryRowContext(ctx, checkQuery, step.table).Scan(&exists); err != nil {
			return apierr.WrapDatabase("verify table "+step.table, err)
		}
		if !exists {
			return apierr.Newf(apierr.Database, "table %s missing after bootstrap", step.table)
		}

		s.logger.Info().Str("table", step.table).Msg("schema bootstrap verified")
	}

	return nil
}
