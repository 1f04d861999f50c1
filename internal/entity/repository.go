package entity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Repository is the SQL-backed persistence for entities.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `uuid, hash, id, host, created`

func scanEntity(row interface{ Scan(...interface{}) error }) (*Entity, error) {
	var e Entity
	var host sql.NullString
	if err := row.Scan(&e.UUID, &e.Hash, &e.ID, &host, &e.Created); err != nil {
		return nil, err
	}
	if host.Valid {
		e.Host = &host.String
	}
	return &e, nil
}

// InsertIfAbsent inserts the entity keyed by its unique hash, doing nothing
// if a row with that hash already exists (spec.md §4.5 "idempotent for
// identical (id, host)").
func (r *Repository) InsertIfAbsent(ctx context.Context, e *Entity) error {
	const q = `
		INSERT INTO entities (uuid, hash, id, host, created)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (hash) DO NOTHING`
	_, err := r.db.ExecContext(ctx, q, e.UUID, e.Hash, e.ID, e.Host, e.Created)
	return err
}

// GetByHash fetches one entity by hash, or (nil, nil) if absent.
func (r *Repository) GetByHash(ctx context.Context, hash string) (*Entity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM entities WHERE hash = $1`, hash)
	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query entity by hash: %w", err)
	}
	return e, nil
}

// GetByUUID fetches one entity by UUID, or (nil, nil) if absent.
func (r *Repository) GetByUUID(ctx context.Context, id uuid.UUID) (*Entity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM entities WHERE uuid = $1`, id)
	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query entity by uuid: %w", err)
	}
	return e, nil
}

// ExistsByUUID reports whether a row with id exists.
func (r *Repository) ExistsByUUID(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM entities WHERE uuid = $1)`, id).Scan(&exists)
	return exists, err
}

// List returns a page of entities ordered by creation time, newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Entity, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count entities: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM entities ORDER BY created DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var out []Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan entity: %w", err)
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}

// Delete removes an entity row; evidence and blacklist rows cascade via FK.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM entities WHERE uuid = $1`, id)
	return err
}
