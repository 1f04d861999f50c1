package blacklist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository is the SQL-backed persistence for blacklist records.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `uuid, operator, entity, evidence, type, lifted, lifted_by, expires, created`

func scanEntry(row interface{ Scan(...interface{}) error }) (*Entry, error) {
	var e Entry
	var evidence, liftedBy uuid.NullUUID
	var expires sql.NullTime
	if err := row.Scan(&e.UUID, &e.Operator, &e.Entity, &evidence, &e.Type, &e.Lifted, &liftedBy, &expires, &e.Created); err != nil {
		return nil, err
	}
	if evidence.Valid {
		e.Evidence = &evidence.UUID
	}
	if liftedBy.Valid {
		e.LiftedBy = &liftedBy.UUID
	}
	if expires.Valid {
		e.Expires = &expires.Time
	}
	return &e, nil
}

// Insert creates a new blacklist row.
func (r *Repository) Insert(ctx context.Context, e *Entry) error {
	const q = `
		INSERT INTO blacklist (uuid, operator, entity, evidence, type, lifted, lifted_by, expires, created)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, q,
		e.UUID, e.Operator, e.Entity, nullableUUID(e.Evidence), e.Type, e.Lifted, nullableUUID(e.LiftedBy), nullableTime(e.Expires), e.Created,
	)
	return err
}

// GetByUUID fetches one blacklist record, or (nil, nil) if absent.
func (r *Repository) GetByUUID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM blacklist WHERE uuid = $1`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query blacklist by uuid: %w", err)
	}
	return e, nil
}

// Exists reports whether a row with id exists.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM blacklist WHERE uuid = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *Repository) listWhere(ctx context.Context, where string, args []interface{}, limit, offset int) ([]Entry, int64, error) {
	countQuery := `SELECT COUNT(*) FROM blacklist`
	if where != "" {
		countQuery += " WHERE " + where
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count blacklist: %w", err)
	}

	query := `SELECT ` + selectColumns + ` FROM blacklist`
	if where != "" {
		query += " WHERE " + where
	}
	query += fmt.Sprintf(" ORDER BY created DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	queryArgs := append(append([]interface{}{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list blacklist: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan blacklist: %w", err)
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}

// List returns a page of blacklist records, optionally including lifted ones.
func (r *Repository) List(ctx context.Context, includeLifted bool, limit, offset int) ([]Entry, int64, error) {
	if includeLifted {
		return r.listWhere(ctx, "", nil, limit, offset)
	}
	return r.listWhere(ctx, "lifted = FALSE", nil, limit, offset)
}

// ListByEntity returns a page of blacklist records for one entity.
func (r *Repository) ListByEntity(ctx context.Context, entity uuid.UUID, includeLifted bool, limit, offset int) ([]Entry, int64, error) {
	where := "entity = $1"
	if !includeLifted {
		where += " AND lifted = FALSE"
	}
	return r.listWhere(ctx, where, []interface{}{entity}, limit, offset)
}

// ListByOperator returns a page of blacklist records created by one operator.
func (r *Repository) ListByOperator(ctx context.Context, operator uuid.UUID, includeLifted bool, limit, offset int) ([]Entry, int64, error) {
	where := "operator = $1"
	if !includeLifted {
		where += " AND lifted = FALSE"
	}
	return r.listWhere(ctx, where, []interface{}{operator}, limit, offset)
}

// Lift marks a blacklist record lifted by the given operator.
func (r *Repository) Lift(ctx context.Context, id, liftedBy uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE blacklist SET lifted = TRUE, lifted_by = $2 WHERE uuid = $1`, id, liftedBy)
	return err
}

// AttachEvidence sets the evidence link for a record that has none.
func (r *Repository) AttachEvidence(ctx context.Context, id, evidenceID uuid.UUID) (sql.Result, error) {
	return r.db.ExecContext(ctx, `UPDATE blacklist SET evidence = $2 WHERE uuid = $1 AND evidence IS NULL`, id, evidenceID)
}

// Delete removes a blacklist row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM blacklist WHERE uuid = $1`, id)
	return err
}

// CleanEntries deletes lifted records older than olderThanDays, returning
// the number removed (spec.md §4.8 maintenance hook).
func (r *Repository) CleanEntries(ctx context.Context, olderThanDays int) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM blacklist WHERE lifted = TRUE AND created < $1`,
		time.Now().UTC().AddDate(0, 0, -olderThanDays),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullableUUID(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
