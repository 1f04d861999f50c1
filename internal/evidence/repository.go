package evidence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Repository is the SQL-backed persistence for evidence records.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `uuid, entity, operator, confidential, text_content, tag, note, created`

func scanEvidence(row interface{ Scan(...interface{}) error }) (*Evidence, error) {
	var e Evidence
	if err := row.Scan(&e.UUID, &e.Entity, &e.Operator, &e.Confidential, &e.TextContent, &e.Tag, &e.Note, &e.Created); err != nil {
		return nil, err
	}
	return &e, nil
}

// Insert creates a new evidence row.
func (r *Repository) Insert(ctx context.Context, e *Evidence) error {
	const q = `
		INSERT INTO evidence (uuid, entity, operator, confidential, text_content, tag, note, created)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, q, e.UUID, e.Entity, e.Operator, e.Confidential, e.TextContent, e.Tag, e.Note, e.Created)
	return err
}

// GetByUUID fetches one evidence record, or (nil, nil) if absent.
func (r *Repository) GetByUUID(ctx context.Context, id uuid.UUID) (*Evidence, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM evidence WHERE uuid = $1`, id)
	e, err := scanEvidence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query evidence by uuid: %w", err)
	}
	return e, nil
}

// Exists reports whether a row with id exists.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM evidence WHERE uuid = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *Repository) listWhere(ctx context.Context, where string, args []interface{}, limit, offset int) ([]Evidence, int64, error) {
	countQuery := `SELECT COUNT(*) FROM evidence`
	if where != "" {
		countQuery += " WHERE " + where
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count evidence: %w", err)
	}

	query := `SELECT ` + selectColumns + ` FROM evidence`
	if where != "" {
		query += " WHERE " + where
	}
	query += fmt.Sprintf(" ORDER BY created DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	queryArgs := append(append([]interface{}{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list evidence: %w", err)
	}
	defer rows.Close()

	var out []Evidence
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan evidence: %w", err)
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}

// List returns a page of evidence, optionally excluding confidential rows.
func (r *Repository) List(ctx context.Context, includeConfidential bool, limit, offset int) ([]Evidence, int64, error) {
	if includeConfidential {
		return r.listWhere(ctx, "", nil, limit, offset)
	}
	return r.listWhere(ctx, "confidential = FALSE", nil, limit, offset)
}

// ListByEntity returns a page of evidence for one entity.
func (r *Repository) ListByEntity(ctx context.Context, entity uuid.UUID, includeConfidential bool, limit, offset int) ([]Evidence, int64, error) {
	where := "entity = $1"
	if !includeConfidential {
		where += " AND confidential = FALSE"
	}
	return r.listWhere(ctx, where, []interface{}{entity}, limit, offset)
}

// ListByOperator returns a page of evidence authored by one operator.
func (r *Repository) ListByOperator(ctx context.Context, operator uuid.UUID, includeConfidential bool, limit, offset int) ([]Evidence, int64, error) {
	where := "operator = $1"
	if !includeConfidential {
		where += " AND confidential = FALSE"
	}
	return r.listWhere(ctx, where, []interface{}{operator}, limit, offset)
}

// UpdateConfidentiality sets the confidential flag.
func (r *Repository) UpdateConfidentiality(ctx context.Context, id uuid.UUID, confidential bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE evidence SET confidential = $2 WHERE uuid = $1`, id, confidential)
	return err
}

// Delete removes an evidence row; attachments cascade via FK.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM evidence WHERE uuid = $1`, id)
	return err
}
