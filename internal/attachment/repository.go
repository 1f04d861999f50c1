package attachment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Repository is the SQL-backed persistence for attachment metadata.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `uuid, evidence, file_mime, file_name, file_size, created`

func scanAttachment(row interface{ Scan(...interface{}) error }) (*Attachment, error) {
	var a Attachment
	if err := row.Scan(&a.UUID, &a.Evidence, &a.FileMime, &a.FileName, &a.FileSize, &a.Created); err != nil {
		return nil, err
	}
	return &a, nil
}

// Insert creates a new attachment row.
func (r *Repository) Insert(ctx context.Context, a *Attachment) error {
	const q = `
		INSERT INTO attachments (uuid, evidence, file_mime, file_name, file_size, created)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, q, a.UUID, a.Evidence, a.FileMime, a.FileName, a.FileSize, a.Created)
	return err
}

// GetByUUID fetches one attachment record, or (nil, nil) if absent.
func (r *Repository) GetByUUID(ctx context.Context, id uuid.UUID) (*Attachment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM attachments WHERE uuid = $1`, id)
	a, err := scanAttachment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query attachment by uuid: %w", err)
	}
	return a, nil
}

// Count returns the total number of attachment rows, for the storage file
// count cap (spec.md §4.7 step 1).
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attachments`).Scan(&n)
	return n, err
}

// Delete removes an attachment row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM attachments WHERE uuid = $1`, id)
	return err
}
