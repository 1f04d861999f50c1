package operator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Repository is the SQL-backed persistence for operators, following the
// teacher's repository pattern (internal/repository/*.go): plain *sql.DB,
// one exported method per manager operation, context-first.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert creates a new operator row.
func (r *Repository) Insert(ctx context.Context, o *Operator) error {
	const q = `
		INSERT INTO operators (uuid, name, api_key, manage_operators, manage_blacklist, is_client, disabled, created, updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, q,
		o.UUID, o.Name, o.APIKey, o.ManageOperators, o.ManageBlacklist, o.IsClient, o.Disabled, o.Created, o.Updated,
	)
	return err
}

// InsertMasterIfAbsent materializes the reserved master-operator row,
// racing safely against concurrent first callers via ON CONFLICT on the
// unique (name) constraint (spec.md §9).
func (r *Repository) InsertMasterIfAbsent(ctx context.Context, o *Operator) error {
	const q = `
		INSERT INTO operators (uuid, name, api_key, manage_operators, manage_blacklist, is_client, disabled, created, updated)
		VALUES ($1, $2, $3, TRUE, TRUE, FALSE, FALSE, $4, $4)
		ON CONFLICT (name) WHERE name = $2 DO NOTHING`
	_, err := r.db.ExecContext(ctx, q, o.UUID, o.Name, o.APIKey, o.Created)
	return err
}

const selectColumns = `uuid, name, api_key, manage_operators, manage_blacklist, is_client, disabled, created, updated`

func scanOperator(row interface{ Scan(...interface{}) error }) (*Operator, error) {
	var o Operator
	if err := row.Scan(&o.UUID, &o.Name, &o.APIKey, &o.ManageOperators, &o.ManageBlacklist, &o.IsClient, &o.Disabled, &o.Created, &o.Updated); err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByUUID fetches one operator, or (nil, nil) if absent.
func (r *Repository) GetByUUID(ctx context.Context, id uuid.UUID) (*Operator, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM operators WHERE uuid = $1`, id)
	o, err := scanOperator(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query operator by uuid: %w", err)
	}
	return o, nil
}

// GetByAPIKey fetches one operator by its API key, or (nil, nil) if absent.
func (r *Repository) GetByAPIKey(ctx context.Context, apiKey string) (*Operator, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM operators WHERE api_key = $1`, apiKey)
	o, err := scanOperator(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query operator by api key: %w", err)
	}
	return o, nil
}

// GetByName fetches one operator by name (used for master-operator lookup).
func (r *Repository) GetByName(ctx context.Context, name string) (*Operator, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM operators WHERE name = $1`, name)
	o, err := scanOperator(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query operator by name: %w", err)
	}
	return o, nil
}

// Exists reports whether a row with id exists.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM operators WHERE uuid = $1)`, id).Scan(&exists)
	return exists, err
}

// List returns a page of operators ordered by creation time, newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Operator, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM operators`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count operators: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM operators ORDER BY created DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list operators: %w", err)
	}
	defer rows.Close()

	var out []Operator
	for rows.Next() {
		o, err := scanOperator(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan operator: %w", err)
		}
		out = append(out, *o)
	}
	return out, total, rows.Err()
}

// Count returns the total number of operator rows.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM operators`).Scan(&n)
	return n, err
}

// UpdatePermissions writes the three permission flags and bumps updated.
func (r *Repository) UpdatePermissions(ctx context.Context, id uuid.UUID, manageOperators, manageBlacklist, isClient bool, updated interface{}) error {
	const q = `UPDATE operators SET manage_operators = $2, manage_blacklist = $3, is_client = $4, updated = $5 WHERE uuid = $1`
	_, err := r.db.ExecContext(ctx, q, id, manageOperators, manageBlacklist, isClient, updated)
	return err
}

// SetDisabled flips the disabled flag.
func (r *Repository) SetDisabled(ctx context.Context, id uuid.UUID, disabled bool, updated interface{}) error {
	_, err := r.db.ExecContext(ctx, `UPDATE operators SET disabled = $2, updated = $3 WHERE uuid = $1`, id, disabled, updated)
	return err
}

// SetAPIKey replaces the API key.
func (r *Repository) SetAPIKey(ctx context.Context, id uuid.UUID, apiKey string, updated interface{}) error {
	_, err := r.db.ExecContext(ctx, `UPDATE operators SET api_key = $2, updated = $3 WHERE uuid = $1`, id, apiKey, updated)
	return err
}

// Delete removes an operator row. Authored audit entries are cascade-
// nulled by the audit_log.operator FK (ON DELETE SET NULL).
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM operators WHERE uuid = $1`, id)
	return err
}
