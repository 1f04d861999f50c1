package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository is the SQL-backed persistence for audit entries.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `uuid, operator, entity, type, message, "timestamp"`

func scanEntry(row interface{ Scan(...interface{}) error }) (*Entry, error) {
	var e Entry
	var operator, entity uuid.NullUUID
	if err := row.Scan(&e.UUID, &operator, &entity, &e.Type, &e.Message, &e.Timestamp); err != nil {
		return nil, err
	}
	if operator.Valid {
		e.Operator = &operator.UUID
	}
	if entity.Valid {
		e.Entity = &entity.UUID
	}
	return &e, nil
}

// Insert writes a new audit entry.
func (r *Repository) Insert(ctx context.Context, e *Entry) error {
	const q = `
		INSERT INTO audit_log (uuid, operator, entity, type, message, "timestamp")
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, q, e.UUID, nullableUUID(e.Operator), nullableUUID(e.Entity), e.Type, e.Message, e.Timestamp)
	return err
}

// GetByUUID fetches one audit entry, or (nil, nil) if absent.
func (r *Repository) GetByUUID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM audit_log WHERE uuid = $1`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query audit entry by uuid: %w", err)
	}
	return e, nil
}

func (r *Repository) listWhere(ctx context.Context, where string, args []interface{}, limit, offset int) ([]Entry, int64, error) {
	countQuery := `SELECT COUNT(*) FROM audit_log`
	if where != "" {
		countQuery += " WHERE " + where
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	query := `SELECT ` + selectColumns + ` FROM audit_log`
	if where != "" {
		query += " WHERE " + where
	}
	query += fmt.Sprintf(` ORDER BY "timestamp" DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	queryArgs := append(append([]interface{}{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}

// List returns a page of audit entries, optionally filtered to a set of
// types (used to restrict anonymous callers to public_audit_entries).
func (r *Repository) List(ctx context.Context, types []Type, limit, offset int) ([]Entry, int64, error) {
	if len(types) == 0 {
		return r.listWhere(ctx, "", nil, limit, offset)
	}
	args := make([]interface{}, len(types))
	placeholders := make([]string, len(types))
	for i, t := range types {
		args[i] = t
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	where := "type IN (" + joinStrings(placeholders, ",") + ")"
	return r.listWhere(ctx, where, args, limit, offset)
}

// ListByEntity returns a page of audit entries for one entity.
func (r *Repository) ListByEntity(ctx context.Context, entity uuid.UUID, types []Type, limit, offset int) ([]Entry, int64, error) {
	where := "entity = $1"
	args := []interface{}{entity}
	if len(types) > 0 {
		placeholders := make([]string, len(types))
		for i, t := range types {
			args = append(args, t)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		where += " AND type IN (" + joinStrings(placeholders, ",") + ")"
	}
	return r.listWhere(ctx, where, args, limit, offset)
}

// ListByOperator returns a page of audit entries authored by one operator.
func (r *Repository) ListByOperator(ctx context.Context, operator uuid.UUID, types []Type, limit, offset int) ([]Entry, int64, error) {
	where := "operator = $1"
	args := []interface{}{operator}
	if len(types) > 0 {
		placeholders := make([]string, len(types))
		for i, t := range types {
			args = append(args, t)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		where += " AND type IN (" + joinStrings(placeholders, ",") + ")"
	}
	return r.listWhere(ctx, where, args, limit, offset)
}

// Count returns the total number of audit entries.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&n)
	return n, err
}

// CleanEntries deletes entries older than olderThanDays, returning the
// number removed.
func (r *Repository) CleanEntries(ctx context.Context, olderThanDays int) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM audit_log WHERE "timestamp" < $1`,
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

func joinStrings(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}
