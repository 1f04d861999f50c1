package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/federationserver/federationserver/internal/apierr"
)

// Service implements AuditLogManager (spec.md §4.9).
type Service struct {
	repo   *Repository
	logger zerolog.Logger
}

// NewService wires a Service from its dependencies.
func NewService(repo *Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "audit").Logger()}
}

// CreateEntry appends a new audit entry. It never returns an error: a
// write failure is logged and swallowed so the enclosing mutation's result
// is never rolled back on account of the audit trail (spec.md §4.9,
// invariant c).
func (s *Service) CreateEntry(ctx context.Context, kind Type, message string, operator, entity *uuid.UUID) {
	e := &Entry{
		UUID:      uuid.New(),
		Operator:  operator,
		Entity:    entity,
		Type:      kind,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		s.logger.Error().Err(err).Str("type", string(kind)).Msg("failed to write audit entry")
	}
}

// GetEntry fetches one audit entry by UUID.
func (s *Service) GetEntry(ctx context.Context, id uuid.UUID) (*Entry, error) {
	e, err := s.repo.GetByUUID(ctx, id)
	if err != nil {
		return nil, apierr.WrapDatabase("get audit entry", err)
	}
	if e == nil {
		return nil, apierr.New(apierr.NotFound, "audit entry not found")
	}
	return e, nil
}

// GetEntries returns a page of audit entries, restricted to allowedTypes
// when non-empty (anonymous callers are restricted to public_audit_entries;
// pass nil for unrestricted access).
func (s *Service) GetEntries(ctx context.Context, allowedTypes []Type, limit, offset int) (*Page, error) {
	entries, total, err := s.repo.List(ctx, allowedTypes, limit, offset)
	if err != nil {
		return nil, apierr.WrapDatabase("list audit entries", err)
	}
	return &Page{Entries: entries, Total: total, Limit: limit}, nil
}

// GetEntriesByEntity returns a page of audit entries for one entity.
func (s *Service) GetEntriesByEntity(ctx context.Context, entityID uuid.UUID, allowedTypes []Type, limit, offset int) (*Page, error) {
	entries, total, err := s.repo.ListByEntity(ctx, entityID, allowedTypes, limit, offset)
	if err != nil {
		return nil, apierr.WrapDatabase("list audit entries by entity", err)
	}
	return &Page{Entries: entries, Total: total, Limit: limit}, nil
}

// GetEntriesByOperator returns a page of audit entries authored by one
// operator.
func (s *Service) GetEntriesByOperator(ctx context.Context, operatorID uuid.UUID, allowedTypes []Type, limit, offset int) (*Page, error) {
	entries, total, err := s.repo.ListByOperator(ctx, operatorID, allowedTypes, limit, offset)
	if err != nil {
		return nil, apierr.WrapDatabase("list audit entries by operator", err)
	}
	return &Page{Entries: entries, Total: total, Limit: limit}, nil
}

// CleanEntries removes audit entries older than olderThanDays.
func (s *Service) CleanEntries(ctx context.Context, olderThanDays int) (int64, error) {
	n, err := s.repo.CleanEntries(ctx, olderThanDays)
	if err != nil {
		return 0, apierr.WrapDatabase("clean audit entries", err)
	}
	return n, nil
}

// CountRecords returns the total number of audit entries.
func (s *Service) CountRecords(ctx context.Context) (int64, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, apierr.WrapDatabase("count audit entries", err)
	}
	return n, nil
}
