package blacklist

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/federationserver/federationserver/internal/apierr"
)

// EntityExistsChecker is the narrow capability Service needs from
// EntitiesManager.
type EntityExistsChecker interface {
	EntityExistsByUUID(ctx context.Context, id uuid.UUID) (bool, error)
}

// EvidenceExistsChecker is the narrow capability Service needs from
// EvidenceManager.
type EvidenceExistsChecker interface {
	EvidenceExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service implements BlacklistManager (spec.md §4.8).
type Service struct {
	repo            *Repository
	entities        EntityExistsChecker
	evidenceSvc     EvidenceExistsChecker
	minBlacklistTTL time.Duration
	logger          zerolog.Logger
}

// NewService wires a Service from its dependencies. minBlacklistTTL is the
// configured min_blacklist_time (spec.md §4.1).
func NewService(repo *Repository, entities EntityExistsChecker, evidenceSvc EvidenceExistsChecker, minBlacklistTTL time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		repo:            repo,
		entities:        entities,
		evidenceSvc:     evidenceSvc,
		minBlacklistTTL: minBlacklistTTL,
		logger:          logger.With().Str("component", "blacklist").Logger(),
	}
}

// BlacklistEntity creates a blacklist record against entityID.
func (s *Service) BlacklistEntity(ctx context.Context, entityID, operatorID uuid.UUID, kind Type, expires *time.Time, evidenceID *uuid.UUID) (*Entry, error) {
	if !kind.IsValid() {
		return nil, apierr.New(apierr.InvalidArgument, "invalid blacklist type")
	}

	entityOK, err := s.entities.EntityExistsByUUID(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if !entityOK {
		return nil, apierr.New(apierr.InvalidArgument, "entity does not exist")
	}

	if evidenceID != nil {
		evidenceOK, err := s.evidenceSvc.EvidenceExists(ctx, *evidenceID)
		if err != nil {
			return nil, err
		}
		if !evidenceOK {
			return nil, apierr.New(apierr.InvalidArgument, "evidence does not exist")
		}
	}

	now := time.Now().UTC()
	if expires != nil && expires.Before(now.Add(s.minBlacklistTTL)) {
		return nil, apierr.Newf(apierr.InvalidArgument,
			"The expiration time must be at least %d seconds in the future", int(s.minBlacklistTTL.Seconds()))
	}

	e := &Entry{
		UUID:     uuid.New(),
		Operator: operatorID,
		Entity:   entityID,
		Evidence: evidenceID,
		Type:     kind,
		Lifted:   false,
		Expires:  expires,
		Created:  now,
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		return nil, apierr.WrapDatabase("insert blacklist record", err)
	}
	return e, nil
}

// LiftBlacklistRecord lifts an active record; lifting an already-lifted
// record is rejected (spec.md §8 idempotence law).
func (s *Service) LiftBlacklistRecord(ctx context.Context, id, liftedBy uuid.UUID) (*Entry, error) {
	e, err := s.repo.GetByUUID(ctx, id)
	if err != nil {
		return nil, apierr.WrapDatabase("get blacklist record", err)
	}
	if e == nil {
		return nil, apierr.New(apierr.NotFound, "blacklist record not found")
	}
	if e.Lifted {
		return nil, apierr.New(apierr.InvalidArgument, "blacklist record is already lifted")
	}

	if err := s.repo.Lift(ctx, id, liftedBy); err != nil {
		return nil, apierr.WrapDatabase("lift blacklist record", err)
	}
	e.Lifted = true
	e.LiftedBy = &liftedBy
	return e, nil
}

// AttachEvidence links evidenceID to a blacklist record that has none yet;
// fails if the record already carries evidence (spec.md §4.8).
func (s *Service) AttachEvidence(ctx context.Context, id, evidenceID uuid.UUID) (*Entry, error) {
	e, err := s.repo.GetByUUID(ctx, id)
	if err != nil {
		return nil, apierr.WrapDatabase("get blacklist record", err)
	}
	if e == nil {
		return nil, apierr.New(apierr.NotFound, "blacklist record not found")
	}
	if e.Evidence != nil {
		return nil, apierr.New(apierr.InvalidArgument, "blacklist record already has evidence attached")
	}

	evidenceOK, err := s.evidenceSvc.EvidenceExists(ctx, evidenceID)
	if err != nil {
		return nil, err
	}
	if !evidenceOK {
		return nil, apierr.New(apierr.InvalidArgument, "evidence does not exist")
	}

	result, err := s.repo.AttachEvidence(ctx, id, evidenceID)
	if err != nil {
		return nil, apierr.WrapDatabase("attach evidence", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, apierr.New(apierr.InvalidArgument, "blacklist record already has evidence attached")
	}
	e.Evidence = &evidenceID
	return e, nil
}

// DeleteBlacklistRecord removes a blacklist record.
func (s *Service) DeleteBlacklistRecord(ctx context.Context, id uuid.UUID) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return apierr.WrapDatabase("check blacklist record exists", err)
	}
	if !exists {
		return apierr.New(apierr.NotFound, "blacklist record not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apierr.WrapDatabase("delete blacklist record", err)
	}
	return nil
}

// GetBlacklistEntry fetches a record by UUID.
func (s *Service) GetBlacklistEntry(ctx context.Context, id uuid.UUID) (*Entry, error) {
	e, err := s.repo.GetByUUID(ctx, id)
	if err != nil {
		return nil, apierr.WrapDatabase("get blacklist record", err)
	}
	if e == nil {
		return nil, apierr.New(apierr.NotFound, "blacklist record not found")
	}
	return e, nil
}

// BlacklistExists reports whether id names a blacklist record.
func (s *Service) BlacklistExists(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return false, apierr.WrapDatabase("check blacklist record exists", err)
	}
	return ok, nil
}

// GetEntries returns a page of blacklist records.
func (s *Service) GetEntries(ctx context.Context, includeLifted bool, limit, offset int) (*Page, error) {
	entries, total, err := s.repo.List(ctx, includeLifted, limit, offset)
	if err != nil {
		return nil, apierr.WrapDatabase("list blacklist records", err)
	}
	return &Page{Entries: entries, Total: total, Limit: limit}, nil
}

// GetEntriesByEntity returns a page of blacklist records for one entity.
func (s *Service) GetEntriesByEntity(ctx context.Context, entityID uuid.UUID, includeLifted bool, limit, offset int) (*Page, error) {
	entries, total, err := s.repo.ListByEntity(ctx, entityID, includeLifted, limit, offset)
	if err != nil {
		return nil, apierr.WrapDatabase("list blacklist records by entity", err)
	}
	return &Page{Entries: entries, Total: total, Limit: limit}, nil
}

// GetEntriesByOperator returns a page of blacklist records created by one
// operator — the correct target for ListOperatorBlacklist (spec.md §9 Open
// Question d: the evidence store is not queried here).
func (s *Service) GetEntriesByOperator(ctx context.Context, operatorID uuid.UUID, includeLifted bool, limit, offset int) (*Page, error) {
	entries, total, err := s.repo.ListByOperator(ctx, operatorID, includeLifted, limit, offset)
	if err != nil {
		return nil, apierr.WrapDatabase("list blacklist records by operator", err)
	}
	return &Page{Entries: entries, Total: total, Limit: limit}, nil
}

// CleanEntries removes lifted records older than olderThanDays.
func (s *Service) CleanEntries(ctx context.Context, olderThanDays int) (int64, error) {
	n, err := s.repo.CleanEntries(ctx, olderThanDays)
	if err != nil {
		return 0, apierr.WrapDatabase("clean blacklist records", err)
	}
	return n, nil
}
