package evidence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/federationserver/federationserver/internal/apierr"
	"github.com/federationserver/federationserver/internal/cache"
	"github.com/federationserver/federationserver/internal/config"
)

const (
	maxTextLength = 65535
	maxNoteLength = 65535
	maxTagLength  = 32
	cacheKind     = "evidence"
)

// EntityExistsChecker is the narrow capability Service needs from
// EntitiesManager, accepted as an interface to avoid an import cycle
// between internal/entity and internal/evidence.
type EntityExistsChecker interface {
	EntityExistsByUUID(ctx context.Context, id uuid.UUID) (bool, error)
}

// OperatorExistsChecker is the narrow capability Service needs from
// OperatorManager.
type OperatorExistsChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service implements EvidenceManager (spec.md §4.6).
type Service struct {
	repo      *Repository
	entities  EntityExistsChecker
	operators OperatorExistsChecker
	cache     cache.Cache
	cfg       config.CacheConfig
	logger    zerolog.Logger
}

// NewService wires a Service from its dependencies.
func NewService(repo *Repository, entities EntityExistsChecker, operators OperatorExistsChecker, c cache.Cache, cfg config.CacheConfig, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		entities:  entities,
		operators: operators,
		cache:     c,
		cfg:       cfg,
		logger:    logger.With().Str("component", "evidence").Logger(),
	}
}

// AddEvidence records a new evidence entry against entityID, authored by
// operatorID.
func (s *Service) AddEvidence(ctx context.Context, entityID, operatorID uuid.UUID, text, note, tag string, confidential bool) (*Evidence, error) {
	if len(text) > maxTextLength {
		return nil, apierr.New(apierr.InvalidArgument, "text_content exceeds maximum length")
	}
	if len(note) > maxNoteLength {
		return nil, apierr.New(apierr.InvalidArgument, "note exceeds maximum length")
	}
	if len(tag) > maxTagLength {
		return nil, apierr.New(apierr.InvalidArgument, "tag exceeds maximum length")
	}

	entityOK, err := s.entities.EntityExistsByUUID(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if !entityOK {
		return nil, apierr.New(apierr.InvalidArgument, "entity does not exist")
	}
	operatorOK, err := s.operators.Exists(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	if !operatorOK {
		return nil, apierr.New(apierr.InvalidArgument, "operator does not exist")
	}

	e := &Evidence{
		UUID:         uuid.New(),
		Entity:       entityID,
		Operator:     operatorID,
		Confidential: confidential,
		TextContent:  text,
		Tag:          tag,
		Note:         note,
		Created:      time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		return nil, apierr.WrapDatabase("insert evidence", err)
	}
	return e, nil
}

// GetEvidence fetches one evidence record by UUID, cache-first.
func (s *Service) GetEvidence(ctx context.Context, id uuid.UUID) (*Evidence, error) {
	key := cache.KeyFor(cacheKind, id.String())
	if fields, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		return evidenceFromFields(fields), nil
	}

	e, err := s.repo.GetByUUID(ctx, id)
	if err != nil {
		return nil, apierr.WrapDatabase("get evidence", err)
	}
	if e == nil {
		return nil, apierr.New(apierr.NotFound, "evidence not found")
	}
	s.cacheStore(ctx, key, e)
	return e, nil
}

// EvidenceExists reports whether id names an evidence record.
func (s *Service) EvidenceExists(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return false, apierr.WrapDatabase("check evidence exists", err)
	}
	return ok, nil
}

// GetEvidenceRecords returns a page of evidence, confidential rows
// included only if includeConfidential is set.
func (s *Service) GetEvidenceRecords(ctx context.Context, includeConfidential bool, limit, offset int) (*Page, error) {
	records, total, err := s.repo.List(ctx, includeConfidential, limit, offset)
	if err != nil {
		return nil, apierr.WrapDatabase("list evidence", err)
	}
	return &Page{Evidence: records, Total: total, Limit: limit}, nil
}

// GetEvidenceByEntity returns a page of evidence for one entity.
func (s *Service) GetEvidenceByEntity(ctx context.Context, entityID uuid.UUID, includeConfidential bool, limit, offset int) (*Page, error) {
	records, total, err := s.repo.ListByEntity(ctx, entityID, includeConfidential, limit, offset)
	if err != nil {
		return nil, apierr.WrapDatabase("list evidence by entity", err)
	}
	return &Page{Evidence: records, Total: total, Limit: limit}, nil
}

// GetEvidenceByOperator returns a page of evidence authored by one operator.
func (s *Service) GetEvidenceByOperator(ctx context.Context, operatorID uuid.UUID, includeConfidential bool, limit, offset int) (*Page, error) {
	records, total, err := s.repo.ListByOperator(ctx, operatorID, includeConfidential, limit, offset)
	if err != nil {
		return nil, apierr.WrapDatabase("list evidence by operator", err)
	}
	return &Page{Evidence: records, Total: total, Limit: limit}, nil
}

// UpdateConfidentiality sets the confidential flag; applying the same value
// twice is a no-op on state (spec.md §8 idempotence law).
func (s *Service) UpdateConfidentiality(ctx context.Context, id uuid.UUID, confidential bool) (*Evidence, error) {
	e, err := s.repo.GetByUUID(ctx, id)
	if err != nil {
		return nil, apierr.WrapDatabase("get evidence", err)
	}
	if e == nil {
		return nil, apierr.New(apierr.NotFound, "evidence not found")
	}
	if e.Confidential != confidential {
		if err := s.repo.UpdateConfidentiality(ctx, id, confidential); err != nil {
			return nil, apierr.WrapDatabase("update evidence confidentiality", err)
		}
		e.Confidential = confidential
	}
	s.invalidate(ctx, id)
	return e, nil
}

// DeleteEvidence removes an evidence record; attachments cascade.
func (s *Service) DeleteEvidence(ctx context.Context, id uuid.UUID) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return apierr.WrapDatabase("check evidence exists", err)
	}
	if !exists {
		return apierr.New(apierr.NotFound, "evidence not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apierr.WrapDatabase("delete evidence", err)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	_ = s.cache.Invalidate(ctx, cache.KeyFor(cacheKind, id.String()))
}

func (s *Service) cacheStore(ctx context.Context, key string, e *Evidence) {
	if exceeded, err := s.cache.LimitExceeded(ctx, cacheKind+":", s.cfg.Kinds[cacheKind].Limit); err != nil || exceeded {
		return
	}
	_ = s.cache.Set(ctx, key, evidenceToFields(e), s.cfg.Kinds[cacheKind].TTL)
}

func evidenceToFields(e *Evidence) map[string]string {
	return map[string]string{
		"uuid":         e.UUID.String(),
		"entity":       e.Entity.String(),
		"operator":     e.Operator.String(),
		"confidential": boolField(e.Confidential),
		"text_content": e.TextContent,
		"tag":          e.Tag,
		"note":         e.Note,
		"created":      e.Created.Format(time.RFC3339),
	}
}

func evidenceFromFields(f map[string]string) *Evidence {
	e := &Evidence{
		Confidential: f["confidential"] == "1",
		TextContent:  f["text_content"],
		Tag:          f["tag"],
		Note:         f["note"],
	}
	if id, err := uuid.Parse(f["uuid"]); err == nil {
		e.UUID = id
	}
	if id, err := uuid.Parse(f["entity"]); err == nil {
		e.Entity = id
	}
	if id, err := uuid.Parse(f["operator"]); err == nil {
		e.Operator = id
	}
	if t, err := time.Parse(time.RFC3339, f["created"]); err == nil {
		e.Created = t
	}
	return e
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
