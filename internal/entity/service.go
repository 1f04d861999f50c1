package entity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/federationserver/federationserver/internal/apierr"
	"github.com/federationserver/federationserver/internal/cache"
	"github.com/federationserver/federationserver/internal/config"
)

const (
	maxIDLength   = 255
	maxHostLength = 255
	cacheKind     = "entities"
)

// Service implements EntitiesManager (spec.md §4.5).
type Service struct {
	repo   *Repository
	cache  cache.Cache
	cfg    config.CacheConfig
	logger zerolog.Logger
}

// NewService wires a Service from its dependencies.
func NewService(repo *Repository, c cache.Cache, cfg config.CacheConfig, logger zerolog.Logger) *Service {
	return &Service{repo: repo, cache: c, cfg: cfg, logger: logger.With().Str("component", "entity").Logger()}
}

func hashOf(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// RegisterEntity registers id (optionally scoped to host), returning the
// existing UUID if the (id, host) pair was already registered (idempotent,
// spec.md §4.5 and testable property on push idempotence).
func (s *Service) RegisterEntity(ctx context.Context, id string, host *string) (*Entity, bool, error) {
	if id == "" {
		return nil, false, apierr.New(apierr.InvalidArgument, "id is required")
	}
	if len(id) > maxIDLength {
		return nil, false, apierr.New(apierr.InvalidArgument, "id exceeds maximum length")
	}
	if host != nil && len(*host) > maxHostLength {
		return nil, false, apierr.New(apierr.InvalidArgument, "host exceeds maximum length")
	}

	canonical := Canonicalize(id, host)
	hash := hashOf(canonical)

	if existing, err := s.repo.GetByHash(ctx, hash); err != nil {
		return nil, false, apierr.WrapDatabase("get entity by hash", err)
	} else if existing != nil {
		return existing, false, nil
	}

	e := &Entity{
		UUID:    uuid.New(),
		Hash:    hash,
		ID:      id,
		Host:    host,
		Created: time.Now().UTC(),
	}
	if err := s.repo.InsertIfAbsent(ctx, e); err != nil {
		return nil, false, apierr.WrapDatabase("insert entity", err)
	}

	// Re-select: a concurrent racer may have won the unique-hash insert.
	created, err := s.repo.GetByHash(ctx, hash)
	if err != nil {
		return nil, false, apierr.WrapDatabase("get entity after insert", err)
	}
	if created == nil {
		return nil, false, apierr.New(apierr.Unexpected, "entity missing after registration")
	}
	return created, created.UUID == e.UUID, nil
}

// EntityExists reports whether (id, host) names a registered entity.
func (s *Service) EntityExists(ctx context.Context, id string, host *string) (bool, error) {
	e, err := s.repo.GetByHash(ctx, hashOf(Canonicalize(id, host)))
	if err != nil {
		return false, apierr.WrapDatabase("get entity by hash", err)
	}
	return e != nil, nil
}

// EntityExistsByUUID reports whether id names a registered entity, used by
// other managers (evidence, blacklist) to validate foreign references.
func (s *Service) EntityExistsByUUID(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := s.repo.ExistsByUUID(ctx, id)
	if err != nil {
		return false, apierr.WrapDatabase("check entity exists", err)
	}
	return ok, nil
}

// GetEntityByUUID fetches an entity by UUID, cache-first.
func (s *Service) GetEntityByUUID(ctx context.Context, id uuid.UUID) (*Entity, error) {
	key := cache.KeyFor(cacheKind, id.String())
	if fields, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		return entityFromFields(fields), nil
	}

	e, err := s.repo.GetByUUID(ctx, id)
	if err != nil {
		return nil, apierr.WrapDatabase("get entity", err)
	}
	if e == nil {
		return nil, apierr.New(apierr.NotFound, "entity not found")
	}
	s.cacheStore(ctx, key, e)
	return e, nil
}

// GetEntityByHash fetches an entity by hash.
func (s *Service) GetEntityByHash(ctx context.Context, hash string) (*Entity, error) {
	e, err := s.repo.GetByHash(ctx, hash)
	if err != nil {
		return nil, apierr.WrapDatabase("get entity by hash", err)
	}
	if e == nil {
		return nil, apierr.New(apierr.NotFound, "entity not found")
	}
	return e, nil
}

// Resolve looks up an entity by either its 36-char UUID or its 64-char hex
// SHA-256 hash, the "UUID-or-hash" shape spec.md §4.10/§9 Open Question (c)
// requires for the blacklist and evidence attach/read routes.
func (s *Service) Resolve(ctx context.Context, ref string) (*Entity, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return s.GetEntityByUUID(ctx, id)
	}
	if len(ref) == 64 {
		return s.GetEntityByHash(ctx, ref)
	}
	return nil, apierr.New(apierr.InvalidArgument, "entity reference must be a UUID or a 64-char hash")
}

// GetEntities returns a page of entities.
func (s *Service) GetEntities(ctx context.Context, limit, offset int) (*Page, error) {
	entities, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, apierr.WrapDatabase("list entities", err)
	}
	return &Page{Entities: entities, Total: total, Limit: limit}, nil
}

// DeleteEntity removes an entity; evidence and blacklist rows cascade.
func (s *Service) DeleteEntity(ctx context.Context, id uuid.UUID) error {
	e, err := s.repo.GetByUUID(ctx, id)
	if err != nil {
		return apierr.WrapDatabase("get entity", err)
	}
	if e == nil {
		return apierr.New(apierr.NotFound, "entity not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apierr.WrapDatabase("delete entity", err)
	}
	_ = s.cache.Invalidate(ctx, cache.KeyFor(cacheKind, id.String()))
	return nil
}

func (s *Service) cacheStore(ctx context.Context, key string, e *Entity) {
	if exceeded, err := s.cache.LimitExceeded(ctx, cacheKind+":", s.cfg.Kinds[cacheKind].Limit); err != nil || exceeded {
		return
	}
	_ = s.cache.Set(ctx, key, entityToFields(e), s.cfg.Kinds[cacheKind].TTL)
}

func entityToFields(e *Entity) map[string]string {
	fields := map[string]string{
		"uuid":    e.UUID.String(),
		"hash":    e.Hash,
		"id":      e.ID,
		"created": e.Created.Format(time.RFC3339),
	}
	if e.Host != nil {
		fields["host"] = *e.Host
	}
	return fields
}

func entityFromFields(f map[string]string) *Entity {
	e := &Entity{Hash: f["hash"], ID: f["id"]}
	if host, ok := f["host"]; ok && host != "" {
		e.Host = &host
	}
	if id, err := uuid.Parse(f["uuid"]); err == nil {
		e.UUID = id
	}
	if t, err := time.Parse(time.RFC3339, f["created"]); err == nil {
		e.Created = t
	}
	return e
}
