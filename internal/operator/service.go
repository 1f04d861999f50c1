package operator

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/federationserver/federationserver/internal/apierr"
	"github.com/federationserver/federationserver/internal/cache"
	"github.com/federationserver/federationserver/internal/config"
)

const apiKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
const apiKeyLength = 32

const cacheKind = "operators"

// Service implements OperatorManager (spec.md §4.4).
type Service struct {
	repo   *Repository
	cache  cache.Cache
	cfg    config.CacheConfig
	logger zerolog.Logger
}

// NewService wires a Service from its dependencies.
func NewService(repo *Repository, c cache.Cache, cfg config.CacheConfig, logger zerolog.Logger) *Service {
	return &Service{repo: repo, cache: c, cfg: cfg, logger: logger.With().Str("component", "operator").Logger()}
}

func newAPIKey() (string, error) {
	b := make([]byte, apiKeyLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = apiKeyAlphabet[int(b[i])%len(apiKeyAlphabet)]
	}
	return string(b), nil
}

// CreateOperator registers a new operator with a freshly issued API key.
func (s *Service) CreateOperator(ctx context.Context, name string, manageOperators, manageBlacklist, isClient bool) (*Operator, error) {
	if name == "" {
		return nil, apierr.New(apierr.InvalidArgument, "name is required")
	}
	if name == MasterOperatorName {
		return nil, apierr.New(apierr.InvalidArgument, "name is reserved")
	}

	apiKey, err := newAPIKey()
	if err != nil {
		return nil, apierr.Wrap(apierr.Unexpected, "generate api key", err)
	}

	now := time.Now().UTC()
	o := &Operator{
		UUID:            uuid.New(),
		Name:            name,
		APIKey:          apiKey,
		ManageOperators: manageOperators,
		ManageBlacklist: manageBlacklist,
		IsClient:        isClient,
		Disabled:        false,
		Created:         now,
		Updated:         now,
	}

	if err := s.repo.Insert(ctx, o); err != nil {
		return nil, apierr.WrapDatabase("insert operator", err)
	}
	return o, nil
}

// GetOperator fetches an operator by UUID, cache-first when caching is
// enabled for this kind (spec.md §4.3).
func (s *Service) GetOperator(ctx context.Context, id uuid.UUID) (*Operator, error) {
	key := cache.KeyFor(cacheKind, id.String())

	if fields, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		return operatorFromFields(fields), nil
	}

	o, err := s.repo.GetByUUID(ctx, id)
	if err != nil {
		return nil, apierr.WrapDatabase("get operator", err)
	}
	if o == nil {
		return nil, apierr.New(apierr.NotFound, "operator not found")
	}

	s.cacheStore(ctx, key, o)
	return o, nil
}

// GetOperatorByAPIKey fetches an operator by its API key, cache-first.
// It never returns NotFound directly to the dispatcher's authenticator:
// callers interpret a nil, nil result as "unknown key".
func (s *Service) GetOperatorByAPIKey(ctx context.Context, apiKey string) (*Operator, error) {
	o, err := s.repo.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, apierr.WrapDatabase("get operator by api key", err)
	}
	return o, nil
}

// GetMasterOperator returns the implicit master operator, synthesizing its
// row on first use via an ON CONFLICT DO NOTHING insert so concurrent
// first callers race safely (spec.md §9).
func (s *Service) GetMasterOperator(ctx context.Context, masterAPIKey string) (*Operator, error) {
	existing, err := s.repo.GetByName(ctx, MasterOperatorName)
	if err != nil {
		return nil, apierr.WrapDatabase("get master operator", err)
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	candidate := &Operator{
		UUID:    uuid.New(),
		Name:    MasterOperatorName,
		APIKey:  masterAPIKey,
		Created: now,
		Updated: now,
	}
	if err := s.repo.InsertMasterIfAbsent(ctx, candidate); err != nil {
		return nil, apierr.WrapDatabase("synthesize master operator", err)
	}

	created, err := s.repo.GetByName(ctx, MasterOperatorName)
	if err != nil {
		return nil, apierr.WrapDatabase("get master operator after insert", err)
	}
	if created == nil {
		return nil, apierr.New(apierr.Unexpected, "master operator missing after synthesis")
	}
	return created, nil
}

// SetPermissions updates the three permission flags. The master operator's
// permissions are fixed and cannot be changed through the API.
func (s *Service) SetPermissions(ctx context.Context, id uuid.UUID, manageOperators, manageBlacklist, isClient bool) (*Operator, error) {
	o, err := s.requireMutable(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.repo.UpdatePermissions(ctx, id, manageOperators, manageBlacklist, isClient, now); err != nil {
		return nil, apierr.WrapDatabase("update operator permissions", err)
	}

	o.ManageOperators = manageOperators
	o.ManageBlacklist = manageBlacklist
	o.IsClient = isClient
	o.Updated = now
	s.invalidate(ctx, id)
	return o, nil
}

// DisableOperator marks an operator disabled, barring it from routes
// requiring a known enabled operator. The master operator is immune.
func (s *Service) DisableOperator(ctx context.Context, id uuid.UUID) (*Operator, error) {
	o, err := s.requireMutable(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := s.repo.SetDisabled(ctx, id, true, now); err != nil {
		return nil, apierr.WrapDatabase("disable operator", err)
	}
	o.Disabled = true
	o.Updated = now
	s.invalidate(ctx, id)
	return o, nil
}

// EnableOperator clears the disabled flag.
func (s *Service) EnableOperator(ctx context.Context, id uuid.UUID) (*Operator, error) {
	o, err := s.repo.GetByUUID(ctx, id)
	if err != nil {
		return nil, apierr.WrapDatabase("get operator", err)
	}
	if o == nil {
		return nil, apierr.New(apierr.NotFound, "operator not found")
	}
	now := time.Now().UTC()
	if err := s.repo.SetDisabled(ctx, id, false, now); err != nil {
		return nil, apierr.WrapDatabase("enable operator", err)
	}
	o.Disabled = false
	o.Updated = now
	s.invalidate(ctx, id)
	return o, nil
}

// RefreshAPIKey issues a new API key for an operator. The master operator's
// key is fixed at configuration and cannot be refreshed through the API.
func (s *Service) RefreshAPIKey(ctx context.Context, id uuid.UUID) (*Operator, error) {
	o, err := s.requireMutable(ctx, id)
	if err != nil {
		if e, ok := apierr.As(err); ok && e.Kind == apierr.Forbidden {
			return nil, apierr.New(apierr.Forbidden, "Cannot refresh API key for master operator")
		}
		return nil, err
	}

	newKey, err := newAPIKey()
	if err != nil {
		return nil, apierr.Wrap(apierr.Unexpected, "generate api key", err)
	}

	now := time.Now().UTC()
	if err := s.repo.SetAPIKey(ctx, id, newKey, now); err != nil {
		return nil, apierr.WrapDatabase("refresh api key", err)
	}
	o.APIKey = newKey
	o.Updated = now
	s.invalidate(ctx, id)
	return o, nil
}

// DeleteOperator removes an operator. The master operator cannot be
// deleted through the API.
func (s *Service) DeleteOperator(ctx context.Context, id uuid.UUID) error {
	o, err := s.requireMutable(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apierr.WrapDatabase("delete operator", err)
	}
	s.invalidate(ctx, o.UUID)
	return nil
}

// ListOperators returns a page of operators.
func (s *Service) ListOperators(ctx context.Context, limit, offset int) (*Page, error) {
	operators, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, apierr.WrapDatabase("list operators", err)
	}
	return &Page{Operators: operators, Total: total, Limit: limit}, nil
}

// Exists reports whether id names a known operator, used by other managers
// (evidence, blacklist, audit) to validate foreign references without an
// import cycle back into this package's full Service.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return false, apierr.WrapDatabase("check operator exists", err)
	}
	return ok, nil
}

// CountRecords returns the total number of operators, for CLI/maintenance
// reporting.
func (s *Service) CountRecords(ctx context.Context) (int64, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, apierr.WrapDatabase("count operators", err)
	}
	return n, nil
}

func (s *Service) requireMutable(ctx context.Context, id uuid.UUID) (*Operator, error) {
	o, err := s.repo.GetByUUID(ctx, id)
	if err != nil {
		return nil, apierr.WrapDatabase("get operator", err)
	}
	if o == nil {
		return nil, apierr.New(apierr.NotFound, "operator not found")
	}
	if o.IsMaster() {
		return nil, apierr.New(apierr.Forbidden, "the master operator cannot be modified through the API")
	}
	return o, nil
}

func (s *Service) cacheStore(ctx context.Context, key string, o *Operator) {
	if exceeded, err := s.cache.LimitExceeded(ctx, cacheKind+":", s.cfg.Kinds[cacheKind].Limit); err != nil || exceeded {
		return
	}
	ttl := s.cfg.Kinds[cacheKind].TTL
	_ = s.cache.Set(ctx, key, operatorToFields(o), ttl)
}

func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	_ = s.cache.Invalidate(ctx, cache.KeyFor(cacheKind, id.String()))
}

func operatorToFields(o *Operator) map[string]string {
	return map[string]string{
		"uuid":             o.UUID.String(),
		"name":             o.Name,
		"api_key":          o.APIKey,
		"manage_operators": boolField(o.ManageOperators),
		"manage_blacklist": boolField(o.ManageBlacklist),
		"is_client":        boolField(o.IsClient),
		"disabled":         boolField(o.Disabled),
		"created":          o.Created.Format(time.RFC3339),
		"updated":          o.Updated.Format(time.RFC3339),
	}
}

func operatorFromFields(f map[string]string) *Operator {
	o := &Operator{
		Name:            f["name"],
		APIKey:          f["api_key"],
		ManageOperators: f["manage_operators"] == "1",
		ManageBlacklist: f["manage_blacklist"] == "1",
		IsClient:        f["is_client"] == "1",
		Disabled:        f["disabled"] == "1",
	}
	if id, err := uuid.Parse(f["uuid"]); err == nil {
		o.UUID = id
	}
	if t, err := time.Parse(time.RFC3339, f["created"]); err == nil {
		o.Created = t
	}
	if t, err := time.Parse(time.RFC3339, f["updated"]); err == nil {
		o.Updated = t
	}
	return o
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
