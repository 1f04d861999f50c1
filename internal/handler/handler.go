// Package handler implements the per-route validation, permission check,
// manager call, and audit emission described in spec.md §4.11, one file per
// resource.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/federationserver/federationserver/internal/apierr"
	"github.com/federationserver/federationserver/internal/audit"
	"github.com/federationserver/federationserver/internal/attachment"
	"github.com/federationserver/federationserver/internal/blacklist"
	"github.com/federationserver/federationserver/internal/config"
	"github.com/federationserver/federationserver/internal/dispatcher"
	"github.com/federationserver/federationserver/internal/entity"
	"github.com/federationserver/federationserver/internal/evidence"
	"github.com/federationserver/federationserver/internal/operator"
)

// Handlers holds every manager the route table dispatches into, plus the
// configuration needed for permission/visibility checks.
type Handlers struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Operators   *operator.Service
	Entities    *entity.Service
	Evidence    *evidence.Service
	Attachments *attachment.Service
	Blacklist   *blacklist.Service
	Audit       *audit.Service
}

// New wires a Handlers from its dependencies.
func New(cfg *config.Config, logger zerolog.Logger, operators *operator.Service, entities *entity.Service, ev *evidence.Service, attachments *attachment.Service, bl *blacklist.Service, aud *audit.Service) *Handlers {
	return &Handlers{
		Config:      cfg,
		Logger:      logger.With().Str("component", "handler").Logger(),
		Operators:   operators,
		Entities:    entities,
		Evidence:    ev,
		Attachments: attachments,
		Blacklist:   bl,
		Audit:       aud,
	}
}

func pageParams(p dispatcher.Params, cfg config.ServerConfig) (limit, page, offset int) {
	limit = cfg.ClampLimit(p.GetInt("limit", 0))
	page = cfg.ClampPage(p.GetInt("page", 1))
	offset = (page - 1) * limit
	return limit, page, offset
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, apierr.New(apierr.InvalidArgument, "malformed "+name)
	}
	return id, nil
}

func requireManageOperators(op *operator.Operator) error {
	if op == nil || !op.ManageOperators {
		return apierr.New(apierr.Forbidden, "this route requires manage_operators")
	}
	return nil
}

func requireManageBlacklist(op *operator.Operator) error {
	if op == nil || !op.ManageBlacklist {
		return apierr.New(apierr.Forbidden, "this route requires manage_blacklist")
	}
	return nil
}

func requireIsClient(op *operator.Operator) error {
	if op == nil || !op.IsClient {
		return apierr.New(apierr.Forbidden, "this route requires is_client")
	}
	return nil
}

func optionalUUIDField(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

// chiURLParamOrEmpty returns the named path parameter, or "" if the route
// was matched without it (used where a route is mounted both with and
// without a trailing {uuid} segment, e.g. POST /operators/refresh vs.
// POST /operators/{uuid}/refresh).
func chiURLParamOrEmpty(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

func forbiddenNotSelf() error {
	return apierr.New(apierr.Forbidden, "operators may only refresh their own api key unless they have manage_operators")
}

func apierrAlreadyDisabled() error {
	return apierr.New(apierr.InvalidArgument, "operator is already disabled")
}

func invalidArgumentf(format string, args ...interface{}) error {
	return apierr.Newf(apierr.InvalidArgument, format, args...)
}

// parseUUIDParam reads key from p and parses it as a UUID, surfacing a
// well-formed invalid-argument error on a missing or malformed value.
func parseUUIDParam(p dispatcher.Params, key string) (uuid.UUID, error) {
	raw := p.Get(key)
	if raw == "" {
		return uuid.UUID{}, apierr.New(apierr.InvalidArgument, key+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, apierr.New(apierr.InvalidArgument, key+" must be a UUID")
	}
	return id, nil
}

// checkPublicOrAuthed enforces that a route guarded by a public_* config
// flag is reachable either because the flag is set or because the caller
// is an authenticated operator (spec.md §4.11's public-visibility rows).
func (h *Handlers) checkPublicOrAuthed(r *http.Request, public bool) error {
	if public {
		return nil
	}
	if dispatcher.OperatorFromContext(r.Context()) == nil {
		return apierr.New(apierr.Forbidden, "this resource is not public")
	}
	return nil
}

// allowedAuditTypes restricts anonymous callers to the configured
// public_audit_entries types; authenticated operators see every type
// (spec.md §4.9).
func (h *Handlers) allowedAuditTypes(ctx context.Context) []audit.Type {
	if dispatcher.OperatorFromContext(ctx) != nil {
		return nil
	}
	types := make([]audit.Type, 0, len(h.Config.Server.PublicAuditTypes))
	for _, t := range h.Config.Server.PublicAuditTypes {
		types = append(types, audit.Type(t))
	}
	return types
}
