package handler

import (
	"net/http"

	"github.com/federationserver/federationserver/internal/audit"
	"github.com/federationserver/federationserver/internal/blacklist"
	"github.com/federationserver/federationserver/internal/dispatcher"
	"github.com/federationserver/federationserver/internal/entity"
	"github.com/federationserver/federationserver/internal/evidence"
	"github.com/federationserver/federationserver/internal/response"
)

// EntityDossier composes an entity with its blacklist and evidence
// history for the GET /entities/{id}/query route (spec.md §4.5). It is
// assembled at the handler layer, not inside internal/entity, since that
// package cannot import internal/blacklist or internal/evidence without
// an import cycle back to internal/entity's own existence-check interfaces.
type EntityDossier struct {
	Entity    entity.Entity     `json:"entity"`
	Blacklist []blacklist.Entry `json:"blacklist"`
	Evidence  []evidence.Evidence `json:"evidence"`
}

// CreateEntity handles POST /entities (req, is_client; idempotent on
// (id, host); spec.md §4.5, §4.11).
func (h *Handlers) CreateEntity(w http.ResponseWriter, r *http.Request) {
	caller, err := dispatcher.RequireOperator(r.Context())
	if err != nil {
		response.WriteError(w, err)
		return
	}
	if err := requireIsClient(caller); err != nil {
		response.WriteError(w, err)
		return
	}

	params, err := dispatcher.ReadParams(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	var host *string
	if v, ok := params.GetOptional("host"); ok && v != "" {
		host = &v
	}

	e, created, err := h.Entities.RegisterEntity(r.Context(), params.Get("id"), host)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	if created {
		h.Audit.CreateEntry(r.Context(), audit.TypeEntityPushed, "entity registered: "+e.Canonical(), &caller.UUID, &e.UUID)
		response.WriteCreated(w, e.UUID)
		return
	}
	response.WriteSuccess(w, e)
}

// ListEntities handles GET /entities (public_entities or authenticated).
func (h *Handlers) ListEntities(w http.ResponseWriter, r *http.Request) {
	if err := h.checkPublicOrAuthed(r, h.Config.Server.PublicEntities); err != nil {
		response.WriteError(w, err)
		return
	}
	params, err := dispatcher.ReadParams(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	limit, page, offset := pageParams(params, h.Config.Server)

	result, err := h.Entities.GetEntities(r.Context(), limit, offset)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	result.Page = page
	response.WriteSuccess(w, result)
}

// GetEntity handles GET /entities/{id}, resolving {id} as either a UUID or
// a 64-char hash (spec.md §9 Open Question c).
func (h *Handlers) GetEntity(w http.ResponseWriter, r *http.Request) {
	if err := h.checkPublicOrAuthed(r, h.Config.Server.PublicEntities); err != nil {
		response.WriteError(w, err)
		return
	}
	e, err := h.resolveEntityParam(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.WriteSuccess(w, e)
}

// DeleteEntity handles DELETE /entities/{id} (req, manage_blacklist,
// audits ENTITY_DELETED).
func (h *Handlers) DeleteEntity(w http.ResponseWriter, r *http.Request) {
	caller := dispatcher.OperatorFromContext(r.Context())
	if err := requireManageBlacklist(caller); err != nil {
		response.WriteError(w, err)
		return
	}
	e, err := h.resolveEntityParam(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	if err := h.Entities.DeleteEntity(r.Context(), e.UUID); err != nil {
		response.WriteError(w, err)
		return
	}
	h.Audit.CreateEntry(r.Context(), audit.TypeEntityDeleted, "entity deleted: "+e.Canonical(), &caller.UUID, &e.UUID)
	response.WriteSuccess(w, true)
}

// EntityQuery handles GET /entities/{id}/query: the full dossier combining
// the entity with its blacklist and evidence history (spec.md §4.5).
func (h *Handlers) EntityQuery(w http.ResponseWriter, r *http.Request) {
	if err := h.checkPublicOrAuthed(r, h.Config.Server.PublicEntities); err != nil {
		response.WriteError(w, err)
		return
	}
	e, err := h.resolveEntityParam(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	caller := dispatcher.OperatorFromContext(r.Context())
	includeConfidential := caller != nil && caller.ManageBlacklist

	blacklistPage, err := h.Blacklist.GetEntriesByEntity(r.Context(), e.UUID, true, h.Config.Server.MaxItemsPerKind, 0)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	evidencePage, err := h.Evidence.GetEvidenceByEntity(r.Context(), e.UUID, includeConfidential, h.Config.Server.MaxItemsPerKind, 0)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.WriteSuccess(w, EntityDossier{
		Entity:    *e,
		Blacklist: blacklistPage.Entries,
		Evidence:  evidencePage.Evidence,
	})
}

// EntityAudit handles GET /entities/{id}/audit.
func (h *Handlers) EntityAudit(w http.ResponseWriter, r *http.Request) {
	if err := h.checkPublicOrAuthed(r, h.Config.Server.PublicAuditLogs); err != nil {
		response.WriteError(w, err)
		return
	}
	e, err := h.resolveEntityParam(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	params, err := dispatcher.ReadParams(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	limit, page, offset := pageParams(params, h.Config.Server)

	allowedTypes := h.allowedAuditTypes(r.Context())
	result, err := h.Audit.GetEntriesByEntity(r.Context(), e.UUID, allowedTypes, limit, offset)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	result.Page = page
	response.WriteSuccess(w, result)
}

// EntityBlacklist handles GET /entities/{id}/blacklist.
func (h *Handlers) EntityBlacklist(w http.ResponseWriter, r *http.Request) {
	if err := h.checkPublicOrAuthed(r, h.Config.Server.PublicBlacklist); err != nil {
		response.WriteError(w, err)
		return
	}
	e, err := h.resolveEntityParam(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	params, err := dispatcher.ReadParams(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	limit, page, offset := pageParams(params, h.Config.Server)

	result, err := h.Blacklist.GetEntriesByEntity(r.Context(), e.UUID, params.GetBool("include_lifted", false), limit, offset)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	result.Page = page
	response.WriteSuccess(w, result)
}

// EntityEvidence handles GET /entities/{id}/evidence.
func (h *Handlers) EntityEvidence(w http.ResponseWriter, r *http.Request) {
	if err := h.checkPublicOrAuthed(r, h.Config.Server.PublicEvidence); err != nil {
		response.WriteError(w, err)
		return
	}
	e, err := h.resolveEntityParam(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	params, err := dispatcher.ReadParams(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	limit, page, offset := pageParams(params, h.Config.Server)

	caller := dispatcher.OperatorFromContext(r.Context())
	includeConfidential := caller != nil && caller.ManageBlacklist
	result, err := h.Evidence.GetEvidenceByEntity(r.Context(), e.UUID, includeConfidential, limit, offset)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	result.Page = page
	response.WriteSuccess(w, result)
}

// resolveEntityParam resolves the {id} path segment via
// internal/entity.Resolve, which accepts either a UUID or a 64-char hash.
func (h *Handlers) resolveEntityParam(r *http.Request) (*entity.Entity, error) {
	raw := chiURLParamOrEmpty(r, "id")
	return h.Entities.Resolve(r.Context(), raw)
}
