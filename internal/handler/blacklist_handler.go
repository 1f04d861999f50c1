package handler

import (
	"net/http"
	"time"

	"github.com/federationserver/federationserver/internal/audit"
	"github.com/federationserver/federationserver/internal/blacklist"
	"github.com/federationserver/federationserver/internal/dispatcher"
	"github.com/federationserver/federationserver/internal/response"
)

// CreateBlacklist handles POST /blacklist (req, manage_blacklist, audits
// ENTITY_BLACKLISTED; spec.md §4.8, §4.11).
func (h *Handlers) CreateBlacklist(w http.ResponseWriter, r *http.Request) {
	caller := dispatcher.OperatorFromContext(r.Context())
	if err := requireManageBlacklist(caller); err != nil {
		response.WriteError(w, err)
		return
	}

	params, err := dispatcher.ReadParams(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	entityID, err := parseUUIDParam(params, "entity")
	if err != nil {
		response.WriteError(w, err)
		return
	}

	var expires *time.Time
	if v, ok := params.GetOptional("expires"); ok && v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.WriteError(w, invalidArgumentf("expires must be an RFC3339 timestamp"))
			return
		}
		expires = &parsed
	}

	evidenceID := optionalUUIDField(params.Get("evidence"))

	entry, err := h.Blacklist.BlacklistEntity(r.Context(), entityID, caller.UUID, blacklist.Type(params.Get("type")), expires, evidenceID)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	h.Audit.CreateEntry(r.Context(), audit.TypeEntityBlacklisted, "entity blacklisted: "+string(entry.Type), &caller.UUID, &entry.Entity)
	response.WriteCreated(w, entry.UUID)
}

// ListBlacklist handles GET /blacklist (public_blacklist or authenticated).
func (h *Handlers) ListBlacklist(w http.ResponseWriter, r *http.Request) {
	if err := h.checkPublicOrAuthed(r, h.Config.Server.PublicBlacklist); err != nil {
		response.WriteError(w, err)
		return
	}
	params, err := dispatcher.ReadParams(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	limit, page, offset := pageParams(params, h.Config.Server)

	result, err := h.Blacklist.GetEntries(r.Context(), params.GetBool("include_lifted", false), limit, offset)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	result.Page = page
	response.WriteSuccess(w, result)
}

// GetBlacklist handles GET /blacklist/{uuid}.
func (h *Handlers) GetBlacklist(w http.ResponseWriter, r *http.Request) {
	if err := h.checkPublicOrAuthed(r, h.Config.Server.PublicBlacklist); err != nil {
		response.WriteError(w, err)
		return
	}
	id, err := pathUUID(r, "uuid")
	if err != nil {
		response.WriteError(w, err)
		return
	}
	entry, err := h.Blacklist.GetBlacklistEntry(r.Context(), id)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.WriteSuccess(w, entry)
}

// DeleteBlacklist handles DELETE /blacklist/{uuid} (req, manage_blacklist,
// audits BLACKLIST_RECORD_DELETED).
func (h *Handlers) DeleteBlacklist(w http.ResponseWriter, r *http.Request) {
	caller := dispatcher.OperatorFromContext(r.Context())
	if err := requireManageBlacklist(caller); err != nil {
		response.WriteError(w, err)
		return
	}
	id, err := pathUUID(r, "uuid")
	if err != nil {
		response.WriteError(w, err)
		return
	}
	if err := h.Blacklist.DeleteBlacklistRecord(r.Context(), id); err != nil {
		response.WriteError(w, err)
		return
	}
	h.Audit.CreateEntry(r.Context(), audit.TypeBlacklistRecordDeleted, "blacklist record deleted", &caller.UUID, nil)
	response.WriteSuccess(w, true)
}

// LiftBlacklist handles POST /blacklist/{uuid}/lift (req, manage_blacklist,
// audits BLACKLIST_LIFTED; lifting twice is rejected, spec.md §8).
func (h *Handlers) LiftBlacklist(w http.ResponseWriter, r *http.Request) {
	caller := dispatcher.OperatorFromContext(r.Context())
	if err := requireManageBlacklist(caller); err != nil {
		response.WriteError(w, err)
		return
	}
	id, err := pathUUID(r, "uuid")
	if err != nil {
		response.WriteError(w, err)
		return
	}
	entry, err := h.Blacklist.LiftBlacklistRecord(r.Context(), id, caller.UUID)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	h.Audit.CreateEntry(r.Context(), audit.TypeBlacklistLifted, "blacklist record lifted", &caller.UUID, &entry.Entity)
	response.WriteSuccess(w, entry)
}

// AttachBlacklistEvidence handles POST /blacklist/{uuid}/attach_evidence
// (req, manage_blacklist, audits BLACKLIST_ATTACHMENT_ADDED; fails if the
// record already carries evidence, spec.md §4.8).
func (h *Handlers) AttachBlacklistEvidence(w http.ResponseWriter, r *http.Request) {
	caller := dispatcher.OperatorFromContext(r.Context())
	if err := requireManageBlacklist(caller); err != nil {
		response.WriteError(w, err)
		return
	}
	id, err := pathUUID(r, "uuid")
	if err != nil {
		response.WriteError(w, err)
		return
	}
	params, err := dispatcher.ReadParams(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	evidenceID, err := parseUUIDParam(params, "evidence")
	if err != nil {
		response.WriteError(w, err)
		return
	}

	entry, err := h.Blacklist.AttachEvidence(r.Context(), id, evidenceID)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	h.Audit.CreateEntry(r.Context(), audit.TypeBlacklistAttachmentAdded, "evidence attached to blacklist record", &caller.UUID, &entry.Entity)
	response.WriteSuccess(w, entry)
}
