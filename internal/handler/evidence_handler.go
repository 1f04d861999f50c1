package handler

import (
	"net/http"

	"github.com/federationserver/federationserver/internal/apierr"
	"github.com/federationserver/federationserver/internal/audit"
	"github.com/federationserver/federationserver/internal/dispatcher"
	"github.com/federationserver/federationserver/internal/response"
)

// CreateEvidence handles POST /evidence (req, manage_blacklist, audits
// EVIDENCE_SUBMITTED; spec.md §4.6, §4.11).
func (h *Handlers) CreateEvidence(w http.ResponseWriter, r *http.Request) {
	caller, err := dispatcher.RequireOperator(r.Context())
	if err != nil {
		response.WriteError(w, err)
		return
	}
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

	e, err := h.Evidence.AddEvidence(r.Context(), entityID, caller.UUID,
		params.Get("text_content"), params.Get("note"), params.Get("tag"),
		params.GetBool("confidential", false))
	if err != nil {
		response.WriteError(w, err)
		return
	}
	h.Audit.CreateEntry(r.Context(), audit.TypeEvidenceSubmitted, "evidence submitted", &caller.UUID, &entityID)
	response.WriteCreated(w, e.UUID)
}

// ListEvidence handles GET /evidence (public_evidence or authenticated;
// confidential rows only visible to manage_blacklist callers).
func (h *Handlers) ListEvidence(w http.ResponseWriter, r *http.Request) {
	if err := h.checkPublicOrAuthed(r, h.Config.Server.PublicEvidence); err != nil {
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
	result, err := h.Evidence.GetEvidenceRecords(r.Context(), includeConfidential, limit, offset)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	result.Page = page
	response.WriteSuccess(w, result)
}

// GetEvidence handles GET /evidence/{uuid}. A confidential record is
// withheld from callers without manage_blacklist (spec.md §4.6).
func (h *Handlers) GetEvidence(w http.ResponseWriter, r *http.Request) {
	if err := h.checkPublicOrAuthed(r, h.Config.Server.PublicEvidence); err != nil {
		response.WriteError(w, err)
		return
	}
	id, err := pathUUID(r, "uuid")
	if err != nil {
		response.WriteError(w, err)
		return
	}
	e, err := h.Evidence.GetEvidence(r.Context(), id)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	caller := dispatcher.OperatorFromContext(r.Context())
	if e.Confidential && (caller == nil || !caller.ManageBlacklist) {
		response.WriteError(w, apierr.New(apierr.Forbidden, "this evidence record is confidential"))
		return
	}
	response.WriteSuccess(w, e)
}

// DeleteEvidence handles DELETE /evidence/{uuid} (req, manage_blacklist,
// audits EVIDENCE_DELETED).
func (h *Handlers) DeleteEvidence(w http.ResponseWriter, r *http.Request) {
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
	if err := h.Evidence.DeleteEvidence(r.Context(), id); err != nil {
		response.WriteError(w, err)
		return
	}
	h.Audit.CreateEntry(r.Context(), audit.TypeEvidenceDeleted, "evidence deleted", &caller.UUID, nil)
	response.WriteSuccess(w, true)
}

// UpdateConfidentiality handles POST /evidence/{uuid}/update_confidentiality
// (req, manage_blacklist; setting the same value twice is a no-op on state,
// spec.md §8 idempotence law; audits TypeOther, the Open Question (b)
// resolution recorded in DESIGN.md).
func (h *Handlers) UpdateConfidentiality(w http.ResponseWriter, r *http.Request) {
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

	e, err := h.Evidence.UpdateConfidentiality(r.Context(), id, params.GetBool("confidential", false))
	if err != nil {
		response.WriteError(w, err)
		return
	}
	h.Audit.CreateEntry(r.Context(), audit.TypeOther, "evidence confidentiality updated", &caller.UUID, nil)
	response.WriteSuccess(w, e)
}
