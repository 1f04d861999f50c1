package handler

import (
	"net/http"

	"github.com/federationserver/federationserver/internal/dispatcher"
	"github.com/federationserver/federationserver/internal/response"
)

// ListAudit handles GET /audit: public_audit_logs gates access for
// anonymous callers, who additionally see only public_audit_entries types
// (spec.md §4.9, §4.11).
func (h *Handlers) ListAudit(w http.ResponseWriter, r *http.Request) {
	if err := h.checkPublicOrAuthed(r, h.Config.Server.PublicAuditLogs); err != nil {
		response.WriteError(w, err)
		return
	}
	params, err := dispatcher.ReadParams(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	limit, page, offset := pageParams(params, h.Config.Server)

	result, err := h.Audit.GetEntries(r.Context(), h.allowedAuditTypes(r.Context()), limit, offset)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	result.Page = page
	response.WriteSuccess(w, result)
}

// GetAuditEntry handles GET /audit/{uuid}.
func (h *Handlers) GetAuditEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.checkPublicOrAuthed(r, h.Config.Server.PublicAuditLogs); err != nil {
		response.WriteError(w, err)
		return
	}
	id, err := pathUUID(r, "uuid")
	if err != nil {
		response.WriteError(w, err)
		return
	}
	e, err := h.Audit.GetEntry(r.Context(), id)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.WriteSuccess(w, e)
}
