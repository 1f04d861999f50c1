package handler

import (
	"net/http"

	"github.com/federationserver/federationserver/internal/audit"
	"github.com/federationserver/federationserver/internal/dispatcher"
	"github.com/federationserver/federationserver/internal/response"
)

// CreateOperator handles POST /operators (spec.md §4.11: req, manage_operators,
// audits OPERATOR_CREATED).
func (h *Handlers) CreateOperator(w http.ResponseWriter, r *http.Request) {
	caller := dispatcher.OperatorFromContext(r.Context())
	if err := requireManageOperators(caller); err != nil {
		response.WriteError(w, err)
		return
	}

	params, err := dispatcher.ReadParams(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	created, err := h.Operators.CreateOperator(r.Context(), params.Get("name"),
		params.GetBool("manage_operators", false),
		params.GetBool("manage_blacklist", false),
		params.GetBool("is_client", false))
	if err != nil {
		response.WriteError(w, err)
		return
	}

	h.Audit.CreateEntry(r.Context(), audit.TypeOperatorCreated, "operator created: "+created.Name, &caller.UUID, nil)
	response.WriteCreated(w, created.UUID)
}

// ListOperators handles GET /operators (req, manage_operators).
func (h *Handlers) ListOperators(w http.ResponseWriter, r *http.Request) {
	caller := dispatcher.OperatorFromContext(r.Context())
	if err := requireManageOperators(caller); err != nil {
		response.WriteError(w, err)
		return
	}

	params, err := dispatcher.ReadParams(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	limit, page, offset := pageParams(params, h.Config.Server)

	result, err := h.Operators.ListOperators(r.Context(), limit, offset)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	result.Page = page
	for i := range result.Operators {
		result.Operators[i] = result.Operators[i].Redacted()
	}
	response.WriteSuccess(w, result)
}

// GetSelf handles GET /operators/self (req).
func (h *Handlers) GetSelf(w http.ResponseWriter, r *http.Request) {
	caller, err := dispatcher.RequireOperator(r.Context())
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.WriteSuccess(w, caller)
}

// GetOperator handles GET /operators/{uuid} (optional auth; redacted unless
// caller can manage_operators).
func (h *Handlers) GetOperator(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "uuid")
	if err != nil {
		response.WriteError(w, err)
		return
	}

	op, err := h.Operators.GetOperator(r.Context(), id)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	caller := dispatcher.OperatorFromContext(r.Context())
	if caller == nil || !caller.ManageOperators {
		redacted := op.Redacted()
		response.WriteSuccess(w, redacted)
		return
	}
	response.WriteSuccess(w, op)
}

// DeleteOperator handles POST /operators/{uuid}/delete (req, manage_operators,
// audits OPERATOR_DELETED).
func (h *Handlers) DeleteOperator(w http.ResponseWriter, r *http.Request) {
	caller := dispatcher.OperatorFromContext(r.Context())
	if err := requireManageOperators(caller); err != nil {
		response.WriteError(w, err)
		return
	}
	id, err := pathUUID(r, "uuid")
	if err != nil {
		response.WriteError(w, err)
		return
	}
	if err := h.Operators.DeleteOperator(r.Context(), id); err != nil {
		response.WriteError(w, err)
		return
	}
	h.Audit.CreateEntry(r.Context(), audit.TypeOperatorDeleted, "operator deleted", &caller.UUID, nil)
	response.WriteSuccess(w, true)
}

// EnableOperator handles POST /operators/{uuid}/enable (req, manage_operators,
// audits OPERATOR_ENABLED).
func (h *Handlers) EnableOperator(w http.ResponseWriter, r *http.Request) {
	caller := dispatcher.OperatorFromContext(r.Context())
	if err := requireManageOperators(caller); err != nil {
		response.WriteError(w, err)
		return
	}
	id, err := pathUUID(r, "uuid")
	if err != nil {
		response.WriteError(w, err)
		return
	}
	op, err := h.Operators.EnableOperator(r.Context(), id)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	h.Audit.CreateEntry(r.Context(), audit.TypeOperatorEnabled, "operator enabled", &caller.UUID, nil)
	response.WriteSuccess(w, op)
}

// DisableOperator handles POST /operators/{uuid}/disable (req, manage_operators,
// audits OPERATOR_DISABLED). Disabling an already-disabled operator returns
// 400 (spec.md §8 idempotence law) because the master operator's immunity
// check and the already-disabled case both surface from the same manager
// call; disabling twice is rejected at the manager layer via requireMutable.
func (h *Handlers) DisableOperator(w http.ResponseWriter, r *http.Request) {
	caller := dispatcher.OperatorFromContext(r.Context())
	if err := requireManageOperators(caller); err != nil {
		response.WriteError(w, err)
		return
	}
	id, err := pathUUID(r, "uuid")
	if err != nil {
		response.WriteError(w, err)
		return
	}

	existing, err := h.Operators.GetOperator(r.Context(), id)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	if existing.Disabled {
		response.WriteError(w, apierrAlreadyDisabled())
		return
	}

	op, err := h.Operators.DisableOperator(r.Context(), id)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	h.Audit.CreateEntry(r.Context(), audit.TypeOperatorDisabled, "operator disabled", &caller.UUID, nil)
	response.WriteSuccess(w, op)
}

// SetManageOperators handles POST /operators/{uuid}/manage_operators.
func (h *Handlers) SetManageOperators(w http.ResponseWriter, r *http.Request) {
	h.setPermission(w, r, func(op, value bool, manageBlacklist, isClient bool) (bool, bool, bool) {
		return value, manageBlacklist, isClient
	})
}

// SetManageBlacklist handles POST /operators/{uuid}/manage_blacklist.
func (h *Handlers) SetManageBlacklist(w http.ResponseWriter, r *http.Request) {
	h.setPermission(w, r, func(manageOperators, value bool, _, isClient bool) (bool, bool, bool) {
		return manageOperators, value, isClient
	})
}

// SetManageClient handles POST /operators/{uuid}/manage_client.
func (h *Handlers) SetManageClient(w http.ResponseWriter, r *http.Request) {
	h.setPermission(w, r, func(manageOperators, value bool, manageBlacklist, _ bool) (bool, bool, bool) {
		return manageOperators, manageBlacklist, value
	})
}

// setPermission is the shared body for the three permission-toggle routes:
// each reads the target's current flags, applies the caller's requested
// change via combine, and writes back all three (spec.md §4.11, audits
// OPERATOR_PERMISSIONS_CHANGED).
func (h *Handlers) setPermission(w http.ResponseWriter, r *http.Request, combine func(manageOperators, value, manageBlacklist, isClient bool) (bool, bool, bool)) {
	caller := dispatcher.OperatorFromContext(r.Context())
	if err := requireManageOperators(caller); err != nil {
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

	target, err := h.Operators.GetOperator(r.Context(), id)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	value := params.GetBool("value", false)
	manageOperators, manageBlacklist, isClient := combine(target.ManageOperators, value, target.ManageBlacklist, target.IsClient)

	updated, err := h.Operators.SetPermissions(r.Context(), id, manageOperators, manageBlacklist, isClient)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	h.Audit.CreateEntry(r.Context(), audit.TypeOperatorPermissionsChanged, "operator permissions changed", &caller.UUID, nil)
	response.WriteSuccess(w, updated)
}

// RefreshOperatorKey handles both POST /operators/refresh (self) and
// POST /operators/{uuid}/refresh (self or manage_operators); refusing the
// master operator (spec.md §8 testable property 7, scenario 5).
func (h *Handlers) RefreshOperatorKey(w http.ResponseWriter, r *http.Request) {
	caller, err := dispatcher.RequireOperator(r.Context())
	if err != nil {
		response.WriteError(w, err)
		return
	}

	targetID := caller.UUID
	if raw := chiURLParamOrEmpty(r, "uuid"); raw != "" {
		id, err := pathUUID(r, "uuid")
		if err != nil {
			response.WriteError(w, err)
			return
		}
		if id != caller.UUID && !caller.ManageOperators {
			response.WriteError(w, forbiddenNotSelf())
			return
		}
		targetID = id
	}

	updated, err := h.Operators.RefreshAPIKey(r.Context(), targetID)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	h.Audit.CreateEntry(r.Context(), audit.TypeOperatorPermissionsChanged, "operator api key refreshed", &caller.UUID, nil)
	response.WriteSuccess(w, updated)
}

// OperatorAudit handles GET /operators/{uuid}/audit.
func (h *Handlers) OperatorAudit(w http.ResponseWriter, r *http.Request) {
	if err := h.checkPublicOrAuthed(r, h.Config.Server.PublicAuditLogs); err != nil {
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
	limit, page, offset := pageParams(params, h.Config.Server)

	allowedTypes := h.allowedAuditTypes(r.Context())
	result, err := h.Audit.GetEntriesByOperator(r.Context(), id, allowedTypes, limit, offset)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	result.Page = page
	response.WriteSuccess(w, result)
}

// OperatorEvidence handles GET /operators/{uuid}/evidence.
func (h *Handlers) OperatorEvidence(w http.ResponseWriter, r *http.Request) {
	if err := h.checkPublicOrAuthed(r, h.Config.Server.PublicEvidence); err != nil {
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
	limit, page, offset := pageParams(params, h.Config.Server)

	caller := dispatcher.OperatorFromContext(r.Context())
	includeConfidential := caller != nil && caller.ManageBlacklist
	result, err := h.Evidence.GetEvidenceByOperator(r.Context(), id, includeConfidential, limit, offset)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	result.Page = page
	response.WriteSuccess(w, result)
}

// OperatorBlacklist handles GET /operators/{uuid}/blacklist. Queries the
// blacklist store, not evidence (spec.md §9 Open Question d).
func (h *Handlers) OperatorBlacklist(w http.ResponseWriter, r *http.Request) {
	if err := h.checkPublicOrAuthed(r, h.Config.Server.PublicBlacklist); err != nil {
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
	limit, page, offset := pageParams(params, h.Config.Server)

	result, err := h.Blacklist.GetEntriesByOperator(r.Context(), id, params.GetBool("include_lifted", false), limit, offset)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	result.Page = page
	response.WriteSuccess(w, result)
}
