package handler

import (
	"net/http"

	"github.com/federationserver/federationserver/internal/response"
)

// infoResult is the public server metadata returned by GET /info.
type infoResult struct {
	Name            string `json:"name"`
	BaseURL         string `json:"base_url"`
	MaxUploadSize   int64  `json:"max_upload_size"`
	MaxItemsPerKind int    `json:"max_items_per_kind"`
	PublicAuditLogs bool   `json:"public_audit_logs"`
	PublicEvidence  bool   `json:"public_evidence"`
	PublicBlacklist bool   `json:"public_blacklist"`
	PublicEntities  bool   `json:"public_entities"`
}

// GetInfo serves GET /info: no auth, no permission, no audit (spec.md §4.11).
func (h *Handlers) GetInfo(w http.ResponseWriter, r *http.Request) {
	response.WriteSuccess(w, infoResult{
		Name:            h.Config.Server.Name,
		BaseURL:         h.Config.Server.BaseURL,
		MaxUploadSize:   h.Config.Server.MaxUploadSize,
		MaxItemsPerKind: h.Config.Server.MaxItemsPerKind,
		PublicAuditLogs: h.Config.Server.PublicAuditLogs,
		PublicEvidence:  h.Config.Server.PublicEvidence,
		PublicBlacklist: h.Config.Server.PublicBlacklist,
		PublicEntities:  h.Config.Server.PublicEntities,
	})
}
