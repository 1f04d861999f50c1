package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/federationserver/federationserver/internal/apierr"
	"github.com/federationserver/federationserver/internal/attachment"
	"github.com/federationserver/federationserver/internal/audit"
	"github.com/federationserver/federationserver/internal/dispatcher"
	"github.com/federationserver/federationserver/internal/response"
	"github.com/federationserver/federationserver/internal/storage"
)

// UploadAttachment handles POST /attachments (req, manage_blacklist, audits
// ATTACHMENT_UPLOADED), a multipart/form-data upload keyed by the "evidence"
// UUID field and the "file" part (spec.md §4.7, §4.11).
func (h *Handlers) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	caller, err := dispatcher.RequireOperator(r.Context())
	if err != nil {
		response.WriteError(w, err)
		return
	}
	if err := requireManageBlacklist(caller); err != nil {
		response.WriteError(w, err)
		return
	}

	if err := r.ParseMultipartForm(h.Config.Server.MaxUploadSize); err != nil {
		response.WriteError(w, apierr.Wrap(apierr.Upload, "parse multipart body", err))
		return
	}

	id, err := uuid.Parse(r.FormValue("evidence"))
	if err != nil {
		response.WriteError(w, apierr.New(apierr.InvalidArgument, "evidence must be a UUID"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.WriteError(w, apierr.Wrap(apierr.Upload, "read uploaded file part", err))
		return
	}
	defer file.Close()

	a, err := h.Attachments.Upload(r.Context(), id, header.Filename, header.Size, file)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	h.Audit.CreateEntry(r.Context(), audit.TypeAttachmentUploaded, "attachment uploaded: "+a.FileName, &caller.UUID, nil)
	response.WriteCreated(w, a.UUID)
}

// GetAttachment handles GET /attachments/{uuid}: streams the file bytes in
// ChunkSize chunks with Content-Type/Content-Disposition/Content-Length and
// no-cache headers. An attachment whose evidence is confidential is
// withheld from callers without manage_blacklist (spec.md §4.7, §4.11,
// §8 scenario 4).
func (h *Handlers) GetAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "uuid")
	if err != nil {
		response.WriteError(w, err)
		return
	}
	a, err := h.Attachments.GetRecord(r.Context(), id)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	if err := h.checkAttachmentEvidenceVisible(r, a); err != nil {
		response.WriteError(w, err)
		return
	}
	f, err := h.Attachments.Open(id)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", a.FileMime)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, a.FileName))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", a.FileSize))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	buf := make([]byte, storage.ChunkSize)
	_, _ = io.CopyBuffer(w, f, buf)
}

// GetAttachmentInfo handles GET /attachments/{uuid}/info: metadata only,
// no file bytes, gated by the same confidentiality join as GetAttachment.
func (h *Handlers) GetAttachmentInfo(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "uuid")
	if err != nil {
		response.WriteError(w, err)
		return
	}
	a, err := h.Attachments.GetRecord(r.Context(), id)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	if err := h.checkAttachmentEvidenceVisible(r, a); err != nil {
		response.WriteError(w, err)
		return
	}
	response.WriteSuccess(w, a)
}

// checkAttachmentEvidenceVisible resolves a's associated evidence record and
// rejects the request if that evidence is confidential and the caller lacks
// manage_blacklist (spec.md §8 scenario 4: anonymous gets 401, an operator
// without manage_blacklist is treated the same as anonymous for this check).
func (h *Handlers) checkAttachmentEvidenceVisible(r *http.Request, a *attachment.Attachment) error {
	ev, err := h.Evidence.GetEvidence(r.Context(), a.Evidence)
	if err != nil {
		return err
	}
	if !ev.Confidential {
		return nil
	}
	caller := dispatcher.OperatorFromContext(r.Context())
	if caller == nil {
		return apierr.New(apierr.Unauthorized, "this attachment's evidence is confidential")
	}
	if !caller.ManageBlacklist {
		return apierr.New(apierr.Forbidden, "this attachment's evidence is confidential")
	}
	return nil
}

// DeleteAttachment handles DELETE /attachments/{uuid} (req, manage_blacklist,
// audits ATTACHMENT_DELETED).
func (h *Handlers) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
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
	if err := h.Attachments.Delete(r.Context(), id); err != nil {
		response.WriteError(w, err)
		return
	}
	h.Audit.CreateEntry(r.Context(), audit.TypeAttachmentDeleted, "attachment deleted", &caller.UUID, nil)
	response.WriteSuccess(w, true)
}
