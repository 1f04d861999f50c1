package attachment

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/federationserver/federationserver/internal/apierr"
	"github.com/federationserver/federationserver/internal/storage"
)

const (
	maxFileNameLength = 255
	sniffLength       = 512
)

// EvidenceExistsChecker is the narrow capability Service needs from
// EvidenceManager.
type EvidenceExistsChecker interface {
	EvidenceExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service implements FileAttachmentManager (spec.md §4.7).
type Service struct {
	repo          *Repository
	files         *storage.Store
	evidence      EvidenceExistsChecker
	maxUploadSize int64
	maxFileCount  int
	logger        zerolog.Logger
}

// NewService wires a Service from its dependencies.
func NewService(repo *Repository, files *storage.Store, evidence EvidenceExistsChecker, maxUploadSize int64, maxFileCount int, logger zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		files:         files,
		evidence:      evidence,
		maxUploadSize: maxUploadSize,
		maxFileCount:  maxFileCount,
		logger:        logger.With().Str("component", "attachment").Logger(),
	}
}

// Upload validates and persists a new attachment for evidenceID, following
// the two-phase sequence of spec.md §4.7: validate, then fs-write before
// row insert, with best-effort unlink of the destination file if the row
// insert fails afterward.
func (s *Service) Upload(ctx context.Context, evidenceID uuid.UUID, originalFilename string, size int64, src io.Reader) (*Attachment, error) {
	if size <= 0 {
		return nil, apierr.New(apierr.Upload, "uploaded file is empty")
	}
	if size > s.maxUploadSize {
		return nil, apierr.New(apierr.Upload, "uploaded file exceeds the maximum upload size")
	}

	exists, err := s.evidence.EvidenceExists(ctx, evidenceID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apierr.New(apierr.InvalidArgument, "evidence does not exist")
	}

	if s.maxFileCount > 0 {
		count, err := s.files.Count()
		if err != nil {
			return nil, apierr.Wrap(apierr.Upload, "check storage capacity", err)
		}
		if count >= s.maxFileCount {
			return nil, apierr.New(apierr.Upload, "storage is at capacity")
		}
	}

	head := make([]byte, sniffLength)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, apierr.Wrap(apierr.Upload, "read uploaded file", err)
	}
	head = head[:n]
	mimeType := http.DetectContentType(head)

	id := uuid.New()
	full := io.MultiReader(bytes.NewReader(head), src)
	if err := s.files.Put(id.String(), full); err != nil {
		return nil, apierr.Wrap(apierr.Upload, "write uploaded file", err)
	}

	a := &Attachment{
		UUID:     id,
		Evidence: evidenceID,
		FileMime: mimeType,
		FileName: sanitizeFileName(originalFilename),
		FileSize: size,
		Created:  time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, a); err != nil {
		_ = s.files.Delete(id.String())
		return nil, apierr.WrapDatabase("insert attachment", err)
	}
	return a, nil
}

// GetRecord fetches attachment metadata by UUID.
func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*Attachment, error) {
	a, err := s.repo.GetByUUID(ctx, id)
	if err != nil {
		return nil, apierr.WrapDatabase("get attachment", err)
	}
	if a == nil {
		return nil, apierr.New(apierr.NotFound, "attachment not found")
	}
	return a, nil
}

// Open opens the attachment's file for streaming to a response writer.
func (s *Service) Open(id uuid.UUID) (io.ReadCloser, error) {
	f, err := s.files.Open(id.String())
	if err != nil {
		return nil, apierr.Wrap(apierr.NotFound, "attachment file not found", err)
	}
	return f, nil
}

// Delete removes the attachment row, then best-effort unlinks its file
// (spec.md §4.7: row delete before fs unlink, missing file not fatal).
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	a, err := s.repo.GetByUUID(ctx, id)
	if err != nil {
		return apierr.WrapDatabase("get attachment", err)
	}
	if a == nil {
		return apierr.New(apierr.NotFound, "attachment not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apierr.WrapDatabase("delete attachment", err)
	}
	if err := s.files.Delete(id.String()); err != nil {
		s.logger.Warn().Err(err).Str("uuid", id.String()).Msg("failed to unlink attachment file")
	}
	return nil
}

// sanitizeFileName strips directory components and control characters and
// caps the result to maxFileNameLength, preserving the extension
// (spec.md §4.7 step 2).
func sanitizeFileName(name string) string {
	base := filepath.Base(name)
	base = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, base)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "upload"
	}
	if len(base) <= maxFileNameLength {
		return base
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	keep := maxFileNameLength - len(ext)
	if keep <= 0 {
		return base[:maxFileNameLength]
	}
	if keep > len(stem) {
		keep = len(stem)
	}
	return stem[:keep] + ext
}
