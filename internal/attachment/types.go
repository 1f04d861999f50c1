// Package attachment implements FileAttachmentManager (spec.md §4.7): the
// two-phase upload pipeline (validate, then persist) and deletion for
// evidence file attachments, backed by internal/storage for file bytes.
package attachment

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is the persisted attachment metadata record (spec.md §3). The
// file itself lives in the storage root at <uuid>, not in this struct.
type Attachment struct {
	UUID     uuid.UUID `json:"uuid"`
	Evidence uuid.UUID `json:"evidence"`
	FileMime string    `json:"file_mime"`
	FileName string    `json:"file_name"`
	FileSize int64     `json:"file_size"`
	Created  time.Time `json:"created"`
}
