// Package audit implements AuditLogManager (spec.md §4.9): an append-only
// trail of state-changing actions with a public/private visibility filter.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Type is an audit entry kind (spec.md §4.9).
type Type string

const (
	TypeOperatorCreated             Type = "OPERATOR_CREATED"
	TypeOperatorDeleted             Type = "OPERATOR_DELETED"
	TypeOperatorDisabled            Type = "OPERATOR_DISABLED"
	TypeOperatorEnabled             Type = "OPERATOR_ENABLED"
	TypeOperatorPermissionsChanged  Type = "OPERATOR_PERMISSIONS_CHANGED"
	TypeAttachmentUploaded          Type = "ATTACHMENT_UPLOADED"
	TypeAttachmentDeleted           Type = "ATTACHMENT_DELETED"
	TypeEvidenceSubmitted           Type = "EVIDENCE_SUBMITTED"
	TypeEvidenceDeleted             Type = "EVIDENCE_DELETED"
	TypeEntityDeleted               Type = "ENTITY_DELETED"
	TypeEntityBlacklisted           Type = "ENTITY_BLACKLISTED"
	TypeEntityPushed                Type = "ENTITY_PUSHED"
	TypeBlacklistRecordDeleted      Type = "BLACKLIST_RECORD_DELETED"
	TypeBlacklistLifted             Type = "BLACKLIST_LIFTED"
	TypeBlacklistAttachmentAdded    Type = "BLACKLIST_ATTACHMENT_ADDED"
	TypeOther                       Type = "OTHER"
)

// Entry is the persisted audit record (spec.md §3).
type Entry struct {
	UUID      uuid.UUID  `json:"uuid"`
	Operator  *uuid.UUID `json:"operator,omitempty"`
	Entity    *uuid.UUID `json:"entity,omitempty"`
	Type      Type       `json:"type"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
}

// Page is a page of audit entries.
type Page struct {
	Entries []Entry `json:"entries"`
	Total   int64   `json:"total"`
	Limit   int     `json:"limit"`
	Page    int     `json:"page"`
}
