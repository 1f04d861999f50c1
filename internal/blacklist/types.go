// Package blacklist implements BlacklistManager (spec.md §4.8): typed,
// optionally expiring, liftable sanctions against entities.
package blacklist

import (
	"time"

	"github.com/google/uuid"
)

// Type is the blacklist reason code (spec.md §3).
type Type string

const (
	TypeSpam           Type = "SPAM"
	TypeScam           Type = "SCAM"
	TypeServiceAbuse   Type = "SERVICE_ABUSE"
	TypeIllegalContent Type = "ILLEGAL_CONTENT"
	TypeMalware        Type = "MALWARE"
	TypePhishing       Type = "PHISHING"
	TypeCSAM           Type = "CSAM"
	TypeOther          Type = "OTHER"
)

// ValidTypes enumerates every recognized blacklist type.
var ValidTypes = []Type{
	TypeSpam, TypeScam, TypeServiceAbuse, TypeIllegalContent,
	TypeMalware, TypePhishing, TypeCSAM, TypeOther,
}

// IsValid reports whether t is one of ValidTypes.
func (t Type) IsValid() bool {
	for _, v := range ValidTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Entry is the persisted blacklist record (spec.md §3).
type Entry struct {
	UUID     uuid.UUID  `json:"uuid"`
	Operator uuid.UUID  `json:"operator"`
	Entity   uuid.UUID  `json:"entity"`
	Evidence *uuid.UUID `json:"evidence,omitempty"`
	Type     Type       `json:"type"`
	Lifted   bool       `json:"lifted"`
	LiftedBy *uuid.UUID `json:"lifted_by,omitempty"`
	Expires  *time.Time `json:"expires,omitempty"`
	Created  time.Time  `json:"created"`
}

// Page is a page of blacklist records.
type Page struct {
	Entries []Entry `json:"entries"`
	Total   int64   `json:"total"`
	Limit   int     `json:"limit"`
	Page    int     `json:"page"`
}
