// Package evidence implements EvidenceManager (spec.md §4.6): per-entity
// evidence records with an optional confidentiality flag.
package evidence

import (
	"time"

	"github.com/google/uuid"
)

// Evidence is the persisted evidence record (spec.md §3).
type Evidence struct {
	UUID         uuid.UUID `json:"uuid"`
	Entity       uuid.UUID `json:"entity"`
	Operator     uuid.UUID `json:"operator"`
	Confidential bool      `json:"confidential"`
	TextContent  string    `json:"text_content"`
	Tag          string    `json:"tag"`
	Note         string    `json:"note"`
	Created      time.Time `json:"created"`
}

// Page is a page of evidence records.
type Page struct {
	Evidence []Evidence `json:"evidence"`
	Total    int64      `json:"total"`
	Limit    int        `json:"limit"`
	Page     int        `json:"page"`
}
