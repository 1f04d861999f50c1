// Package entity implements EntitiesManager (spec.md §4.5): the canonical
// entity registry keyed by a SHA-256 hash of the entity's canonical form,
// plus UUID-or-hash resolution shared with the blacklist and evidence
// handlers.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Entity is the persisted entity record (spec.md §3). Canonical form is
// "id@host" when Host is set, else "id"; Hash is SHA-256 of that form.
type Entity struct {
	UUID    uuid.UUID `json:"uuid"`
	Hash    string    `json:"hash"`
	ID      string    `json:"id"`
	Host    *string   `json:"host,omitempty"`
	Created time.Time `json:"created"`
}

// Canonical returns the string hashed to produce Hash.
func (e *Entity) Canonical() string {
	return Canonicalize(e.ID, e.Host)
}

// Canonicalize builds the "id@host" / "id" canonical form spec.md §3 directs.
func Canonicalize(id string, host *string) string {
	if host != nil && *host != "" {
		return id + "@" + *host
	}
	return id
}

// Page is a page of entity records.
type Page struct {
	Entities []Entity `json:"entities"`
	Total    int64    `json:"total"`
	Limit    int      `json:"limit"`
	Page     int      `json:"page"`
}
