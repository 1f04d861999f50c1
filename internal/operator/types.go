// Package operator implements OperatorManager (spec.md §4.4): operator
// CRUD, permission toggles, API-key issuance, and master-operator
// synthesis.
package operator

import (
	"time"

	"github.com/google/uuid"
)

// MasterOperatorName is the reserved operator name used to materialize the
// implicit master operator row on first use (spec.md §9).
const MasterOperatorName = "__master__"

// Operator is the persisted operator record (spec.md §3).
type Operator struct {
	UUID             uuid.UUID `json:"uuid"`
	Name             string    `json:"name"`
	APIKey           string    `json:"api_key,omitempty"`
	ManageOperators  bool      `json:"manage_operators"`
	ManageBlacklist  bool      `json:"manage_blacklist"`
	IsClient         bool      `json:"is_client"`
	Disabled         bool      `json:"disabled"`
	Created          time.Time `json:"created"`
	Updated          time.Time `json:"updated"`
}

// IsMaster reports whether o is the implicit master operator, which is
// immune to disable/delete/refresh through the API (spec.md §4.4, §9).
func (o *Operator) IsMaster() bool {
	return o.Name == MasterOperatorName
}

// Redacted returns a copy with the API key cleared, for responses to
// callers that are not allowed to see it (spec.md §4.11, GET /operators/{uuid}).
func (o Operator) Redacted() Operator {
	o.APIKey = ""
	return o
}

// Page is a page of operator records.
type Page struct {
	Operators []Operator `json:"operators"`
	Total     int64      `json:"total"`
	Limit     int        `json:"limit"`
	Page      int        `json:"page"`
}
