// Package response is the single place an *apierr.Error or a result value
// is serialized to the wire, shared by the dispatcher, its middleware, and
// every handler.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/federationserver/federationserver/internal/apierr"
)

// successEnvelope is the {success, results} wire shape (spec.md §6).
type successEnvelope struct {
	Success bool        `json:"success"`
	Results interface{} `json:"results"`
}

// errorEnvelope is the {success, code, message} wire shape (spec.md §6).
type errorEnvelope struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteSuccess writes a 200 {success:true, results} response.
func WriteSuccess(w http.ResponseWriter, results interface{}) {
	writeJSON(w, http.StatusOK, successEnvelope{Success: true, Results: results})
}

// WriteCreated writes a 201 {success:true, results} response, for routes
// that create a record.
func WriteCreated(w http.ResponseWriter, results interface{}) {
	writeJSON(w, http.StatusCreated, successEnvelope{Success: true, Results: results})
}

// WriteError is the single place a Go error becomes the wire error shape.
// Any error not already an *apierr.Error is folded into a generic 500 so
// the response never leaks an internal error string.
func WriteError(w http.ResponseWriter, err error) {
	status, message := apierr.StatusAndMessage(err)
	writeJSON(w, status, errorEnvelope{Success: false, Code: status, Message: message})
}
