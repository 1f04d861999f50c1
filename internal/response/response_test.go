package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/federationserver/federationserver/internal/apierr"
)

func TestWriteSuccessEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"uuid": "abc"})

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	var body struct {
		Success bool                   `json:"success"`
		Results map[string]interface{} `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success {
		t.Error("success = false, want true")
	}
	if body.Results["uuid"] != "abc" {
		t.Errorf("results.uuid = %v", body.Results["uuid"])
	}
}

func TestWriteCreatedUses201(t *testing.T) {
	w := httptest.NewRecorder()
	WriteCreated(w, true)
	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}
}

func TestWriteErrorNeverLeaksForeignErrorText(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errorsNew("pq: syntax error near DROP TABLE"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	var body struct {
		Success bool   `json:"success"`
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success {
		t.Error("success = true, want false")
	}
	if body.Message == "" || body.Message == "pq: syntax error near DROP TABLE" {
		t.Errorf("message leaked the raw driver error: %q", body.Message)
	}
}

func TestWriteErrorUsesTypedStatus(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, apierr.New(apierr.Forbidden, "not allowed"))
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func errorsNew(msg string) error {
	return &plainError{msg}
}

type plainError struct{ msg string }

func (e *plainError) Error() string { return e.msg }
