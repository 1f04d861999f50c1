package apierr

import (
	"errors"
	"net/http"
	"testing"
)

func TestStatusForEachKind(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{InvalidArgument, http.StatusBadRequest},
		{Upload, http.StatusBadRequest},
		{Unauthorized, http.StatusUnauthorized},
		{Forbidden, http.StatusForbidden},
		{NotFound, http.StatusNotFound},
		{MethodOrPathNotAllowed, http.StatusMethodNotAllowed},
		{Database, http.StatusInternalServerError},
		{Cache, http.StatusInternalServerError},
		{Unexpected, http.StatusInternalServerError},
	}
	for _, c := range cases {
		e := New(c.kind, "message")
		if e.Status != c.want {
			t.Errorf("New(%s).Status = %d, want %d", c.kind, e.Status, c.want)
		}
	}
}

func TestNewfFormats(t *testing.T) {
	e := Newf(InvalidArgument, "need at least %d seconds", 30)
	if e.Message != "need at least 30 seconds" {
		t.Errorf("Message = %q", e.Message)
	}
}

func TestWrapKeepsCauseOutOfMessage(t *testing.T) {
	cause := errors.New("pq: duplicate key value violates unique constraint")
	e := WrapDatabase("insert operator", cause)
	if e.Message != "insert operator" {
		t.Errorf("Message = %q, want unchanged user-facing text", e.Message)
	}
	if !errors.Is(e, cause) {
		t.Error("Unwrap chain should reach cause")
	}
}

func TestAsUnwrapsWrappedError(t *testing.T) {
	inner := New(NotFound, "entity not found")
	wrapped := errors.New("context: " + inner.Error())
	if _, ok := As(wrapped); ok {
		t.Fatal("a plain errors.New should not satisfy As")
	}

	var asErr error = inner
	got, ok := As(asErr)
	if !ok || got != inner {
		t.Fatal("As should recover the original *Error")
	}
}

func TestStatusAndMessageFallsBackForForeignErrors(t *testing.T) {
	status, msg := StatusAndMessage(errors.New("some driver-internal detail"))
	if status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", status)
	}
	if msg != "an internal error occurred" {
		t.Errorf("message = %q, want the generic fallback (never leak internals)", msg)
	}
}

func TestStatusAndMessagePassesThroughTypedError(t *testing.T) {
	status, msg := StatusAndMessage(New(Forbidden, "not allowed"))
	if status != http.StatusForbidden || msg != "not allowed" {
		t.Errorf("got (%d, %q)", status, msg)
	}
}
