package entity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestCanonicalizeWithHost(t *testing.T) {
	host := "example.org"
	if got := Canonicalize("alice", &host); got != "alice@example.org" {
		t.Errorf("Canonicalize = %q", got)
	}
}

func TestCanonicalizeWithoutHost(t *testing.T) {
	if got := Canonicalize("alice", nil); got != "alice" {
		t.Errorf("Canonicalize = %q", got)
	}
	empty := ""
	if got := Canonicalize("alice", &empty); got != "alice" {
		t.Errorf("Canonicalize with empty host = %q, want bare id", got)
	}
}

func TestEntityCanonicalMatchesHash(t *testing.T) {
	host := "example.org"
	e := &Entity{ID: "alice", Host: &host}
	sum := sha256.Sum256([]byte("alice@example.org"))
	want := hex.EncodeToString(sum[:])
	if got := hashOf(e.Canonical()); got != want {
		t.Errorf("hashOf(Canonical()) = %q, want %q", got, want)
	}
}

func TestHashOfIsDeterministic(t *testing.T) {
	a := hashOf("alice@example.org")
	b := hashOf("alice@example.org")
	if a != b {
		t.Error("hashOf should be deterministic for the same canonical form")
	}
	if len(a) != 64 {
		t.Errorf("hashOf length = %d, want 64 (hex-encoded SHA-256)", len(a))
	}
}

func TestResolveRejectsNeitherUUIDNorHash(t *testing.T) {
	s := &Service{}
	_, err := s.Resolve(context.Background(), "not-a-uuid-and-not-64-chars")
	if err == nil {
		t.Fatal("expected an error for a reference that is neither a UUID nor a 64-char hash")
	}
}
