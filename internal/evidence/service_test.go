package evidence

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/federationserver/federationserver/internal/apierr"
	"github.com/federationserver/federationserver/internal/cache"
	"github.com/federationserver/federationserver/internal/config"
)

func newTestService() *Service {
	return NewService(nil, nil, nil, cache.Noop{}, config.CacheConfig{}, zerolog.Nop())
}

func mustUUID() uuid.UUID {
	return uuid.New()
}

func requireInvalidArgument(t *testing.T, err error) {
	t.Helper()
	e, ok := apierr.As(err)
	if !ok {
		t.Fatalf("expected an *apierr.Error, got %v", err)
	}
	if e.Kind != apierr.InvalidArgument {
		t.Errorf("Kind = %s, want invalid_argument", e.Kind)
	}
}

func TestAddEvidenceRejectsOversizedText(t *testing.T) {
	s := newTestService()
	_, err := s.AddEvidence(context.Background(), mustUUID(), mustUUID(),
		strings.Repeat("a", maxTextLength+1), "", "", false)
	requireInvalidArgument(t, err)
}

func TestAddEvidenceRejectsOversizedNote(t *testing.T) {
	s := newTestService()
	_, err := s.AddEvidence(context.Background(), mustUUID(), mustUUID(),
		"", strings.Repeat("a", maxNoteLength+1), "", false)
	requireInvalidArgument(t, err)
}

func TestAddEvidenceRejectsOversizedTag(t *testing.T) {
	s := newTestService()
	_, err := s.AddEvidence(context.Background(), mustUUID(), mustUUID(),
		"", "", strings.Repeat("a", maxTagLength+1), false)
	requireInvalidArgument(t, err)
}
