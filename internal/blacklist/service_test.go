package blacklist

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/federationserver/federationserver/internal/apierr"
)

type fakeEntityChecker struct {
	exists bool
	err    error
}

func (f fakeEntityChecker) EntityExistsByUUID(ctx context.Context, id uuid.UUID) (bool, error) {
	return f.exists, f.err
}

type fakeEvidenceChecker struct {
	exists bool
	err    error
}

func (f fakeEvidenceChecker) EvidenceExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return f.exists, f.err
}

func TestBlacklistEntityRejectsInvalidType(t *testing.T) {
	s := NewService(nil, fakeEntityChecker{exists: true}, fakeEvidenceChecker{exists: true}, 0, zerolog.Nop())
	_, err := s.BlacklistEntity(context.Background(), uuid.New(), uuid.New(), Type("BOGUS"), nil, nil)
	requireInvalidArgument(t, err)
}

func TestBlacklistEntityRejectsMissingEntity(t *testing.T) {
	s := NewService(nil, fakeEntityChecker{exists: false}, fakeEvidenceChecker{exists: true}, 0, zerolog.Nop())
	_, err := s.BlacklistEntity(context.Background(), uuid.New(), uuid.New(), TypeSpam, nil, nil)
	requireInvalidArgument(t, err)
}

func TestBlacklistEntityRejectsMissingEvidence(t *testing.T) {
	s := NewService(nil, fakeEntityChecker{exists: true}, fakeEvidenceChecker{exists: false}, 0, zerolog.Nop())
	evidenceID := uuid.New()
	_, err := s.BlacklistEntity(context.Background(), uuid.New(), uuid.New(), TypeSpam, nil, &evidenceID)
	requireInvalidArgument(t, err)
}

func TestBlacklistEntityRejectsExpiryBelowMinimum(t *testing.T) {
	s := NewService(nil, fakeEntityChecker{exists: true}, fakeEvidenceChecker{exists: true}, 30*time.Minute, zerolog.Nop())
	tooSoon := time.Now().UTC().Add(time.Minute)
	_, err := s.BlacklistEntity(context.Background(), uuid.New(), uuid.New(), TypeSpam, &tooSoon, nil)
	requireInvalidArgument(t, err)
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
