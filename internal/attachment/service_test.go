package attachment

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/federationserver/federationserver/internal/apierr"
)

func mustUUID() uuid.UUID {
	return uuid.New()
}

func TestSanitizeFileNameStripsDirectoryComponents(t *testing.T) {
	if got := sanitizeFileName("../../etc/passwd"); got != "passwd" {
		t.Errorf("sanitizeFileName = %q, want passwd", got)
	}
}

func TestSanitizeFileNameFallsBackForEmptyOrDotResult(t *testing.T) {
	if got := sanitizeFileName(""); got != "upload" {
		t.Errorf("sanitizeFileName(\"\") = %q, want upload", got)
	}
	if got := sanitizeFileName("."); got != "upload" {
		t.Errorf("sanitizeFileName(\".\") = %q, want upload", got)
	}
}

func TestSanitizeFileNameStripsControlCharacters(t *testing.T) {
	got := sanitizeFileName("report\x00.txt")
	if strings.ContainsAny(got, "\x00") {
		t.Errorf("sanitizeFileName left a control character: %q", got)
	}
}

func TestSanitizeFileNamePreservesExtensionWhenTruncating(t *testing.T) {
	long := strings.Repeat("a", maxFileNameLength+50) + ".png"
	got := sanitizeFileName(long)
	if len(got) > maxFileNameLength {
		t.Errorf("sanitizeFileName length = %d, want <= %d", len(got), maxFileNameLength)
	}
	if !strings.HasSuffix(got, ".png") {
		t.Errorf("sanitizeFileName = %q, want extension preserved", got)
	}
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	s := NewService(nil, nil, nil, 1024, 100, zerolog.Nop())
	_, err := s.Upload(context.Background(), mustUUID(), "report.txt", 0, strings.NewReader(""))
	requireKind(t, err, apierr.Upload)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	s := NewService(nil, nil, nil, 10, 100, zerolog.Nop())
	_, err := s.Upload(context.Background(), mustUUID(), "report.txt", 1<<20, strings.NewReader("x"))
	requireKind(t, err, apierr.Upload)
}

func requireKind(t *testing.T, err error, want apierr.Kind) {
	t.Helper()
	e, ok := apierr.As(err)
	if !ok {
		t.Fatalf("expected an *apierr.Error, got %v", err)
	}
	if e.Kind != want {
		t.Errorf("Kind = %s, want %s", e.Kind, want)
	}
}
