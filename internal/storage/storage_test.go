package storage

import (
	"bytes"
	"errors"
	"os"
	"testing"
)

func TestPutOpenStatRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	id := "11111111-1111-1111-1111-111111111111"
	content := []byte("some attachment bytes")
	if err := s.Put(id, bytes.NewReader(content)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	size, err := s.Stat(id)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if size != int64(len(content)) {
		t.Errorf("Stat size = %d, want %d", size, len(content))
	}

	f, err := s.Open(id)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), content) {
		t.Errorf("round-tripped content = %q, want %q", buf.Bytes(), content)
	}
}

func TestPutLeavesNoTempFileBehind(t *testing.T) {
	root := t.TempDir()
	s, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Put("some-id", bytes.NewReader([]byte("x"))); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "some-id" {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("storage root contains %v, want exactly [some-id]", names)
	}
}

func TestDeleteIsIdempotentOnMissingFile(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Delete("never-existed"); err != nil {
		t.Errorf("Delete on a missing file should not error, got %v", err)
	}
}

func TestCountReflectsPutAndDelete(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Put(id, bytes.NewReader([]byte("x"))); err != nil {
			t.Fatalf("Put(%s): %v", id, err)
		}
	}
	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}

	if err := s.Delete("b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	n, err = s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count after delete = %d, want 2", n)
	}
}

func TestOpenMissingFileReturnsNotExist(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = s.Open("missing")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open(missing) error = %v, want os.ErrNotExist", err)
	}
}
