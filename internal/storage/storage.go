// Package storage implements the content-addressed attachment file store
// described in spec.md §4.7: files live at <root>/<uuid> with no
// extension, owner+group read permissions, and are written via a
// tmp-then-rename sequence so a reader never observes a partially written
// file.
package storage

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	fileMode = 0o640
	dirMode  = 0o750
)

// Store is a directory-backed, content-addressed file store.
type Store struct {
	root string
}

// New returns a Store rooted at root, creating the directory if absent.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, dirMode); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

// Root returns the storage directory, for capacity/free-space checks.
func (s *Store) Root() string { return s.root }

func (s *Store) path(id string) string {
	return filepath.Join(s.root, id)
}

// Count returns the number of files currently in the store, used to
// enforce the storage directory's file-count cap (spec.md §4.7 step 1).
func (s *Store) Count() (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			n++
		}
	}
	return n, nil
}

// Put copies src into the store under id, via a randomly named temp file
// in the same directory (for an atomic same-filesystem rename) that is
// chmod'd before the rename so the final file never appears world- or
// execute-readable. The caller is responsible for removing the uploaded
// temp source file; Put only manages its own scratch file.
func (s *Store) Put(id string, src io.Reader) (err error) {
	tmpName, err := randomSuffix()
	if err != nil {
		return fmt.Errorf("generate temp name: %w", err)
	}
	tmpPath := filepath.Join(s.root, "tmp-"+tmpName)

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, fileMode)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err = io.Copy(f, src); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = f.Chmod(fileMode); err != nil {
		f.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	dest := s.path(id)
	if err = os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// Open opens the file named id for reading, streaming 8 KiB chunks to dst.
func (s *Store) Open(id string) (*os.File, error) {
	return os.Open(s.path(id))
}

// Stat returns the file size for id.
func (s *Store) Stat(id string) (int64, error) {
	info, err := os.Stat(s.path(id))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Delete removes id's file. A missing file is not treated as an error,
// matching spec.md §4.7's "best-effort unlink; missing file is not fatal".
func (s *Store) Delete(id string) error {
	err := os.Remove(s.path(id))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// ChunkSize is the buffer size used when streaming downloads, bounding
// per-request memory per spec.md §5.
const ChunkSize = 8 * 1024

func randomSuffix() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
