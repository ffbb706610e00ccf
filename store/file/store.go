// Package file stores each settle key as a JSON file in a directory.
// Writes go through a temp file and an atomic rename.
package file

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/xraph/settle"
	settlestore "github.com/xraph/settle/store"
)

// DefaultMode is the permission used for snapshot files.
const DefaultMode os.FileMode = 0o600

var _ settlestore.Store = (*Store)(nil)

// Store implements store.Store on the local filesystem.
type Store struct {
	mu     sync.Mutex
	dir    string
	mode   os.FileMode
	closed bool
}

// New returns a Store rooted at dir. The directory is created by Migrate.
func New(dir string) *Store {
	return &Store{dir: dir, mode: DefaultMode}
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file that holds key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, settle.ErrStoreClosed
	}
	b, err := os.ReadFile(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("settle/file: get %q: %w", key, settle.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("settle/file: get %q: %w", key, err)
	}
	return b, nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return settle.ErrStoreClosed
	}
	if err := writeFile(s.Path(key), value, s.mode); err != nil {
		return fmt.Errorf("settle/file: put %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return settle.ErrStoreClosed
	}
	err := os.Remove(s.Path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("settle/file: delete %q: %w", key, err)
	}
	return nil
}

// Migrate creates the root directory.
func (s *Store) Migrate(_ context.Context) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("settle/file: %w: %w", settle.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks that the root directory exists.
func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return settle.ErrStoreClosed
	}
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("settle/file: %w: %w", settle.ErrStoreNotReady, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("settle/file: %w: %s is not a directory", settle.ErrStoreNotReady, s.dir)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// writeFile writes bytes via a temp file, then atomically replaces the target.
func writeFile(path string, b []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	f, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	// Best-effort cleanup if anything fails before rename.
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
