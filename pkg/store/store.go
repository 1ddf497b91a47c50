// Package store keeps uploaded templates on disk between the detect and
// generate steps.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no upload exists for an id.
	ErrNotFound = errors.New("upload not found")
	// ErrInvalidID is returned for ids that could escape the store directory.
	ErrInvalidID = errors.New("invalid upload id")
)

const (
	fileExt         = ".docx"
	defaultAttempts = 5
)

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Options configures a Store.
type Options struct {
	// Generator creates ids for new uploads. Defaults to DefaultGenerator.
	Generator Generator
	// Attempts bounds how many ids are tried when a generated id is taken.
	Attempts int
	// FileMode is the permission used for stored files. Defaults to 0o600.
	FileMode fs.FileMode
}

// Store is a directory of uploaded documents addressed by id.
type Store struct {
	dir      string
	gen      Generator
	attempts int
	mode     fs.FileMode
}

// New creates the directory if needed and returns a Store rooted at it.
func New(dir string, opts Options) (*Store, error) {
	if dir == "" {
		return nil, errors.New("store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	s := &Store{
		dir:      dir,
		gen:      opts.Generator,
		attempts: opts.Attempts,
		mode:     opts.FileMode,
	}
	if s.gen == nil {
		s.gen = DefaultGenerator
	}
	if s.attempts <= 0 {
		s.attempts = defaultAttempts
	}
	if s.mode == 0 {
		s.mode = 0o600
	}
	return s, nil
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

// ValidID reports whether id is safe to use as a file name.
func ValidID(id string) bool {
	return validID.MatchString(id)
}

// Path returns the file path for id.
func (s *Store) Path(id string) (string, error) {
	if !ValidID(id) {
		return "", ErrInvalidID
	}
	return filepath.Join(s.dir, id+fileExt), nil
}

// Save writes data under a fresh id and returns the id.
func (s *Store) Save(ctx context.Context, data []byte) (string, error) {
	for i := 0; i < s.attempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		id := s.gen()
		path, err := s.Path(id)
		if err != nil {
			return "", fmt.Errorf("generator produced %q: %w", id, err)
		}

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, s.mode)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create upload: %w", err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("failed to write upload: %w", err)
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", fmt.Errorf("failed to close upload: %w", err)
		}
		return id, nil
	}
	return "", fmt.Errorf("no free upload id after %d attempts", s.attempts)
}

// Load returns the bytes stored under id.
func (s *Store) Load(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.Path(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return data, nil
}

// Delete removes the upload stored under id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.Path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}

// Prune deletes every upload last modified before cutoff and returns how
// many were removed. Files that are not uploads are left alone.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list uploads: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := strings.CutSuffix(entry.Name(), fileExt)
		if !ok || !ValidID(id) {
			continue
		}
		info, err := entry.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("failed to stat upload: %w", err)
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := s.Delete(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return removed, err
		}
		removed++
	}
	return removed, nil
}
