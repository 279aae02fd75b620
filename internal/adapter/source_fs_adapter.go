// Package adapter contains infrastructure adapters for the sleuth CLI.
package adapter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	m "github.com/jakechild/sleuth/internal/model"
)

// SourceFSAdapter abstracts the filesystem operations the domain layer
// relies on when scanning and rewriting user projects. It hides direct
// `os` access so workflow logic can be tested without touching disk.
type SourceFSAdapter interface {
	// Walk traverses the tree under root in lexical order.
	Walk(root m.Path, fn FilepathWalkFunc) error

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// WriteFileAtomic writes content to a sibling temp file and renames
	// it over path, so a crash never leaves a half-written file.
	WriteFileAtomic(path m.Path, content []byte, perm os.FileMode) error

	// FileExists reports whether path names an existing file.
	FileExists(path m.Path) bool

	// EnsureDir creates the directory (and parents) if missing.
	EnsureDir(path m.Path) error

	// ClearDir removes every entry directly under dir. Failures on
	// individual entries are collected, not fatal to the sweep.
	ClearDir(dir m.Path) error

	// Remove deletes a single file, ignoring a missing one.
	Remove(path m.Path) error

	// Promote atomically renames from over to, deleting any existing
	// destination first.
	Promote(from, to m.Path) error

	// Abs resolves path against the current working directory.
	Abs(path m.Path) (m.Path, error)

	// FindFile returns the first file named exactly name under root in
	// lexical walk order.
	FindFile(root m.Path, name string) (m.Path, error)
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk so
// the domain layer does not import path/filepath directly.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// LocalSourceFSAdapter is the os-backed SourceFSAdapter.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Walk iterates over files under root in lexical order.
func (a *LocalSourceFSAdapter) Walk(root m.Path, fn FilepathWalkFunc) error {
	return filepath.Walk(string(root), func(path string, info os.FileInfo, err error) error {
		return fn(path, info, err)
	})
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// WriteFileAtomic writes to a sibling temp file, then renames it into
// place. The temp lives in the target's directory so the rename stays
// on one filesystem.
func (a *LocalSourceFSAdapter) WriteFileAtomic(path m.Path, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(string(path))

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(string(path))+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("write temp for %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp for %s: %w", path, err)
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp for %s: %w", path, err)
	}

	if err := os.Rename(tmpName, string(path)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s over %s: %w", tmpName, path, err)
	}

	return nil
}

// FileExists reports whether path names an existing file.
func (a *LocalSourceFSAdapter) FileExists(path m.Path) bool {
	info, err := os.Stat(string(path))
	return err == nil && !info.IsDir()
}

// EnsureDir creates the directory and any missing parents.
func (a *LocalSourceFSAdapter) EnsureDir(path m.Path) error {
	return os.MkdirAll(string(path), 0o750)
}

// ClearDir removes every entry directly under dir. A missing directory
// is not an error; per-entry failures are joined and returned after the
// sweep completes.
func (a *LocalSourceFSAdapter) ClearDir(dir m.Path) error {
	entries, err := os.ReadDir(string(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return err
	}

	var errs []error

	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(string(dir), entry.Name())); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Remove deletes a single file. A missing file is not an error.
func (a *LocalSourceFSAdapter) Remove(path m.Path) error {
	err := os.Remove(string(path))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// Promote renames from over to. Any existing destination is deleted
// first so the rename cannot fail on platforms that refuse to clobber.
func (a *LocalSourceFSAdapter) Promote(from, to m.Path) error {
	if a.FileExists(to) {
		if err := os.Remove(string(to)); err != nil {
			return fmt.Errorf("remove stale %s: %w", to, err)
		}
	}

	if err := os.Rename(string(from), string(to)); err != nil {
		return fmt.Errorf("rename %s to %s: %w", from, to, err)
	}

	return nil
}

// Abs resolves path against the current working directory.
func (a *LocalSourceFSAdapter) Abs(path m.Path) (m.Path, error) {
	abs, err := filepath.Abs(string(path))
	if err != nil {
		return "", err
	}

	return m.Path(abs), nil
}

// ErrFileNotFound is returned by FindFile when no file matches.
var ErrFileNotFound = errors.New("file not found")

// FindFile returns the first file named exactly name under root in
// lexical walk order.
func (a *LocalSourceFSAdapter) FindFile(root m.Path, name string) (m.Path, error) {
	var found string

	err := filepath.Walk(string(root), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && info.Name() == name {
			found = path
			return filepath.SkipAll
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	if found == "" {
		return "", fmt.Errorf("%w: %s under %s", ErrFileNotFound, name, root)
	}

	return m.Path(found), nil
}
