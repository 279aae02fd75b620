// Package pkg provides utilities for sleuth.
package pkg

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Journal is a generic append-only record log. Records are gob-encoded
// and flushed to disk as they arrive, so a crashed run still leaves a
// readable trail of everything that completed before the crash.
type Journal[T any] interface {
	Len() uint64
	Path() string
	Append(record T) error
	Range(fn func(index uint64, record T) error) error
	Close() error
}

type journalImpl[T any] struct {
	path    string
	file    *os.File
	encoder *gob.Encoder
	mu      sync.Mutex
	length  uint64
}

// NewJournal creates (or truncates) a journal at the given path.
func NewJournal[T any](path string) (Journal[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		slog.Error("failed to create journal directory", "path", path, "error", err)
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		slog.Error("failed to create journal", "path", path, "error", err)
		return nil, fmt.Errorf("create journal: %w", err)
	}

	slog.Debug("created journal", "path", path)

	return &journalImpl[T]{
		path:    path,
		file:    file,
		encoder: gob.NewEncoder(file),
	}, nil
}

// NewJournalReader opens an existing journal for replay only. Append
// is rejected; Range replays whatever records survived.
func NewJournalReader[T any](path string) (Journal[T], error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	return &journalImpl[T]{path: path}, nil
}

// Append encodes one record and syncs it to disk.
func (j *journalImpl[T]) Append(record T) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return fmt.Errorf("journal %s is not open for writing", j.path)
	}

	if err := j.encoder.Encode(record); err != nil {
		slog.Error("failed to encode journal record", "path", j.path, "index", j.length, "error", err)
		return fmt.Errorf("encode journal record: %w", err)
	}

	if err := j.file.Sync(); err != nil {
		slog.Warn("failed to sync journal", "path", j.path, "error", err)
	}

	j.length++

	return nil
}

// Len returns the number of records appended so far.
func (j *journalImpl[T]) Len() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.length
}

// Path returns the on-disk location of the journal.
func (j *journalImpl[T]) Path() string {
	return j.path
}

// Range replays the journal from the beginning, calling fn for each
// record until fn errors or the log is exhausted. A trailing partial
// record (crash mid-append) ends the replay without error.
func (j *journalImpl[T]) Range(fn func(index uint64, record T) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.Open(j.path)
	if err != nil {
		slog.Error("failed to open journal for replay", "path", j.path, "error", err)
		return fmt.Errorf("open journal: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close journal", "path", j.path, "error", err)
		}
	}()

	decoder := gob.NewDecoder(file)

	for i := uint64(0); ; i++ {
		var record T

		if err := decoder.Decode(&record); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}

			slog.Error("failed to decode journal record", "path", j.path, "index", i, "error", err)

			return fmt.Errorf("decode journal record %d: %w", i, err)
		}

		if err := fn(i, record); err != nil {
			return err
		}
	}
}

// Close flushes and closes the underlying file. Idempotent.
func (j *journalImpl[T]) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return nil
	}

	if err := j.file.Close(); err != nil {
		slog.Error("failed to close journal", "path", j.path, "error", err)
		return err
	}

	j.file = nil

	slog.Debug("closed journal", "path", j.path, "records", j.length)

	return nil
}
