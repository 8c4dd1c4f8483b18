// Package store provides durable CRUD over a single JSON-array file acting
// as a naive table. Records are plain JSON objects; lookups are linear scans
// by field equality. The store is the persistence substrate for the profile
// repository and keeps no in-memory state between calls.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/profilebot/profilebot/internal/logger"
)

var (
	// ErrNotFound is returned when no record matches the given key.
	ErrNotFound = errors.New("record not found")

	// ErrCorruptData is returned when the file content does not parse as a JSON array.
	ErrCorruptData = errors.New("corrupt data")
)

// Document is a single persisted record. Values follow JSON decoding rules
// (string, float64, bool, nil, []any, map[string]any).
type Document = map[string]any

// FileStats describes the backing file.
type FileStats struct {
	Size     int64
	Modified time.Time
}

// Store is a durable JSON-array file store with record-level CRUD.
// Every mutation is a read-modify-write of the entire file; writes go
// through a temp file and rename so a crash never leaves a partial file.
type Store struct {
	filePath string
	logger   *logger.Logger
	mu       sync.Mutex
}

// New creates a store backed by filePath. The containing directory and an
// empty-array file are created if absent; existing data is left untouched.
func New(filePath string, log *logger.Logger) (*Store, error) {
	s := &Store{
		filePath: filePath,
		logger:   log,
	}
	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	return s, nil
}

// FilePath returns the path of the backing file.
func (s *Store) FilePath() string {
	return s.filePath
}

// ensureFile creates the directory and an empty-array file if they do not exist.
func (s *Store) ensureFile() error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}

	if _, err := os.Stat(s.filePath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", s.filePath, err)
	}

	return WriteFileAtomic(s.filePath, []byte("[]"))
}

// ReadAll returns every record in the file.
func (s *Store) ReadAll() ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll()
}

func (s *Store) readAll() ([]Document, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.filePath, err)
	}

	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptData, s.filePath, err)
	}

	return docs, nil
}

// WriteAll atomically replaces the file contents with the given records.
func (s *Store) WriteAll(docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAll(docs)
}

func (s *Store) writeAll(docs []Document) error {
	if docs == nil {
		docs = []Document{}
	}

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	return WriteFileAtomic(s.filePath, data)
}

// FindOne returns the first record whose field equals value.
// The boolean reports whether a match was found.
func (s *Store) FindOne(field string, value any) (Document, bool, error) {
	docs, err := s.ReadAll()
	if err != nil {
		return nil, false, err
	}

	for _, doc := range docs {
		if fieldEquals(doc, field, value) {
			return doc, true, nil
		}
	}

	return nil, false, nil
}

// FindMany returns every record whose field equals value.
func (s *Store) FindMany(field string, value any) ([]Document, error) {
	docs, err := s.ReadAll()
	if err != nil {
		return nil, err
	}

	var matched []Document
	for _, doc := range docs {
		if fieldEquals(doc, field, value) {
			matched = append(matched, doc)
		}
	}

	return matched, nil
}

// Create appends a new record to the file.
func (s *Store) Create(doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.readAll()
	if err != nil {
		return err
	}

	docs = append(docs, doc)
	return s.writeAll(docs)
}

// Update merges patch into the first record whose keyField equals key and
// returns the updated record. Returns ErrNotFound when no record matches.
func (s *Store) Update(keyField string, key any, patch Document) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.readAll()
	if err != nil {
		return nil, err
	}

	for i, doc := range docs {
		if !fieldEquals(doc, keyField, key) {
			continue
		}
		for k, v := range patch {
			doc[k] = v
		}
		docs[i] = doc
		if err := s.writeAll(docs); err != nil {
			return nil, err
		}
		return doc, nil
	}

	return nil, fmt.Errorf("%w: %s=%v", ErrNotFound, keyField, key)
}

// Delete removes the first record whose keyField equals key and returns it.
// Returns ErrNotFound when no record matches.
func (s *Store) Delete(keyField string, key any) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.readAll()
	if err != nil {
		return nil, err
	}

	for i, doc := range docs {
		if !fieldEquals(doc, keyField, key) {
			continue
		}
		docs = append(docs[:i], docs[i+1:]...)
		if err := s.writeAll(docs); err != nil {
			return nil, err
		}
		return doc, nil
	}

	return nil, fmt.Errorf("%w: %s=%v", ErrNotFound, keyField, key)
}

// Exists reports whether any record has keyField equal to key.
func (s *Store) Exists(keyField string, key any) (bool, error) {
	_, found, err := s.FindOne(keyField, key)
	return found, err
}

// Count returns the number of records in the file.
func (s *Store) Count() (int, error) {
	docs, err := s.ReadAll()
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Backup copies the current file to a timestamp-suffixed sibling path and
// returns that path. Backups are for manual recovery, not automatic rollback.
func (s *Store) Backup() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	backupPath := fmt.Sprintf("%s.backup.%d", s.filePath, time.Now().UnixMilli())

	src, err := os.Open(s.filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", s.filePath, err)
	}
	defer src.Close()

	dst, err := os.Create(backupPath)
	if err != nil {
		return "", fmt.Errorf("failed to create backup %s: %w", backupPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to copy backup: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("created backup",
			logger.Field{Key: "source", Value: s.filePath},
			logger.Field{Key: "backup", Value: backupPath})
	}

	return backupPath, nil
}

// Stats returns size and modification time of the backing file.
func (s *Store) Stats() (FileStats, error) {
	info, err := os.Stat(s.filePath)
	if err != nil {
		return FileStats{}, fmt.Errorf("failed to stat %s: %w", s.filePath, err)
	}
	return FileStats{Size: info.Size(), Modified: info.ModTime()}, nil
}

// fieldEquals compares a record field against a value. reflect.DeepEqual is
// used because decoded JSON values may be slices or maps.
func fieldEquals(doc Document, field string, value any) bool {
	got, ok := doc[field]
	if !ok {
		return false
	}
	return reflect.DeepEqual(got, value)
}

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it over path.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	return nil
}
