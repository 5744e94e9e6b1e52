/**
 * @description
 * This file provides the flat-file implementation of the `Store` interface,
 * used as the fallback backend when the document database is unreachable at
 * startup. All collections are held in memory behind a single mutex, the
 * in-process critical section that gives Delete and AtomicIncrement the same
 * atomicity the database adapter gets from SQL, and every mutation is
 * flushed to a JSON file per collection via a temp-file rename so a crash
 * never leaves a half-written file.
 *
 * The store assumes one active writer process per directory, so contention
 * is between request goroutines only and the critical sections stay short
 * (no I/O inside them beyond the local flush).
 *
 * @dependencies
 * - context, encoding/json, fmt, os, path/filepath, strings, sync: Standard Go libraries.
 */

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore is the flat-file Store implementation.
type FileStore struct {
	mu       sync.Mutex
	dir      string
	data     map[string]map[string]json.RawMessage // collection -> id -> document
	counters map[string]int64
}

// NewFileStore opens (or creates) a file-backed store rooted at dir and
// loads any previously flushed state.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	s := &FileStore{
		dir:      dir,
		data:     make(map[string]map[string]json.RawMessage),
		counters: make(map[string]int64),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read store directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		collection := strings.TrimSuffix(name, ".json")
		if collection == "counters" {
			if err := json.Unmarshal(raw, &s.counters); err != nil {
				return fmt.Errorf("failed to decode counters file: %w", err)
			}
			continue
		}
		docs := make(map[string]json.RawMessage)
		if err := json.Unmarshal(raw, &docs); err != nil {
			return fmt.Errorf("failed to decode collection %s: %w", collection, err)
		}
		s.data[collection] = docs
	}
	return nil
}

// flushLocked writes one collection file atomically. Callers must hold mu.
func (s *FileStore) flushLocked(name string, payload any) error {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// Get returns all documents in the collection matching the filter.
func (s *FileStore) Get(ctx context.Context, collection string, f Filter) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var docs [][]byte
	for _, doc := range s.data[collection] {
		ok, err := matches(doc, f)
		if err != nil {
			return nil, err
		}
		if ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Put upserts a document under the given id and flushes the collection.
func (s *FileStore) Put(ctx context.Context, collection, id string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data[collection] == nil {
		s.data[collection] = make(map[string]json.RawMessage)
	}
	s.data[collection][id] = json.RawMessage(doc)
	return s.flushLocked(collection, s.data[collection])
}

// Delete atomically removes one matching document and returns it. The mutex
// makes claim-and-remove a single critical section, matching the database
// adapter's semantics.
func (s *FileStore) Delete(ctx context.Context, collection string, f Filter) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, doc := range s.data[collection] {
		ok, err := matches(doc, f)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		delete(s.data[collection], id)
		if err := s.flushLocked(collection, s.data[collection]); err != nil {
			return nil, err
		}
		return doc, nil
	}
	return nil, ErrNotFound
}

// AtomicIncrement increments the named counter and returns the new value.
func (s *FileStore) AtomicIncrement(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[key]++
	value := s.counters[key]
	if err := s.flushLocked("counters", s.counters); err != nil {
		return 0, err
	}
	return value, nil
}

// Ping always succeeds for the local file store.
func (s *FileStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op; all mutations are already flushed.
func (s *FileStore) Close() {}

// matches reports whether a document satisfies a top-level equality filter.
func matches(doc json.RawMessage, f Filter) (bool, error) {
	if len(f) == 0 {
		return true, nil
	}

	var fields map[string]any
	if err := json.Unmarshal(doc, &fields); err != nil {
		return false, fmt.Errorf("failed to decode document for matching: %w", err)
	}

	for key, want := range f {
		got, present := fields[key]
		if !present || !valueEqual(got, want) {
			return false, nil
		}
	}
	return true, nil
}

// valueEqual compares a decoded JSON value against a filter value supplied
// as a Go literal. Numbers are compared as float64 since encoding/json
// decodes all JSON numbers that way.
func valueEqual(got, want any) bool {
	switch w := want.(type) {
	case string:
		g, ok := got.(string)
		return ok && g == w
	case bool:
		g, ok := got.(bool)
		return ok && g == w
	case int:
		g, ok := got.(float64)
		return ok && g == float64(w)
	case int64:
		g, ok := got.(float64)
		return ok && g == float64(w)
	case float64:
		g, ok := got.(float64)
		return ok && g == w
	default:
		// Normalize through JSON for anything else (fmt.Stringer kinds etc.).
		gj, gerr := json.Marshal(got)
		wj, werr := json.Marshal(want)
		return gerr == nil && werr == nil && string(gj) == string(wj)
	}
}
