// Package store keeps the collection of crawled records, persists it as a
// snapshot and grows it by asking a remote Source for more data.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/matsen/citeweb/internal/inspire"
	"github.com/matsen/citeweb/internal/record"
	"github.com/matsen/citeweb/internal/storage"
)

// Default paging for Search.
const (
	DefaultPageSize = 250
	DefaultMaxPages = 40
)

// ErrNoSavePath is returned by Save when neither a path nor a backup path is set.
var ErrNoSavePath = errors.New("no snapshot path given")

// Source is the remote bibliographic service the store crawls.
type Source interface {
	Search(ctx context.Context, query string, page, size int) ([]inspire.Hit, error)
	FetchReferences(ctx context.Context, id string) ([]string, error)
	FetchCitations(ctx context.Context, id string) (citations, cocitations []string, err error)
}

// Store is a keyed collection of records. It is not safe for concurrent use.
type Store struct {
	records    map[string]*record.Record
	backupPath string
	source     Source
	logger     *log.Logger
	pageSize   int
	maxPages   int
	digests    map[string]string // path -> digest of the last write
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithPageSize sets the number of hits requested per search page.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithMaxPages bounds the number of pages fetched for one query.
func WithMaxPages(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxPages = n
		}
	}
}

// New creates an empty store saving to backupPath and crawling source.
// source may be nil for offline use; remote lookups then find nothing.
func New(backupPath string, source Source, opts ...Option) *Store {
	s := &Store{
		records:    make(map[string]*record.Record),
		backupPath: backupPath,
		source:     source,
		logger:     log.New(io.Discard),
		pageSize:   DefaultPageSize,
		maxPages:   DefaultMaxPages,
		digests:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BackupPath returns the default snapshot path.
func (s *Store) BackupPath() string {
	return s.backupPath
}

// Get returns the stored record for id, creating an empty one if needed.
func (s *Store) Get(id string) *record.Record {
	if rec, ok := s.records[id]; ok {
		return rec
	}
	rec := record.New(id)
	s.records[id] = rec
	return rec
}

// Lookup returns the stored record for id without creating it.
func (s *Store) Lookup(id string) (*record.Record, bool) {
	rec, ok := s.records[id]
	return rec, ok
}

// Update replaces the stored record for id.
func (s *Store) Update(id string, rec *record.Record) {
	s.records[id] = rec
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// IDs returns all record ids in sorted order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Records returns all records sorted by id.
func (s *Store) Records() []*record.Record {
	ids := s.IDs()
	recs := make([]*record.Record, len(ids))
	for i, id := range ids {
		recs[i] = s.records[id]
	}
	return recs
}

// Add merges rec into the stored record with the same id.
func (s *Store) Add(rec *record.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	return s.Get(rec.ID).Merge(rec)
}

// Load merges the backup snapshot and every given path into the store.
// Missing files are skipped with a warning. It reports whether at least one
// snapshot was read.
func (s *Store) Load(paths ...string) (bool, error) {
	loaded := false
	seen := make(map[string]bool)
	for _, path := range append([]string{s.backupPath}, paths...) {
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true

		recs, err := storage.ReadSnapshot(path)
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("could not load database", "path", path)
			continue
		}
		if err != nil {
			return loaded, fmt.Errorf("loading %s: %w", path, err)
		}
		for _, rec := range recs {
			if err := s.Add(rec); err != nil {
				return loaded, fmt.Errorf("merging %s from %s: %w", rec.ID, path, err)
			}
		}
		loaded = true
		s.logger.Debug("loaded database", "path", path, "records", len(recs))
	}
	return loaded, nil
}

// Save writes all records to path, or to the backup path if path is empty.
// Writing content identical to the previous write of the same path is skipped.
func (s *Store) Save(path string) error {
	if path == "" {
		path = s.backupPath
	}
	if path == "" {
		return ErrNoSavePath
	}

	data, err := storage.EncodeSnapshot(s.Records())
	if err != nil {
		return err
	}
	digest := storage.Digest(data)
	if s.digests[path] == digest {
		s.logger.Debug("database unchanged, skipping save", "path", path)
		return nil
	}
	if err := storage.WriteSnapshot(path, data); err != nil {
		return err
	}
	s.digests[path] = digest
	s.logger.Debug("saved database", "path", path, "records", len(s.records))
	return nil
}
