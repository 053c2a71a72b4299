// Package resolve turns user input (files of ids, bibliographic keys, URLs and
// search queries) into sets of record ids.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/matsen/citeweb/internal/pdf"
	"github.com/matsen/citeweb/internal/record"
)

// ErrMissingInput is returned for paths that do not exist and globs that
// match nothing.
var ErrMissingInput = errors.New("input path not found")

var (
	bibKeyPattern = regexp.MustCompile(`[a-zA-Z]{1,20}:[0-9]{4}[a-z]{0,10}`)
	urlIDPattern  = regexp.MustCompile(`inspirehep\.net/(?:record|literature|api/literature)/([0-9]+)`)
)

// Lookup is the part of the store the resolver needs.
type Lookup interface {
	ResolveBibKeys(ctx context.Context, keys []string, offlineOnly bool) (map[string]string, error)
	Search(ctx context.Context, query string) (record.IDSet, error)
}

// Resolver resolves identifiers against a Lookup.
type Resolver struct {
	lookup      Lookup
	logger      *log.Logger
	offlineOnly bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithOfflineOnly restricts bibkey resolution to records already known.
func WithOfflineOnly(offline bool) Option {
	return func(r *Resolver) {
		r.offlineOnly = offline
	}
}

// New creates a Resolver.
func New(lookup Lookup, opts ...Option) *Resolver {
	r := &Resolver{
		lookup: lookup,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FromIDPaths reads one record id per non-blank line.
func (r *Resolver) FromIDPaths(paths []string) (record.IDSet, error) {
	return flatten(r.FromIDPathsPerFile(paths))
}

// FromIDPathsPerFile is FromIDPaths keyed by file.
func (r *Resolver) FromIDPathsPerFile(paths []string) (map[string]record.IDSet, error) {
	return r.scan(paths, ExtractIDs)
}

// FromURLPaths collects the ids of INSPIRE-HEP record URLs found in the files.
func (r *Resolver) FromURLPaths(paths []string) (record.IDSet, error) {
	return flatten(r.FromURLPathsPerFile(paths))
}

// FromURLPathsPerFile is FromURLPaths keyed by file.
func (r *Resolver) FromURLPathsPerFile(paths []string) (map[string]record.IDSet, error) {
	return r.scan(paths, ExtractURLIDs)
}

// FromBibKeyPaths finds bibliographic keys in the files and resolves them.
func (r *Resolver) FromBibKeyPaths(ctx context.Context, paths []string) (record.IDSet, error) {
	return flatten(r.FromBibKeyPathsPerFile(ctx, paths))
}

// FromBibKeyPathsPerFile is FromBibKeyPaths keyed by file. All keys are
// resolved in one pass so a key shared by several files costs one lookup.
func (r *Resolver) FromBibKeyPathsPerFile(ctx context.Context, paths []string) (map[string]record.IDSet, error) {
	keysByFile, err := r.scan(paths, ExtractBibKeys)
	if err != nil {
		return nil, err
	}

	all := record.IDSet{}
	for _, keys := range keysByFile {
		all.Union(keys)
	}
	r.logger.Info("resolving bibkeys", "count", len(all), "files", len(keysByFile))

	resolved, err := r.lookup.ResolveBibKeys(ctx, all.Sorted(), r.offlineOnly)
	if err != nil {
		return nil, err
	}

	out := make(map[string]record.IDSet, len(keysByFile))
	for file, keys := range keysByFile {
		ids := record.IDSet{}
		for key := range keys {
			if id, ok := resolved[key]; ok {
				ids.Add(id)
			}
		}
		out[file] = ids
	}
	return out, nil
}

// FromQueries runs every query as a search and unions the hits.
func (r *Resolver) FromQueries(ctx context.Context, queries []string) (record.IDSet, error) {
	ids := record.IDSet{}
	for _, q := range queries {
		if strings.TrimSpace(q) == "" {
			continue
		}
		found, err := r.lookup.Search(ctx, q)
		if err != nil {
			return ids, err
		}
		r.logger.Info("query resolved", "query", q, "ids", len(found))
		ids.Union(found)
	}
	return ids, nil
}

func (r *Resolver) scan(paths []string, extract func(text string) []string) (map[string]record.IDSet, error) {
	files, err := ExpandPaths(paths)
	if err != nil {
		return nil, err
	}

	out := make(map[string]record.IDSet, len(files))
	for _, file := range files {
		text, err := pdf.ReadText(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		ids := record.NewIDSet(extract(text)...)
		r.logger.Debug("scanned file", "path", file, "found", len(ids))
		out[file] = ids
	}
	return out, nil
}

// ExpandPaths turns files, directories and doublestar globs into a sorted
// list of files. Directories are walked recursively; hidden entries are
// skipped.
func ExpandPaths(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, p := range paths {
		if isGlob(p) {
			matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("expanding %q: %w", p, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("%w: %s matches nothing", ErrMissingInput, p)
			}
			base, _ := doublestar.SplitPattern(filepath.ToSlash(p))
			kept := 0
			for _, m := range matches {
				if !isHiddenBelow(filepath.FromSlash(base), m) {
					add(m)
					kept++
				}
			}
			if kept == 0 {
				return nil, fmt.Errorf("%w: %s matches only hidden files", ErrMissingInput, p)
			}
			continue
		}

		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, p)
		}
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(p)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != p && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// isHiddenBelow reports whether path has a dot-prefixed component below base.
// Components of base itself were chosen by the user and are not checked.
func isHiddenBelow(base, path string) bool {
	if rel, err := filepath.Rel(base, path); err == nil {
		path = rel
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}

func isGlob(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// ExtractIDs returns the trimmed non-blank lines of text.
func ExtractIDs(text string) []string {
	var ids []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			ids = append(ids, line)
		}
	}
	return ids
}

// ExtractBibKeys returns the distinct bibliographic keys in text, in order of
// first appearance.
func ExtractBibKeys(text string) []string {
	return dedupe(bibKeyPattern.FindAllString(text, -1))
}

// ExtractURLIDs returns the distinct record ids of INSPIRE-HEP URLs in text.
func ExtractURLIDs(text string) []string {
	var ids []string
	for _, m := range urlIDPattern.FindAllStringSubmatch(text, -1) {
		ids = append(ids, m[1])
	}
	return dedupe(ids)
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}

func flatten(byFile map[string]record.IDSet, err error) (record.IDSet, error) {
	if err != nil {
		return nil, err
	}
	ids := record.IDSet{}
	for _, set := range byFile {
		ids.Union(set)
	}
	return ids, nil
}
