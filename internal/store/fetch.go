package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/matsen/citeweb/internal/inspire"
	"github.com/matsen/citeweb/internal/record"
)

// FetchBibliographicInfo looks up the bibliographic key and fulltext URL of
// id. It returns false without a request when the info was already fetched
// and force is not set. The info is marked as fetched even when the lookup
// fails, unless ctx was cancelled.
func (s *Store) FetchBibliographicInfo(ctx context.Context, id string, force bool) (bool, error) {
	rec := s.Get(id)
	if rec.InfoFetched && !force {
		return false, nil
	}

	hits, err := s.searchPage(ctx, "recid:"+id, 1)
	if err := interrupted(ctx, err); err != nil {
		return false, err
	}
	if err != nil {
		s.logger.Warn("fetching bibliographic info failed", "id", id, "err", err)
	}
	for _, hit := range hits {
		if hit.ID != id {
			continue
		}
		if err := s.applyHit(hit); err != nil {
			return true, err
		}
	}
	rec.InfoFetched = true
	return true, nil
}

// FetchReferences returns the ids id cites, asking the source unless they
// were already fetched. A cancelled request leaves the record untouched.
func (s *Store) FetchReferences(ctx context.Context, id string, force bool) (record.IDSet, error) {
	rec := s.Get(id)
	if rec.ReferencesFetched && !force {
		return rec.References, nil
	}
	if s.source != nil {
		refs, err := s.source.FetchReferences(ctx, id)
		if err := interrupted(ctx, err); err != nil {
			return rec.References, err
		}
		if err != nil {
			s.logger.Warn("fetching references failed", "id", id, "err", err)
		}
		rec.References = addAll(rec.References, refs)
		s.logger.Debug("fetched references", "id", id, "count", len(refs))
	}
	rec.ReferencesFetched = true
	return rec.References, nil
}

// FetchCitations returns the ids citing id. Co-citations arrive with the same
// request and are stored alongside.
func (s *Store) FetchCitations(ctx context.Context, id string, force bool) (record.IDSet, error) {
	rec := s.Get(id)
	if rec.CitationsFetched && rec.CocitationsFetched && !force {
		return rec.Citations, nil
	}
	if s.source != nil {
		cites, cocites, err := s.source.FetchCitations(ctx, id)
		if err := interrupted(ctx, err); err != nil {
			return rec.Citations, err
		}
		if err != nil {
			s.logger.Warn("fetching citations failed", "id", id, "err", err)
		}
		rec.Citations = addAll(rec.Citations, cites)
		rec.Cocitations = addAll(rec.Cocitations, cocites)
		s.logger.Debug("fetched citations", "id", id, "count", len(cites), "cocitations", len(cocites))
	}
	rec.CitationsFetched = true
	rec.CocitationsFetched = true
	return rec.Citations, nil
}

// Search runs query against the source and returns the ids of all hits.
// Every hit's bibliographic key and fulltext URL is merged into the store.
// Remote failures end the pagination early; the ids found so far are returned.
// Cancellation is returned as an error.
func (s *Store) Search(ctx context.Context, query string) (record.IDSet, error) {
	found := record.IDSet{}
	for page := 1; page <= s.maxPages; page++ {
		hits, err := s.searchPage(ctx, query, page)
		if err := interrupted(ctx, err); err != nil {
			return found, err
		}
		if err != nil {
			s.logger.Warn("search failed", "query", query, "page", page, "err", err)
			break
		}
		for _, hit := range hits {
			if found.Has(hit.ID) {
				s.logger.Warn("duplicate search hit", "query", query, "id", hit.ID)
				continue
			}
			found.Add(hit.ID)
			if err := s.applyHit(hit); err != nil {
				return found, err
			}
		}
		if len(hits) < s.pageSize {
			break
		}
		if page == s.maxPages {
			s.logger.Warn("search page limit reached", "query", query, "pages", page)
		}
	}
	s.logger.Debug("search finished", "query", query, "hits", len(found))
	return found, nil
}

// ResolveBibKeys maps bibliographic keys to record ids. Keys already known
// locally are resolved without network access; every other key costs one
// search unless offlineOnly is set. Keys matching zero or several records are
// left out.
func (s *Store) ResolveBibKeys(ctx context.Context, keys []string, offlineOnly bool) (map[string]string, error) {
	resolved := make(map[string]string, len(keys))
	wanted := make(map[string]bool, len(keys))
	for _, key := range keys {
		wanted[key] = true
	}
	for _, rec := range s.Records() {
		if rec.BibKey != "" && wanted[rec.BibKey] {
			resolved[rec.BibKey] = rec.ID
		}
	}

	var unresolved []string
	queued := make(map[string]bool)
	for _, key := range keys {
		if _, ok := resolved[key]; !ok && !queued[key] {
			queued[key] = true
			unresolved = append(unresolved, key)
		}
	}
	if offlineOnly {
		if len(unresolved) > 0 {
			s.logger.Info("bibkeys left unresolved offline", "count", len(unresolved))
		}
		return resolved, nil
	}

	for _, key := range unresolved {
		hits, err := s.searchPage(ctx, "texkey "+key, 1)
		if err := interrupted(ctx, err); err != nil {
			return resolved, err
		}
		if err != nil {
			s.logger.Warn("resolving bibkey failed", "bibkey", key, "err", err)
			continue
		}
		if len(hits) == 0 {
			s.logger.Warn("bibkey not found", "bibkey", key)
			continue
		}
		if len(hits) > 1 {
			s.logger.Warn("bibkey is ambiguous", "bibkey", key, "matches", len(hits))
			continue
		}
		if err := s.applyHit(hits[0]); err != nil {
			return resolved, err
		}
		resolved[key] = hits[0].ID
	}
	return resolved, nil
}

func (s *Store) searchPage(ctx context.Context, query string, page int) ([]inspire.Hit, error) {
	if s.source == nil {
		return nil, nil
	}
	return s.source.Search(ctx, query, page, s.pageSize)
}

// applyHit merges the bibliographic data of a search hit into the store.
func (s *Store) applyHit(hit inspire.Hit) error {
	if hit.ID == "" {
		return nil
	}
	upd := record.New(hit.ID)
	upd.BibKey = hit.BibKey
	upd.FulltextURL = hit.FulltextURL()
	if err := s.Get(hit.ID).Merge(upd); err != nil {
		return fmt.Errorf("applying search hit: %w", err)
	}
	return nil
}

// interrupted returns the cancellation error when a request was cut short by
// ctx rather than failing remotely. Such requests must not mark anything as
// fetched.
func interrupted(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func addAll(set record.IDSet, ids []string) record.IDSet {
	if set == nil {
		set = record.IDSet{}
	}
	for _, id := range ids {
		set.Add(id)
	}
	return set
}
