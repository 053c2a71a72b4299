package store

import (
	"context"
	"fmt"

	"github.com/matsen/citeweb/internal/record"
	"github.com/matsen/citeweb/internal/selector"
)

// Defaults for AutocompleteOptions.
const (
	DefaultSaveEvery  = 5
	DefaultStatsEvery = 5
)

// AutocompleteOptions controls a crawl.
type AutocompleteOptions struct {
	Force      bool         // re-fetch data that was already downloaded
	Seeds      record.IDSet // initial value of the "seeds" origin
	SaveEvery  int          // save after this many processed ids; <0 disables
	StatsEvery int          // log statistics after this many processed ids; <0 disables
	Limit      int          // max ids processed per hop; 0 means unlimited
}

func (o AutocompleteOptions) withDefaults() AutocompleteOptions {
	if o.SaveEvery == 0 {
		o.SaveEvery = DefaultSaveEvery
	}
	if o.StatsEvery == 0 {
		o.StatsEvery = DefaultStatsEvery
	}
	return o
}

// Autocomplete runs the steps in order and returns every id reached,
// including the seeds. Ids found by one step become seeds of the next.
//
// A step without hops fetches bibliographic info for its start set. Each hop
// walks a sorted snapshot of the ids gathered so far in the step and adds
// the references and/or citations it finds.
func (s *Store) Autocomplete(ctx context.Context, steps []selector.Step, opts AutocompleteOptions) (record.IDSet, error) {
	opts = opts.withDefaults()
	seeds := opts.Seeds.Clone()

	processed := 0
	tick := func() error {
		processed++
		if opts.SaveEvery > 0 && processed%opts.SaveEvery == 0 && s.backupPath != "" {
			if err := s.Save(""); err != nil {
				return fmt.Errorf("periodic save: %w", err)
			}
		}
		if opts.StatsEvery > 0 && processed%opts.StatsEvery == 0 {
			s.LogStatistics()
		}
		return nil
	}

	for _, step := range steps {
		var frontier record.IDSet
		switch step.Origin {
		case selector.All:
			frontier = record.NewIDSet(s.IDs()...)
		default:
			frontier = seeds.Clone()
		}
		s.logger.Info("running step", "step", step.String(), "start", len(frontier))

		if step.InfoOnly() {
			for _, id := range limitIDs(frontier.Sorted(), opts.Limit) {
				if err := ctx.Err(); err != nil {
					return seeds, err
				}
				if _, err := s.FetchBibliographicInfo(ctx, id, opts.Force); err != nil {
					return seeds, err
				}
				if err := ctx.Err(); err != nil {
					return seeds, err
				}
				if err := tick(); err != nil {
					return seeds, err
				}
			}
		}

		for _, hop := range step.Hops {
			found := record.IDSet{}
			for _, id := range limitIDs(frontier.Sorted(), opts.Limit) {
				if err := ctx.Err(); err != nil {
					return seeds, err
				}
				if hop.IncludesRefs() {
					refs, err := s.FetchReferences(ctx, id, opts.Force)
					if err != nil {
						return seeds, err
					}
					found.Union(refs)
				}
				if hop.IncludesCites() {
					cites, err := s.FetchCitations(ctx, id, opts.Force)
					if err != nil {
						return seeds, err
					}
					found.Union(cites)
				}
				if err := ctx.Err(); err != nil {
					return seeds, err
				}
				if err := tick(); err != nil {
					return seeds, err
				}
			}
			frontier.Union(found)
		}

		seeds.Union(frontier)
		s.logger.Info("step finished", "step", step.String(), "ids", len(seeds))
	}
	return seeds, nil
}

func limitIDs(ids []string, limit int) []string {
	if limit > 0 && len(ids) > limit {
		return ids[:limit]
	}
	return ids
}
