package viz

import (
	"github.com/matsen/citeweb/internal/record"
	"github.com/matsen/citeweb/internal/selector"
)

// StoreEdges derives the citation edges known to the store. Both sides of a
// relation contribute: r cites x for x in r.References, and x cites r for x
// in r.Citations.
func StoreEdges(records Records) map[Edge]struct{} {
	edges := make(map[Edge]struct{})
	for _, rec := range records.Records() {
		for ref := range rec.References {
			edges[Edge{From: rec.ID, To: ref}] = struct{}{}
		}
		for cit := range rec.Citations {
			edges[Edge{From: cit, To: rec.ID}] = struct{}{}
		}
	}
	return edges
}

// Select adds every store edge accepted by at least one rule and returns the
// number of edges added.
func (g *DotGraph) Select(rules []selector.Rule, seeds record.IDSet) int {
	if len(rules) == 0 {
		rules, _ = selector.ParseRules(nil)
	}

	edges := StoreEdges(g.records)
	universe := record.IDSet{}
	for _, rec := range g.records.Records() {
		universe.Add(rec.ID)
	}
	for e := range edges {
		universe.Add(e.From)
		universe.Add(e.To)
	}

	accepted := make(map[selector.Selector]record.IDSet)
	accept := func(sel selector.Selector) record.IDSet {
		if set, ok := accepted[sel]; ok {
			return set
		}
		origin := seeds
		if sel.Origin == selector.All {
			origin = universe
		}
		set := acceptedIDs(sel, origin, edges)
		accepted[sel] = set
		return set
	}

	added := 0
	for e := range edges {
		for _, rule := range rules {
			if accept(rule.Source).Has(e.From) && accept(rule.Target).Has(e.To) {
				if _, ok := g.edges[e]; !ok {
					g.edges[e] = struct{}{}
					added++
				}
				break
			}
		}
	}
	return added
}

// acceptedIDs returns the ids a selector accepts: members of origin when it
// has no edge kind, otherwise ids referenced by or citing an origin member.
func acceptedIDs(sel selector.Selector, origin record.IDSet, edges map[Edge]struct{}) record.IDSet {
	if sel.Kind == 0 {
		return origin.Clone()
	}
	set := record.IDSet{}
	for e := range edges {
		if sel.Kind.IncludesRefs() && origin.Has(e.From) {
			set.Add(e.To)
		}
		if sel.Kind.IncludesCites() && origin.Has(e.To) {
			set.Add(e.From)
		}
	}
	return set
}
