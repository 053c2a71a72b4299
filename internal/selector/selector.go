// Package selector parses the small path-expression language shared by crawl
// steps ("seeds.refs") and render selection rules ("seeds.refs>all").
//
// Expressions are parsed once into typed values; the rest of the program
// never looks at the raw strings.
package selector

import (
	"errors"
	"fmt"
	"strings"
)

// Parse errors.
var (
	ErrUnknownOrigin   = errors.New("unknown origin")
	ErrUnknownEdgeKind = errors.New("unknown edge kind")
	ErrBadRule         = errors.New("malformed selection rule")
)

// Origin names the id set an expression starts from.
type Origin int

const (
	// Seeds is the caller-supplied id set.
	Seeds Origin = iota
	// All is every id currently held by the store.
	All
)

func (o Origin) String() string {
	if o == All {
		return "all"
	}
	return "seeds"
}

// EdgeKind selects which citation edges to follow.
type EdgeKind int

const (
	Refs EdgeKind = iota + 1
	Cites
	RefsCites
)

func (k EdgeKind) String() string {
	switch k {
	case Refs:
		return "refs"
	case Cites:
		return "cites"
	case RefsCites:
		return "refscites"
	default:
		return fmt.Sprintf("EdgeKind(%d)", int(k))
	}
}

// IncludesRefs reports whether k follows references.
func (k EdgeKind) IncludesRefs() bool { return k == Refs || k == RefsCites }

// IncludesCites reports whether k follows citations.
func (k EdgeKind) IncludesCites() bool { return k == Cites || k == RefsCites }

var origins = map[string]Origin{
	"seeds": Seeds,
	"s":     Seeds,
	"all":   All,
	"a":     All,
}

var edgeKinds = map[string]EdgeKind{
	"refs":      Refs,
	"r":         Refs,
	"cites":     Cites,
	"c":         Cites,
	"refscites": RefsCites,
	"citesrefs": RefsCites,
	"rc":        RefsCites,
	"cr":        RefsCites,
}

// ParseOrigin maps an origin token (or alias) to its Origin.
func ParseOrigin(token string) (Origin, error) {
	o, ok := origins[strings.ToLower(strings.TrimSpace(token))]
	if !ok {
		return 0, fmt.Errorf("%w %q (want seeds, s, all or a)", ErrUnknownOrigin, token)
	}
	return o, nil
}

// ParseEdgeKind maps an edge-kind token (or alias) to its EdgeKind.
func ParseEdgeKind(token string) (EdgeKind, error) {
	k, ok := edgeKinds[strings.ToLower(strings.TrimSpace(token))]
	if !ok {
		return 0, fmt.Errorf("%w %q (want refs, cites or refscites)", ErrUnknownEdgeKind, token)
	}
	return k, nil
}
