package selector

import (
	"errors"
	"fmt"
	"strings"
)

// Step is one parsed crawl step: an origin followed by zero or more hops.
// A step without hops only downloads bibliographic info for the origin set.
type Step struct {
	Origin Origin
	Hops   []EdgeKind
	Raw    string
}

// InfoOnly reports whether the step fetches bibliographic info instead of edges.
func (s Step) InfoOnly() bool {
	return len(s.Hops) == 0
}

func (s Step) String() string {
	parts := []string{s.Origin.String()}
	for _, h := range s.Hops {
		parts = append(parts, h.String())
	}
	return strings.Join(parts, ".")
}

// ParseStep parses "origin(.kind)*", e.g. "s", "seeds.refs", "a.rc", "s.r.c".
func ParseStep(expr string) (Step, error) {
	parts := strings.Split(strings.TrimSpace(expr), ".")
	origin, err := ParseOrigin(parts[0])
	if err != nil {
		return Step{}, err
	}

	step := Step{Origin: origin, Raw: expr}
	for _, token := range parts[1:] {
		kind, err := ParseEdgeKind(token)
		if err != nil {
			return Step{}, fmt.Errorf("step %q: %w", expr, err)
		}
		step.Hops = append(step.Hops, kind)
	}
	return step, nil
}

// ParseSteps parses a list of step expressions in order. Blank entries are
// ignored. An unknown origin aborts parsing; a step with an unknown edge kind
// is dropped and reported in skipped.
func ParseSteps(exprs []string) (steps []Step, skipped []error, err error) {
	for _, expr := range exprs {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		step, perr := ParseStep(expr)
		switch {
		case perr == nil:
			steps = append(steps, step)
		case errors.Is(perr, ErrUnknownEdgeKind):
			skipped = append(skipped, perr)
		default:
			return nil, nil, fmt.Errorf("step %q: %w", expr, perr)
		}
	}
	return steps, skipped, nil
}
