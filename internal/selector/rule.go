package selector

import (
	"fmt"
	"strings"
)

// DefaultRule draws only edges between seeds.
const DefaultRule = "seeds>seeds"

// Selector picks candidate ids: members of the origin set, or, with a Kind,
// ids connected to the origin set by that kind of edge.
type Selector struct {
	Origin Origin
	Kind   EdgeKind // zero when no suffix was given
}

func (s Selector) String() string {
	if s.Kind == 0 {
		return s.Origin.String()
	}
	return s.Origin.String() + "." + s.Kind.String()
}

// Rule accepts an edge when its source and target are accepted by the
// respective selectors.
type Rule struct {
	Source Selector
	Target Selector
}

func (r Rule) String() string {
	return r.Source.String() + ">" + r.Target.String()
}

// ParseSelector parses "{seeds|all}[.{refs|cites|refscites}]".
func ParseSelector(expr string) (Selector, error) {
	parts := strings.Split(strings.TrimSpace(expr), ".")
	if len(parts) > 2 {
		return Selector{}, fmt.Errorf("selector %q takes at most one edge kind", expr)
	}
	origin, err := ParseOrigin(parts[0])
	if err != nil {
		return Selector{}, err
	}
	sel := Selector{Origin: origin}
	if len(parts) == 2 {
		if sel.Kind, err = ParseEdgeKind(parts[1]); err != nil {
			return Selector{}, err
		}
	}
	return sel, nil
}

// ParseRule parses "source>target".
func ParseRule(expr string) (Rule, error) {
	source, target, ok := strings.Cut(expr, ">")
	if !ok || strings.Contains(target, ">") {
		return Rule{}, fmt.Errorf("%w %q: want source>target", ErrBadRule, expr)
	}
	src, err := ParseSelector(source)
	if err != nil {
		return Rule{}, fmt.Errorf("%w %q: %w", ErrBadRule, expr, err)
	}
	dst, err := ParseSelector(target)
	if err != nil {
		return Rule{}, fmt.Errorf("%w %q: %w", ErrBadRule, expr, err)
	}
	return Rule{Source: src, Target: dst}, nil
}

// ParseRules parses every rule; an empty list yields DefaultRule.
func ParseRules(exprs []string) ([]Rule, error) {
	var rules []Rule
	for _, expr := range exprs {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		r, err := ParseRule(expr)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if len(rules) == 0 {
		r, _ := ParseRule(DefaultRule)
		rules = append(rules, r)
	}
	return rules, nil
}
