package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStep(t *testing.T) {
	tests := []struct {
		expr       string
		wantOrigin Origin
		wantHops   []EdgeKind
	}{
		{"seeds", Seeds, nil},
		{"s", Seeds, nil},
		{"all", All, nil},
		{"A", All, nil},
		{"seeds.refs", Seeds, []EdgeKind{Refs}},
		{"s.c", Seeds, []EdgeKind{Cites}},
		{"a.rc", All, []EdgeKind{RefsCites}},
		{"a.cr", All, []EdgeKind{RefsCites}},
		{"seeds.citesrefs", Seeds, []EdgeKind{RefsCites}},
		{"s.r.c", Seeds, []EdgeKind{Refs, Cites}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			step, err := ParseStep(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrigin, step.Origin)
			assert.Equal(t, tt.wantHops, step.Hops)
			assert.Equal(t, len(tt.wantHops) == 0, step.InfoOnly())
		})
	}
}

func TestParseStep_Errors(t *testing.T) {
	_, err := ParseStep("everything.refs")
	assert.ErrorIs(t, err, ErrUnknownOrigin)

	_, err = ParseStep("seeds.friends")
	assert.ErrorIs(t, err, ErrUnknownEdgeKind)
}

func TestParseSteps_SkipsUnknownEdgeKinds(t *testing.T) {
	steps, skipped, err := ParseSteps([]string{"s.r", "", "s.x", "a"})
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "seeds.refs", steps[0].String())
	assert.Equal(t, "all", steps[1].String())
	require.Len(t, skipped, 1)
	assert.ErrorIs(t, skipped[0], ErrUnknownEdgeKind)
}

func TestParseSteps_UnknownOriginIsFatal(t *testing.T) {
	steps, _, err := ParseSteps([]string{"s.r", "bogus"})
	assert.ErrorIs(t, err, ErrUnknownOrigin)
	assert.Nil(t, steps)
}

func TestParseRule(t *testing.T) {
	r, err := ParseRule("seeds.refs>all")
	require.NoError(t, err)
	assert.Equal(t, Selector{Origin: Seeds, Kind: Refs}, r.Source)
	assert.Equal(t, Selector{Origin: All}, r.Target)
	assert.Equal(t, "seeds.refs>all", r.String())

	r, err = ParseRule("s>a.cr")
	require.NoError(t, err)
	assert.Equal(t, "seeds>all.refscites", r.String())
}

func TestParseRule_Errors(t *testing.T) {
	for _, expr := range []string{"seeds", "seeds>>all", "x>seeds", "seeds>all.foo", "seeds.refs.cites>all"} {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseRule(expr)
			assert.ErrorIs(t, err, ErrBadRule)
		})
	}
}

func TestParseRules_Default(t *testing.T) {
	rules, err := ParseRules(nil)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, DefaultRule, rules[0].String())
}
