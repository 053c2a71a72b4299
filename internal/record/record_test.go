package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_EmptyLabelIsID(t *testing.T) {
	r := New("1471118")

	assert.Equal(t, "1471118", r.ID)
	assert.Equal(t, "1471118", r.Label())
	assert.False(t, r.IsComplete())
}

func TestLabel_Precedence(t *testing.T) {
	tests := []struct {
		name        string
		bibKey      string
		customLabel string
		want        string
	}{
		{name: "id only", want: "42"},
		{name: "custom label", customLabel: "my paper", want: "my paper"},
		{name: "bibkey wins over custom label", bibKey: "Davies:2016ruz", customLabel: "my paper", want: "Davies:2016ruz"},
		{name: "bibkey only", bibKey: "Davies:2016ruz", want: "Davies:2016ruz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New("42")
			r.BibKey = tt.bibKey
			r.CustomLabel = tt.customLabel
			assert.Equal(t, tt.want, r.Label())
		})
	}
}

func TestIsComplete(t *testing.T) {
	r := New("1")
	r.ReferencesFetched = true
	r.CitationsFetched = true
	r.CocitationsFetched = true
	r.InfoFetched = true
	assert.False(t, r.IsComplete(), "bibkey still missing")

	r.BibKey = "Feynman:1949zx"
	assert.True(t, r.IsComplete())
}

func TestURL(t *testing.T) {
	r := New("566620")
	assert.Equal(t, "https://inspirehep.net/record/566620", r.URL(""))
	assert.Equal(t, "https://example.org/lit/566620", r.URL("https://example.org/lit/%s"))
}

func sampleA() *Record {
	a := New("7")
	a.BibKey = "Gell-Mann:1964nj"
	a.References = NewIDSet("1", "2")
	a.Citations = NewIDSet("10")
	a.ReferencesFetched = true
	a.FulltextURL = "https://arxiv.org/abs/hep-th/0001"
	return a
}

func sampleB() *Record {
	b := New("7")
	b.CustomLabel = "quarks"
	b.References = NewIDSet("2", "3")
	b.Cocitations = NewIDSet("99")
	b.CitationsFetched = true
	b.CocitationsFetched = true
	b.InfoFetched = true
	b.FulltextURL = "https://example.org/other"
	return b
}

func TestMerge_UnionsAndFlags(t *testing.T) {
	a := sampleA()
	require.NoError(t, a.Merge(sampleB()))

	assert.Equal(t, "Gell-Mann:1964nj", a.BibKey)
	assert.Equal(t, "quarks", a.CustomLabel)
	assert.Equal(t, "https://arxiv.org/abs/hep-th/0001", a.FulltextURL, "first non-empty URL wins")
	assert.Equal(t, []string{"1", "2", "3"}, a.References.Sorted())
	assert.Equal(t, []string{"10"}, a.Citations.Sorted())
	assert.Equal(t, []string{"99"}, a.Cocitations.Sorted())
	assert.True(t, a.ReferencesFetched)
	assert.True(t, a.CitationsFetched)
	assert.True(t, a.CocitationsFetched)
	assert.True(t, a.InfoFetched)
}

func TestMerge_Commutative(t *testing.T) {
	ab := sampleA()
	require.NoError(t, ab.Merge(sampleB()))
	ba := sampleB()
	require.NoError(t, ba.Merge(sampleA()))

	assert.True(t, ab.References.Equal(ba.References))
	assert.True(t, ab.Citations.Equal(ba.Citations))
	assert.True(t, ab.Cocitations.Equal(ba.Cocitations))
	assert.Equal(t, ab.ReferencesFetched, ba.ReferencesFetched)
	assert.Equal(t, ab.CitationsFetched, ba.CitationsFetched)
	assert.Equal(t, ab.CocitationsFetched, ba.CocitationsFetched)
	assert.Equal(t, ab.InfoFetched, ba.InfoFetched)
	assert.Equal(t, ab.BibKey, ba.BibKey)
}

func TestMerge_SelfIsNoop(t *testing.T) {
	a := sampleA()
	before := a.Clone()
	require.NoError(t, a.Merge(a.Clone()))
	assert.True(t, a.Equal(before))
}

func TestMerge_BibKeyConflict(t *testing.T) {
	a := sampleA()
	b := sampleB()
	b.BibKey = "Zweig:1964jf"
	before := a.Clone()

	err := a.Merge(b)
	require.ErrorIs(t, err, ErrBibKeyConflict)
	assert.True(t, a.Equal(before), "failed merge must not modify the record")
}

func TestMerge_IDMismatch(t *testing.T) {
	a := New("1")
	err := a.Merge(New("2"))
	require.ErrorIs(t, err, ErrIDMismatch)
}

func TestMerge_NilSetsOnReceiver(t *testing.T) {
	a := &Record{ID: "5"}
	b := New("5")
	b.Citations = NewIDSet("6")

	require.NoError(t, a.Merge(b))
	assert.True(t, a.Citations.Has("6"))
	assert.NotNil(t, a.References)
}

func TestClone_Independent(t *testing.T) {
	a := sampleA()
	c := a.Clone()
	c.References.Add("new")
	assert.False(t, a.References.Has("new"))
}

func TestEqual_NilVersusEmptySets(t *testing.T) {
	a := &Record{ID: "1"}
	b := New("1")
	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))
}

func TestJSON_RoundTrip(t *testing.T) {
	a := sampleA()
	require.NoError(t, a.Merge(sampleB()))

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"references":["1","2","3"]`)

	var got Record
	require.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, a.Equal(&got))
}

func TestIDSet_AddIgnoresEmpty(t *testing.T) {
	s := NewIDSet("", "a")
	assert.Len(t, s, 1)
	assert.True(t, s.Has("a"))
	assert.False(t, IDSet(nil).Has("a"))
}

func TestBibKeyYear(t *testing.T) {
	tests := []struct {
		key      string
		wantYear int
		wantOK   bool
	}{
		{"Davies:2016ruz", 2016, true},
		{"Gell-Mann:1964nj", 1964, true},
		{"", 0, false},
		{"nokey", 0, false},
		{"short:12", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			year, ok := BibKeyYear(tt.key)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantYear, year)
		})
	}
}
