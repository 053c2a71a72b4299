package resolve

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/citeweb/internal/record"
)

type fakeLookup struct {
	keys        map[string]string
	queries     map[string][]string
	gotKeys     []string
	gotOffline  bool
	resolveCall int
}

func (f *fakeLookup) ResolveBibKeys(_ context.Context, keys []string, offlineOnly bool) (map[string]string, error) {
	f.resolveCall++
	f.gotKeys = keys
	f.gotOffline = offlineOnly
	out := map[string]string{}
	for _, k := range keys {
		if id, ok := f.keys[k]; ok {
			out[k] = id
		}
	}
	return out, nil
}

func (f *fakeLookup) Search(_ context.Context, query string) (record.IDSet, error) {
	return record.NewIDSet(f.queries[query]...), nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestExtractBibKeys(t *testing.T) {
	text := `\cite{Maldacena:1997re,Witten:1998qj} and again \cite{Maldacena:1997re}`
	assert.Equal(t, []string{"Maldacena:1997re", "Witten:1998qj"}, ExtractBibKeys(text))
}

func TestExtractURLIDs(t *testing.T) {
	text := "see https://inspirehep.net/literature/452933 and " +
		"http://inspirehep.net/record/451394/ and https://inspirehep.net/api/literature/452933 " +
		"but not https://example.org/record/1"
	assert.Equal(t, []string{"452933", "451394"}, ExtractURLIDs(text))
}

func TestExtractIDs(t *testing.T) {
	assert.Equal(t, []string{"1", "2"}, ExtractIDs("1\n\n  2  \n"))
}

func TestFromIDPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "1\n2\n")
	writeFile(t, filepath.Join(dir, "sub", "b.txt"), "3\n")
	writeFile(t, filepath.Join(dir, ".hidden", "c.txt"), "4\n")
	writeFile(t, filepath.Join(dir, ".skip.txt"), "5\n")

	r := New(&fakeLookup{})
	ids, err := r.FromIDPaths([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids.Sorted())
}

func TestFromIDPaths_Glob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "x", "seeds.ids"), "1\n")
	writeFile(t, filepath.Join(dir, "y", "z", "more.ids"), "2\n")
	writeFile(t, filepath.Join(dir, "y", "other.txt"), "3\n")

	r := New(&fakeLookup{})
	ids, err := r.FromIDPaths([]string{filepath.Join(dir, "**", "*.ids")})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids.Sorted())
}

func TestFromIDPaths_GlobUnderHiddenBase(t *testing.T) {
	base := filepath.Join(t.TempDir(), ".papers")
	writeFile(t, filepath.Join(base, "talk", "seeds.ids"), "1\n")
	writeFile(t, filepath.Join(base, ".cache", "old.ids"), "2\n")

	r := New(&fakeLookup{})
	ids, err := r.FromIDPaths([]string{filepath.Join(base, "**", "*.ids")})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids.Sorted())
}

func TestFromIDPaths_GlobMatchingOnlyHidden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".cache", "old.ids"), "2\n")

	r := New(&fakeLookup{})
	_, err := r.FromIDPaths([]string{filepath.Join(dir, "**", "*.ids")})
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestFromIDPaths_Missing(t *testing.T) {
	r := New(&fakeLookup{})

	_, err := r.FromIDPaths([]string{filepath.Join(t.TempDir(), "nope.txt")})
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = r.FromIDPaths([]string{filepath.Join(t.TempDir(), "*.none")})
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestFromBibKeyPathsPerFile(t *testing.T) {
	dir := t.TempDir()
	one := filepath.Join(dir, "one", "paper.tex")
	two := filepath.Join(dir, "two", "talk.tex")
	writeFile(t, one, `\cite{Maldacena:1997re} \cite{Unknown:2000zz}`)
	writeFile(t, two, `\cite{Maldacena:1997re,Witten:1998qj}`)

	lookup := &fakeLookup{keys: map[string]string{
		"Maldacena:1997re": "452933",
		"Witten:1998qj":    "469976",
	}}
	r := New(lookup, WithOfflineOnly(true))

	got, err := r.FromBibKeyPathsPerFile(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 1, lookup.resolveCall)
	assert.True(t, lookup.gotOffline)
	assert.Equal(t, []string{"Maldacena:1997re", "Unknown:2000zz", "Witten:1998qj"}, lookup.gotKeys)
	assert.Equal(t, []string{"452933"}, got[one].Sorted())
	assert.Equal(t, []string{"452933", "469976"}, got[two].Sorted())

	all, err := r.FromBibKeyPaths(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{"452933", "469976"}, all.Sorted())
}

func TestFromURLPaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.md")
	writeFile(t, path, "[a](https://inspirehep.net/literature/1)\n[b](https://inspirehep.net/record/2)\n")

	ids, err := New(&fakeLookup{}).FromURLPaths([]string{path})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids.Sorted())
}

func TestFromQueries(t *testing.T) {
	lookup := &fakeLookup{queries: map[string][]string{
		"t holography": {"1", "2"},
		"a maldacena":  {"2", "3"},
	}}
	ids, err := New(lookup).FromQueries(context.Background(), []string{"t holography", " ", "a maldacena"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids.Sorted())
}
