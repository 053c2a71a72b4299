package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/citeweb/internal/record"
)

// setupTestDB creates an index populated from testIndexRecords.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenDB(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	n, err := db.RebuildFromRecords(testIndexRecords())
	require.NoError(t, err)
	require.Equal(t, 3, n)
	return db
}

func testIndexRecords() []*record.Record {
	a := record.New("100")
	a.BibKey = "Maldacena:1997re"
	a.References = record.NewIDSet("200")
	a.Citations = record.NewIDSet("300")
	a.ReferencesFetched = true
	a.CitationsFetched = true
	a.CocitationsFetched = true
	a.InfoFetched = true

	b := record.New("200")
	b.BibKey = "Witten:1995ex"
	b.Cocitations = record.NewIDSet("100")

	c := record.New("300")
	c.CustomLabel = "unlabelled preprint"
	c.References = record.NewIDSet("100", "200")
	return []*record.Record{a, b, c}
}

func TestRebuildFromRecords_Count(t *testing.T) {
	db := setupTestDB(t)

	count, err := db.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRebuildFromRecords_ReplacesPrevious(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.RebuildFromRecords([]*record.Record{record.New("1")})
	require.NoError(t, err)

	count, err := db.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	citing, err := db.Citing("100")
	require.NoError(t, err)
	assert.Empty(t, citing)
}

func TestGetByID(t *testing.T) {
	db := setupTestDB(t)

	rec, err := db.GetByID("100")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Maldacena:1997re", rec.BibKey)
	assert.Equal(t, 1997, rec.Year)
	assert.True(t, rec.Complete)

	rec, err = db.GetByID("300")
	require.NoError(t, err)
	assert.Equal(t, "unlabelled preprint", rec.Label)
	assert.Zero(t, rec.Year)

	rec, err = db.GetByID("missing")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFindByBibKey(t *testing.T) {
	db := setupTestDB(t)

	recs, err := db.FindByBibKey("Witten:%", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "200", recs[0].ID)
}

func TestListIncomplete(t *testing.T) {
	db := setupTestDB(t)

	recs, err := db.ListIncomplete(10)
	require.NoError(t, err)
	var ids []string
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"200", "300"}, ids)
}

func TestCitingAndCitedBy(t *testing.T) {
	db := setupTestDB(t)

	// 300 cites 100 is known from both sides and stored once.
	citing, err := db.Citing("100")
	require.NoError(t, err)
	assert.Equal(t, []string{"300"}, citing)

	cited, err := db.CitedBy("300")
	require.NoError(t, err)
	assert.Equal(t, []string{"100", "200"}, cited)

	citing, err = db.Citing("200")
	require.NoError(t, err)
	assert.Equal(t, []string{"100", "300"}, citing)
}

func TestCountsByYear(t *testing.T) {
	db := setupTestDB(t)

	counts, err := db.CountsByYear()
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1997: 1, 1995: 1}, counts)
}
