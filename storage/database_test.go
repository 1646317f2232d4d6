package storage

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phonebook/corpus"
	"phonebook/models"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := New(4, 6, 200*time.Millisecond)
	require.NoError(t, err)
	return db
}

func TestNewRejectsBadSplit(t *testing.T) {
	_, err := New(0, 10, time.Second)
	require.Error(t, err)
	assert.Equal(t, models.KindBadArg, models.KindOf(err))
}

func TestInsertFindDelete(t *testing.T) {
	db := newTestDB(t)
	rec := models.NewRecord("Ivanov", "Ivan", "Ivanovich")

	created, err := db.Insert("89991112233", true, rec, 0)
	require.NoError(t, err)
	assert.True(t, created)
	assert.EqualValues(t, 1, db.RecordCount())
	assert.EqualValues(t, 19, db.ByteCount())

	found, activity, ok, err := db.Find("89991112233", 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, activity)
	assert.True(t, found.Equal(rec))

	removed, err := db.Erase("89991112233", 0)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.EqualValues(t, 0, db.RecordCount())

	removed, err = db.Erase("89991112233", 0)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestInsertReplaceAcrossActivity(t *testing.T) {
	db := newTestDB(t)
	rec := models.NewRecord("Ivanov", "Ivan", "Ivanovich")
	_, err := db.Insert("89991112233", true, rec, 0)
	require.NoError(t, err)

	rec2 := models.NewRecord("Ivanov", "Ivan", "Ivanovichh")
	created, err := db.Insert("89991112233", false, rec2, 0)
	require.NoError(t, err)
	assert.False(t, created)
	assert.EqualValues(t, 1, db.RecordCount())
	assert.EqualValues(t, rec.Bytes()+1, db.ByteCount())

	found, activity, ok, err := db.Find("89991112233", 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, activity)
	assert.True(t, found.Equal(rec2))
}

func TestInsertBadKey(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Insert("12345", true, models.Record{}, 0)
	require.Error(t, err)
	assert.Equal(t, models.KindBadKey, models.KindOf(err))
	assert.EqualValues(t, 0, db.RecordCount())
}

func TestFindOnEmptyFailsSequence(t *testing.T) {
	db := newTestDB(t)
	_, _, _, err := db.Find("89991112233", 50*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, models.KindSequence, models.KindOf(err))
}

func TestGenerateYieldsExactCount(t *testing.T) {
	db := newTestDB(t)
	corp := tinyCorpus()

	created, err := db.Generate(corp, 1000, 4, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, created)
	assert.EqualValues(t, 1000, db.RecordCount())
}

func TestGenerateOnPopulatedFailsSequence(t *testing.T) {
	db := newTestDB(t)
	corp := tinyCorpus()

	_, err := db.Generate(corp, 10, 2, 0)
	require.NoError(t, err)

	_, err = db.Generate(corp, 10, 2, 50*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, models.KindSequence, models.KindOf(err))
}

func TestClearResetsCounters(t *testing.T) {
	db := newTestDB(t)
	corp := tinyCorpus()
	_, err := db.Generate(corp, 200, 4, 0)
	require.NoError(t, err)

	err = db.Clear(4, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0, db.RecordCount())
	assert.EqualValues(t, 0, db.ByteCount())
}

func TestPrintCoversEveryEntry(t *testing.T) {
	db := newTestDB(t)
	rec := models.NewRecord("Ivanov", "Ivan", "Ivanovich")
	_, err := db.Insert("89991112233", true, rec, 0)
	require.NoError(t, err)
	rec2 := models.NewRecord("Petrov", "Petr", "Petrovich")
	_, err = db.Insert("89991112244", false, rec2, 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := db.Print(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
}

func tinyCorpus() *corpus.Corpus {
	return &corpus.Corpus{
		LastMale:    []string{"Ivanov", "Petrov", "Sidorov"},
		LastFemale:  []string{"Ivanova", "Petrova", "Sidorova"},
		FirstMale:   []string{"Ivan", "Petr", "Sergei"},
		FirstFemale: []string{"Irina", "Anna", "Maria"},
		PatMale:     []string{"Ivanovich", "Petrovich"},
		PatFemale:   []string{"Ivanovna", "Petrovna"},
	}
}
