package storage

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"phonebook/models"
	"phonebook/recfile"
)

func TestSaveClearLoadRoundTrip(t *testing.T) {
	db := newTestDB(t)
	corp := tinyCorpus()

	created, err := db.Generate(corp, 500, 4, 0)
	require.NoError(t, err)
	require.EqualValues(t, 500, created)

	dir := t.TempDir()
	_, err = db.Save(4, "data.csv", dir, 0)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		name, err := recfile.WorkerFileName("data.csv", i)
		require.NoError(t, err)
		_, statErr := os.Stat(dir + "/" + name)
		require.NoError(t, statErr)
	}

	require.NoError(t, db.Clear(4, 0))
	require.EqualValues(t, 0, db.RecordCount())

	loaded, err := db.Load(4, "data.csv", dir, 0)
	require.NoError(t, err)
	require.EqualValues(t, 500, loaded)
	require.EqualValues(t, 500, db.RecordCount())
}

func TestClearOnEmptyFailsSequence(t *testing.T) {
	db := newTestDB(t)
	err := db.Clear(4, 50*time.Millisecond)
	require.Error(t, err)
	require.Equal(t, models.KindSequence, models.KindOf(err))
}
