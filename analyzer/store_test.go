package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return &Store{Dir: t.TempDir(), Pretty: true, Log: zerolog.Nop()}
}

func TestStore_LoadMissingFile(t *testing.T) {
	store := newTestStore(t)
	ch, err := store.Load(store.PathFor("nope"))
	require.NoError(t, err)
	assert.Nil(t, ch, "a missing store file is not an error")
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	path := store.PathFor("chan")

	c := testComment("c1", 2)
	c.Analysis = &AnalysisResult{SourceSentiment: map[string]float64{"joy": 0.5}, AnalyzedAt: testTime(3)}
	ch := testChannel(testVideo("v1", c))

	require.NoError(t, store.Save(path, ch))

	loaded, err := store.Load(path)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	want, err := EncodeChannel(ch)
	require.NoError(t, err)
	got, err := EncodeChannel(loaded)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}

func TestStore_LoadCorruptFileIsValidationError(t *testing.T) {
	store := newTestStore(t)
	path := store.PathFor("bad")
	require.NoError(t, os.MkdirAll(store.Dir, 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{ half a json"), 0o644))

	_, err := store.Load(path)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestStore_PathFor(t *testing.T) {
	store := &Store{Dir: filepath.FromSlash("processed_data")}
	assert.Equal(t,
		filepath.FromSlash("processed_data/appdata_mychannel.json"),
		store.PathFor("mychannel"))
}

func TestStemOf(t *testing.T) {
	assert.Equal(t, "mychannel", StemOf(filepath.FromSlash("input_data/mychannel.json")))
	assert.Equal(t, "plain", StemOf("plain"))
}

func TestStore_SinkSavesToPath(t *testing.T) {
	store := newTestStore(t)
	path := store.PathFor("chan")

	sink := store.Sink(path)
	require.NoError(t, sink.Save(testChannel()))
	assert.FileExists(t, path)
}

func TestStore_SaveCreatesDir(t *testing.T) {
	store := &Store{Dir: filepath.Join(t.TempDir(), "deep", "dir"), Log: zerolog.Nop()}
	path := store.PathFor("chan")
	require.NoError(t, store.Save(path, testChannel()))
	assert.FileExists(t, path)
}
