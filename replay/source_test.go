package replay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSource_ValidFile(t *testing.T) {
	path := writeReplay(t, t.TempDir(), standardEntries())

	q, total := LoadSource(path)

	require.Equal(t, int64(20), total, "terminal tick")
	require.Equal(t, 4, q.Len())

	pa, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, int64(0), pa.Tick)
	assert.Equal(t, "init", pa.Action.Name())
	assert.Equal(t, KindInstruction, pa.Action.Kind())

	q.Dequeue()
	q.Dequeue()
	last, _ := q.Dequeue()
	assert.Equal(t, int64(20), last.Tick)
	assert.Equal(t, KindGameEnd, last.Action.Kind())
}

func TestLoadSource_MissingTimeDefaultsToZero(t *testing.T) {
	path := writeReplay(t, t.TempDir(), nil)
	// Rewrite with a record that has no time field.
	writeRawReplay(t, path, `{"action":"init"}`, `{"action":"gameEnd","time":7}`)

	q, total := LoadSource(path)

	require.Equal(t, int64(7), total)
	pa, _ := q.Dequeue()
	assert.Equal(t, int64(0), pa.Tick)
}

func TestLoadSource_MissingFile_SyntheticEnd(t *testing.T) {
	q, total := LoadSource(filepath.Join(t.TempDir(), "nope.rpy"))

	assert.Equal(t, int64(0), total)
	require.Equal(t, 1, q.Len())
	pa, _ := q.Dequeue()
	assert.Equal(t, KindGameEnd, pa.Action.Kind())
	assert.Equal(t, int64(0), pa.Tick)
}

func TestLoadSource_NotGzip_SyntheticEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.rpy")
	require.NoError(t, os.WriteFile(path, []byte("not a gzip stream"), 0644))

	q, total := LoadSource(path)

	assert.Equal(t, int64(0), total)
	require.Equal(t, 1, q.Len())
}

func TestLoadSource_MalformedLine_SyntheticEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.rpy")
	writeRawReplay(t, path, `{"action":"init","time":0}`, `{{{not json`)

	q, total := LoadSource(path)

	assert.Equal(t, int64(0), total)
	require.Equal(t, 1, q.Len())
	pa, _ := q.Dequeue()
	assert.Equal(t, KindGameEnd, pa.Action.Kind())
}
