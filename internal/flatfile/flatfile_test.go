package flatfile

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "assets.csv")

	w, err := Create(path, []string{"ticker", "asset_class"})
	require.NoError(t, err)
	require.NoError(t, w.Write([]string{"AAPL", "Equity"}))
	require.NoError(t, w.Write([]string{"BRK,B", "Equity"}))
	assert.Equal(t, int64(2), w.Rows())
	assert.Equal(t, path, w.Path())

	// Nothing is visible at the final path until Close
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, w.Close())

	r, err := Open(path, "ticker", "asset_class")
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"ticker", "asset_class"}, r.Header())

	recs, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "AAPL", recs[0].Get("ticker"))
	assert.Equal(t, 2, recs[0].Line)
	assert.Equal(t, "BRK,B", recs[1].Get("ticker"))
	assert.Equal(t, "Equity", recs[1].Get("asset_class"))
	assert.Equal(t, "", recs[1].Get("unknown"))

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestOpenMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.csv")
	require.NoError(t, os.WriteFile(path, []byte("ticker\nAAPL\n"), 0o644))

	_, err := Open(path, "ticker", "asset_class")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "asset_class")
}

func TestOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestOpenByteOrderMark(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.csv")
	require.NoError(t, os.WriteFile(path, []byte("\uFEFFticker,asset_class\nKO,Equity\n"), 0o644))

	r, err := Open(path, "ticker")
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, "ticker", r.Header()[0])

	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "KO", rec.Get("ticker"))
}

func TestAbortLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	w, err := Create(filepath.Join(dir, "prices.csv"), []string{"date"})
	require.NoError(t, err)
	require.NoError(t, w.Write([]string{"2024-01-01"}))
	w.Abort()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
