package harvest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct {
	sent bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, "partial"), nil
	}
	return 0, errors.New("connection reset")
}

func TestDirStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "client", "public", "reciters")

	s, err := NewDirStore(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, dir, s.Dir())
	assert.True(t, s.Created())
}

func TestDirStoreExistingDirectory(t *testing.T) {
	dir := t.TempDir()

	s, err := NewDirStore(dir)
	require.NoError(t, err)
	assert.False(t, s.Created())
}

func TestDirStoreSave(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	data := bytes.Repeat([]byte("x"), ChunkSize*2+100)

	var calls int
	var last int64
	n, err := s.Save("a.jpg", bytes.NewReader(data), func(done int64) {
		calls++
		last = done
	})
	require.NoError(t, err)

	assert.Equal(t, int64(len(data)), n)
	assert.Equal(t, int64(len(data)), last)
	assert.Equal(t, 3, calls)

	got, err := os.ReadFile(s.Path("a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.NoFileExists(t, s.Path("a.jpg"+PartialSuffix))

	ok, err := s.Exists("a.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists("b.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDirStoreSaveFailureLeavesNothing(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save("a.jpg", &failingReader{}, nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "connection reset"))

	assert.NoFileExists(t, s.Path("a.jpg"))
	assert.NoFileExists(t, s.Path("a.jpg"+PartialSuffix))
}
