package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteJSONThenReadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "state.json")

	type payload struct {
		Name string `json:"name"`
	}

	require.NoError(t, WriteJSON(path, payload{Name: "a"}))

	var out payload
	require.NoError(t, ReadJSON(path, &out))
	require.Equal(t, "a", out.Name)
}

func TestReadJSONMissingFile(t *testing.T) {
	var out map[string]any
	err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &out)
	require.True(t, os.IsNotExist(err))
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	require.True(t, Exists(file))
	require.False(t, Exists(dir))
	require.False(t, Exists(filepath.Join(dir, "nope")))
}

func TestIsVideoFile(t *testing.T) {
	exts := []string{".mp4", ".mkv"}
	require.True(t, IsVideoFile("movie.MP4", exts))
	require.True(t, IsVideoFile("show.mkv", exts))
	require.False(t, IsVideoFile("readme.txt", exts))
	require.False(t, IsVideoFile("noext", exts))
}

func TestWriteJSONAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	require.NoError(t, WriteJSON(path, map[string]int{"a": 1}))
	require.NoError(t, WriteJSON(path, map[string]int{"a": 2}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no leftover temp files after rename")
}
