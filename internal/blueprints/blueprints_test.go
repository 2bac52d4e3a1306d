package blueprints

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"component", "empty"}, Names())
}

func TestGet_Component(t *testing.T) {
	fsys, err := Get("component")
	require.NoError(t, err)

	var files []string
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files = append(files, p)
		}
		return err
	})
	require.NoError(t, err)
	assert.Len(t, files, 4)
	assert.Contains(t, files, "__name@dasherize__/__name@dasherize__.component.go.tmpl")
}

func TestGet_Empty(t *testing.T) {
	fsys, err := Get("empty")
	require.NoError(t, err)

	entries, err := fs.ReadDir(fsys, ".")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGet_Unknown(t *testing.T) {
	_, err := Get("widget")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown blueprint")
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt.tmpl"), []byte("hi"), 0644))

	fsys, err := Load("component", dir)
	require.NoError(t, err)

	data, err := fs.ReadFile(fsys, "a.txt.tmpl")
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))

	_, err = Load("component", filepath.Join(dir, "a.txt.tmpl"))
	assert.Error(t, err)
}
