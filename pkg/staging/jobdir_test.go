package staging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_MakesDistinctDirectories(t *testing.T) {
	base := t.TempDir()

	j1, err := Create(base)
	require.NoError(t, err)
	j2, err := Create(base)
	require.NoError(t, err)

	assert.NotEqual(t, j1.Path, j2.Path)
	assert.DirExists(t, j1.Path)
	assert.DirExists(t, j2.Path)
}

func TestWrite_WritesFileInsideJobDir(t *testing.T) {
	j, err := Create(t.TempDir())
	require.NoError(t, err)

	path, err := j.Write("main.py", []byte("print('hi')"))
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "print('hi')", string(content))
}

func TestWrite_CreatesNestedParents(t *testing.T) {
	j, err := Create(t.TempDir())
	require.NoError(t, err)

	path, err := j.Write(filepath.Join("in", "a.txt"), []byte("data"))
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestWrite_RejectsTraversalEscape(t *testing.T) {
	j, err := Create(t.TempDir())
	require.NoError(t, err)

	_, err = j.Write(filepath.Join("..", "..", "escape.txt"), []byte("x"))
	require.Error(t, err)
	var unsafe *UnsafePathError
	require.ErrorAs(t, err, &unsafe)
}

func TestWrite_RejectsSymlinkEscape(t *testing.T) {
	outside := t.TempDir()
	j, err := Create(t.TempDir())
	require.NoError(t, err)

	link := filepath.Join(j.Path, "escape")
	require.NoError(t, os.Symlink(outside, link))

	_, err = j.Write(filepath.Join("escape", "payload.txt"), []byte("x"))
	require.Error(t, err)
	var unsafe *UnsafePathError
	require.ErrorAs(t, err, &unsafe)
}

func TestListFiles_NonRecursiveSortedByReadDir(t *testing.T) {
	j, err := Create(t.TempDir())
	require.NoError(t, err)

	_, err = j.Write(filepath.Join("out", "b.txt"), []byte("b"))
	require.NoError(t, err)
	_, err = j.Write(filepath.Join("out", "a.txt"), []byte("a"))
	require.NoError(t, err)
	_, err = j.Write(filepath.Join("out", "nested", "c.txt"), []byte("c"))
	require.NoError(t, err)

	names, err := j.ListFiles("out")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names)
}

func TestListFiles_MissingDirectoryIsEmptyNotError(t *testing.T) {
	j, err := Create(t.TempDir())
	require.NoError(t, err)

	names, err := j.ListFiles("nonexistent")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestDestroy_RemovesDirectory(t *testing.T) {
	j, err := Create(t.TempDir())
	require.NoError(t, err)

	j.Destroy(nil)
	assert.NoDirExists(t, j.Path)
}
