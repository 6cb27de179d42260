package objectstore

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_PutGetRoundTrip(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "job-1", "a.txt", []byte("hello")))

	r, err := s.Get(context.Background(), "job-1", "a.txt")
	require.NoError(t, err)
	defer r.Close()

	content, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}

func TestLocalStore_Get_MissingReturnsErrNotFound(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "job-1", "missing.txt")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_List_SortedAndNonRecursive(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(root)
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "job-1", "b.txt", []byte("b")))
	require.NoError(t, s.Put(context.Background(), "job-1", "a.txt", []byte("a")))

	names, err := s.List(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names)
}

func TestLocalStore_List_MissingNamespaceIsEmpty(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	names, err := s.List(context.Background(), "never-created")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_Delete_RemovesNamespace(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(root)
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "job-1", "a.txt", []byte("a")))
	require.NoError(t, s.Delete(context.Background(), "job-1"))

	assert.NoDirExists(t, filepath.Join(root, "job-1"))
}

func TestLocalStore_Delete_MissingNamespaceIsNotError(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, s.Delete(context.Background(), "never-created"))
}

func TestLocalStore_Root(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(root)
	require.NoError(t, err)
	assert.Equal(t, root, s.Root())
}
