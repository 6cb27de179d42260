package objectstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// LocalStore implements Store directly against a filesystem root. This is
// also the store the Container Invoker mounts identity paths against, so
// jobID must already be a filesystem-safe JobId (pkg/sandbox.NewJobID
// guarantees this).
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if missing.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// Root returns the filesystem root, used by callers that need the literal
// host path for a bind mount rather than the Store abstraction.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) Put(_ context.Context, jobID, name string, content []byte) error {
	dir := filepath.Join(s.root, jobID)
	if err := os.MkdirAll(dir, 0775); err != nil {
		return fmt.Errorf("failed to create job namespace: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, filepath.Base(name)), content, 0644); err != nil {
		return fmt.Errorf("failed to write %q: %w", name, err)
	}
	return nil
}

func (s *LocalStore) Get(_ context.Context, jobID, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, jobID, filepath.Base(name)))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", name, err)
	}
	return f, nil
}

func (s *LocalStore) List(_ context.Context, jobID string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, jobID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list job namespace: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *LocalStore) Delete(_ context.Context, jobID string) error {
	if err := os.RemoveAll(filepath.Join(s.root, jobID)); err != nil {
		return fmt.Errorf("failed to delete job namespace: %w", err)
	}
	return nil
}
