// Package objectstore provides the object-addressed file store backing
// STORAGE_IN and STORAGE_OUT: a per-JobId directory holding uploaded input
// files and produced output files, either on the local filesystem or in a
// remote object store depending on SAVING_MODE.
package objectstore

import (
	"context"
	"io"
)

// Store puts and gets named objects under a JobId namespace. Both
// implementations (local filesystem, S3) satisfy the same interface so the
// coordinator and HTTP handlers never branch on SAVING_MODE themselves.
type Store interface {
	// Put writes content under jobID/name.
	Put(ctx context.Context, jobID, name string, content []byte) error
	// Get opens jobID/name for reading. The caller must Close the reader.
	// Returns ErrNotFound if no such object exists.
	Get(ctx context.Context, jobID, name string) (io.ReadCloser, error)
	// List returns the object names directly under jobID, sorted ascending.
	List(ctx context.Context, jobID string) ([]string, error)
	// Delete removes every object under jobID. Missing namespaces are not
	// an error.
	Delete(ctx context.Context, jobID string) error
}

// SavingMode selects which Store implementation backs STORAGE_IN/STORAGE_OUT.
type SavingMode string

const (
	SavingModeLocal             SavingMode = "local"
	SavingModeRemoteObjectStore SavingMode = "remote-object-store"
)
