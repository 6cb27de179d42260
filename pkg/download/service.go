// Package download implements the Download Service (§4.6): given a
// completed job's output files, stream a single file as an attachment or,
// for more than one, a ZIP archive built into a spill-to-disk buffer so an
// arbitrarily large result set never forces the whole archive into memory.
package download

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/coderunner/sandbox/pkg/objectstore"
)

// Entry pairs a storage object with the name it should carry in the
// downloaded result (the file's basename inside the ZIP, or as the
// Content-Disposition filename for a single file).
type Entry struct {
	JobID       string
	StorageName string
	ArchiveName string
}

// ErrNoOutputs is returned when a job produced zero output files: the HTTP
// layer maps this to 404.
var ErrNoOutputs = errors.New("job produced no output files")

// Result is what the HTTP handler streams back: a reader, the filename to
// report, and whether it is a ZIP archive (for Content-Type).
type Result struct {
	Reader   io.ReadCloser
	Filename string
	IsZip    bool
}

// Build assembles the download for a completed job's output entries.
// A single entry streams directly from the store; more than one is bundled
// into a ZIP, with any entry missing at stream time recorded in
// MISSING_FILES.txt rather than failing the whole download.
func Build(ctx context.Context, store objectstore.Store, entries []Entry, zipName string) (*Result, error) {
	if len(entries) == 0 {
		return nil, ErrNoOutputs
	}

	if len(entries) == 1 {
		e := entries[0]
		r, err := store.Get(ctx, e.JobID, e.StorageName)
		if errors.Is(err, objectstore.ErrNotFound) {
			return nil, ErrNoOutputs
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open %q: %w", e.StorageName, err)
		}
		return &Result{Reader: r, Filename: e.ArchiveName}, nil
	}

	spool := newSpoolBuffer()
	zw := zip.NewWriter(spool)

	var missing []string
	for _, e := range entries {
		r, err := store.Get(ctx, e.JobID, e.StorageName)
		if errors.Is(err, objectstore.ErrNotFound) {
			missing = append(missing, e.ArchiveName)
			continue
		}
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to open %q: %w", e.StorageName, err)
		}

		w, err := zw.Create(e.ArchiveName)
		if err != nil {
			r.Close()
			zw.Close()
			return nil, fmt.Errorf("failed to add %q to archive: %w", e.ArchiveName, err)
		}
		_, copyErr := io.Copy(w, r)
		r.Close()
		if copyErr != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to write %q into archive: %w", e.ArchiveName, copyErr)
		}
	}

	if len(missing) > 0 {
		note := "The following files were not found at download time:\n"
		for _, name := range missing {
			note += "- " + name + "\n"
		}
		w, err := zw.Create("MISSING_FILES.txt")
		if err == nil {
			io.Copy(w, strings.NewReader(note))
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	reader, err := spool.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to read back archive: %w", err)
	}

	return &Result{Reader: reader, Filename: zipName, IsZip: true}, nil
}
