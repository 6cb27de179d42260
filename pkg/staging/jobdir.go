// Package staging manages the on-disk JobDir: a private, per-job scratch
// directory holding the rewritten source, staged input files, and any
// output files the container produces. Every write is checked against
// path traversal after OS-level symlink resolution, and cleanup is
// best-effort so a failed job never leaks a directory into the next run
// silently.
package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/coderunner/sandbox/pkg/observability"
)

// JobDir is a single job's private scratch directory.
type JobDir struct {
	Path string
}

// Create allocates a fresh, empty JobDir under base/exec. base is created if
// missing.
func Create(base string) (*JobDir, error) {
	execBase := filepath.Join(base, "exec")
	if err := os.MkdirAll(execBase, 0755); err != nil {
		return nil, fmt.Errorf("failed to create exec base directory: %w", err)
	}

	dir, err := os.MkdirTemp(execBase, "job-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve job directory: %w", err)
	}

	return &JobDir{Path: resolved}, nil
}

// Write places content at relativePath inside the JobDir, creating parent
// directories as needed. The resolved parent directory must stay within the
// JobDir's resolved root; anything that escapes via a symlink or traversal
// sequence returns UnsafePathError instead of writing.
func (j *JobDir) Write(relativePath string, content []byte) (string, error) {
	target := filepath.Join(j.Path, relativePath)
	parent := filepath.Dir(target)

	if err := os.MkdirAll(parent, 0755); err != nil {
		return "", fmt.Errorf("failed to create parent directory for %q: %w", relativePath, err)
	}

	resolvedParent, err := filepath.EvalSymlinks(parent)
	if err != nil {
		return "", fmt.Errorf("failed to resolve parent directory for %q: %w", relativePath, err)
	}

	if resolvedParent != j.Path && !strings.HasPrefix(resolvedParent, j.Path+string(filepath.Separator)) {
		return "", &UnsafePathError{RelativePath: relativePath, Resolved: resolvedParent}
	}

	finalPath := filepath.Join(resolvedParent, filepath.Base(target))
	if err := os.WriteFile(finalPath, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write %q: %w", relativePath, err)
	}

	return finalPath, nil
}

// ListFiles returns the regular files found directly under relativeDir
// (non-recursive), sorted by name. A missing directory yields an empty,
// non-error result: output directories that a job's source never populated
// are not a failure.
func (j *JobDir) ListFiles(relativeDir string) ([]string, error) {
	return ListRegularFiles(filepath.Join(j.Path, relativeDir))
}

// ListRegularFiles returns the regular files found directly under dir
// (non-recursive), sorted by name. This is the single enumeration routine
// behind both JobDir.ListFiles and the Job Coordinator's output-file
// collection (§4.5 step 6), which lists a job's output storage directory —
// a tree outside any JobDir — rather than a JobDir-relative path. A
// missing directory yields an empty, non-error result.
func ListRegularFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Destroy removes the JobDir and everything under it. Cleanup failure is
// logged, never propagated: a stuck directory must not fail the job whose
// result has already been computed. log may be nil in tests.
func (j *JobDir) Destroy(log *observability.Logger) {
	if err := os.RemoveAll(j.Path); err != nil && log != nil {
		log.WithField("path", j.Path).WithError(err).Warn("failed to remove job directory")
	}
}
