package sandbox

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrInvalidRequest is the sentinel wrapped by every JobRequest validation
// failure, so callers can distinguish a 400-shaped rejection from an
// execution-time error.
var ErrInvalidRequest = errors.New("invalid job request")

// Validate checks the construction invariants from the data model: upload
// count matches declared input count, every declared name is a pure
// basename, no duplicate basenames, and both lists stay within the
// configured maximums.
func (r *JobRequest) Validate() error {
	if len(r.SourceCode) > MaxSourceBytes {
		return fmt.Errorf("%w: source_code exceeds %d bytes", ErrInvalidRequest, MaxSourceBytes)
	}
	if len(r.DeclaredInputs) > MaxInputFiles {
		return fmt.Errorf("%w: input_files exceeds maximum (%d)", ErrInvalidRequest, MaxInputFiles)
	}
	if len(r.DeclaredOutputs) > MaxOutputFiles {
		return fmt.Errorf("%w: output_files exceeds maximum (%d)", ErrInvalidRequest, MaxOutputFiles)
	}
	if len(r.Uploads) != len(r.DeclaredInputs) {
		return fmt.Errorf("%w: %d uploaded files does not match %d declared input_files",
			ErrInvalidRequest, len(r.Uploads), len(r.DeclaredInputs))
	}

	seen := make(map[string]struct{}, len(r.DeclaredInputs))
	for _, name := range r.DeclaredInputs {
		base := filepath.Base(name)
		if base != name || name == "" || name == "." || name == ".." {
			return fmt.Errorf("%w: declared input filename %q is not a bare basename", ErrInvalidRequest, name)
		}
		if _, dup := seen[base]; dup {
			return fmt.Errorf("%w: duplicate declared input filename %q", ErrInvalidRequest, base)
		}
		seen[base] = struct{}{}
	}

	declared := make(map[string]struct{}, len(r.DeclaredInputs))
	for _, name := range r.DeclaredInputs {
		declared[filepath.Base(name)] = struct{}{}
	}
	uploaded := make(map[string]struct{}, len(r.Uploads))
	for _, u := range r.Uploads {
		uploaded[filepath.Base(u.Name)] = struct{}{}
	}
	if len(r.DeclaredInputs) > 0 || len(r.Uploads) > 0 {
		if len(declared) != len(uploaded) {
			return fmt.Errorf("%w: uploaded filenames don't match declared input_files", ErrInvalidRequest)
		}
		for name := range declared {
			if _, ok := uploaded[name]; !ok {
				return fmt.Errorf("%w: uploaded filenames don't match declared input_files", ErrInvalidRequest)
			}
		}
	}

	return nil
}
