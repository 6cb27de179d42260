package staging

import "fmt"

// UnsafePathError is returned when a write target resolves outside its
// JobDir after symlink resolution.
type UnsafePathError struct {
	RelativePath string
	Resolved     string
}

func (e *UnsafePathError) Error() string {
	return fmt.Sprintf("unsafe path %q resolves to %q, outside job directory", e.RelativePath, e.Resolved)
}
