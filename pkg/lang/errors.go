package lang

import "fmt"

// UnsupportedLanguageError is returned by Normalize when a label does not
// resolve to any entry in the registry.
type UnsupportedLanguageError struct {
	Label  string
	Reason string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("%q is not a supported programming language: %s", e.Label, e.Reason)
}
