package objectstore

import "errors"

// ErrNotFound is returned by Store.Get when the named object does not
// exist under the given JobId namespace.
var ErrNotFound = errors.New("object not found")
