package dispatch

import "errors"

// ErrUnknownJob is returned when a JobId has no associated state or result,
// distinguishing a 404 (unknown id) from a 202 (still running).
var ErrUnknownJob = errors.New("unknown job id")
