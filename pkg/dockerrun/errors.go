package dockerrun

import "errors"

// ErrRuntimeUnavailable is wrapped into RunResult.Error = LaunchFailed when
// the container runtime cannot be reached at all (daemon down, socket
// missing).
var ErrRuntimeUnavailable = errors.New("container runtime not available")
