package sandbox

import "github.com/google/uuid"

// JobID is a fresh, unpredictable 128-bit identifier minted once per
// submission. It namespaces a job's input and output storage subtrees and
// is never reused.
type JobID string

// NewJobID mints a fresh JobID.
func NewJobID() JobID {
	return JobID(uuid.New().String())
}

func (id JobID) String() string {
	return string(id)
}
