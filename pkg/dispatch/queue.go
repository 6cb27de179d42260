// Package dispatch provides the opaque job-dispatch interface (§5) that
// decouples HTTP front-end request handlers from the worker pool: a
// submission becomes a Job, pushed onto a queue, popped by a worker, and
// the TaskResult written back to a result store keyed by JobId.
package dispatch

import (
	"context"
	"time"

	"github.com/coderunner/sandbox/pkg/sandbox"
)

// JobState is a job's position in the queue's state machine, surfaced at
// GET /task/{id}/task_result while non-terminal.
type JobState string

const (
	StateAccepted JobState = "accepted"
	StateRunning  JobState = "running"
	StateDone     JobState = "done"
)

// Job is the unit of work placed on the queue.
type Job struct {
	ID              sandbox.JobID
	LanguageLabel   string
	SourceCode      string
	DeclaredOutputs []string
	WithFiles       bool
}

// Queue is the opaque job-dispatch interface. Front-end handlers call
// Submit; workers call Fetch in a loop; both sides call the result-store
// half to publish and read a finished TaskResult.
type Queue interface {
	Submit(ctx context.Context, job Job) error
	// Fetch blocks up to timeout waiting for a job, returning nil with no
	// error on a plain timeout (empty queue).
	Fetch(ctx context.Context, timeout time.Duration) (*Job, error)

	SetState(ctx context.Context, jobID sandbox.JobID, state JobState) error
	GetState(ctx context.Context, jobID sandbox.JobID) (JobState, error)

	PutResult(ctx context.Context, jobID sandbox.JobID, result sandbox.TaskResult) error
	GetResult(ctx context.Context, jobID sandbox.JobID) (*sandbox.TaskResult, error)
}
