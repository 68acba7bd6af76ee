package humanize

import (
	"context"
	"errors"
)

// ErrJobFailed marks a provider answer that makes further polling pointless.
var ErrJobFailed = errors.New("provider job failed")

// JobHandle identifies one provider submission.
type JobHandle struct {
	ID string
}

// Options are passed to the provider untouched.
type Options struct {
	Readability string `json:"readability"`
	Purpose     string `json:"purpose"`
	Strength    string `json:"strength"`
}

// Provider is the external humanization service.
type Provider interface {
	// Submit makes exactly one submission attempt. Errors wrap ErrInsufficientCredits or ErrTransport.
	Submit(ctx context.Context, text string, opts Options) (JobHandle, error)
	// Document queries a job once. An empty output means the job is not ready yet.
	Document(ctx context.Context, h JobHandle) (string, error)
}

// JobStatus is the lifecycle of a polled job.
type JobStatus int

const (
	JobPending JobStatus = iota
	JobReady
	JobTimedOut
)

func (s JobStatus) String() string {
	switch s {
	case JobReady:
		return "ready"
	case JobTimedOut:
		return "timed_out"
	default:
		return "pending"
	}
}

// Job tracks one handle while it is being polled. It is never persisted.
type Job struct {
	Handle   JobHandle
	Status   JobStatus
	Output   string
	Attempts int
}
