package pipeline

import "context"

// Candidate is the per-reference outcome of the fetch/normalize/
// validate phase: either a usable PDF byte stream or a drop record
// naming the stage and reason. Drops are never job-fatal on their own.
type Candidate struct {
	Index      int
	URL        string
	Doc        []byte
	DropStage  string
	DropReason string
}

// Usable reports whether the candidate carries a validated document.
func (c Candidate) Usable() bool { return c.DropReason == "" }

func dropped(index int, url, stage, reason string) Candidate {
	return Candidate{Index: index, URL: url, DropStage: stage, DropReason: reason}
}

// Pipeline state machine values, recorded per job when a status store
// is configured.
const (
	StateFetching    = "fetching"
	StateNormalizing = "normalizing"
	StateMerging     = "merging"
	StateUploading   = "uploading"
	StateSucceeded   = "succeeded"
	StateFailed      = "failed"
)

// JobStatus is one job's observable state.
type JobStatus struct {
	State       string `json:"state"`
	Environment string `json:"environment"`
	Error       string `json:"error,omitempty"`
	Key         string `json:"s3_key,omitempty"`
}

// StatusStore records job state transitions. Implementations must
// tolerate concurrent jobs.
type StatusStore interface {
	Set(ctx context.Context, jobID string, st JobStatus) error
}

type nopStatus struct{}

func (nopStatus) Set(context.Context, string, JobStatus) error { return nil }
