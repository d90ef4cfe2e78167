// Package jobq implements the C9 global job queue: a single table shared by
// every archive, with no foreign key to any per-schema note table (the
// schema routing invariant is enforced at claim time by application code,
// never by the RDBMS).
package jobq

import (
	"encoding/json"
	"time"
)

// Status is a job's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusClaimed   Status = "claimed"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Tier groups jobs by the resource they saturate, so the scheduler can
// drain CPU-bound work before waking either GPU backend.
type Tier int

const (
	TierCPU      Tier = 0
	TierFastGPU  Tier = 1
	TierStandard Tier = 2
)

// Job is one row of the global queue. Payload always carries a "schema"
// key identifying which archive namespace the handler must open via
// archive.NewSchemaContext before touching any archive-scoped table.
type Job struct {
	ID           string
	NoteID       *string
	Type         string
	Tier         Tier
	Priority     int
	Status       Status
	Payload      json.RawMessage
	Result       json.RawMessage
	Error        *string
	AttemptCount int
	MaxRetries   int
	ScheduledAt  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClaimedAt    *time.Time
	CompletedAt  *time.Time
}

// RetryBackoff returns the exponential backoff delay before a retried job
// becomes eligible for reclaim again, derived from attemptCount (the job's
// attempt_count after this retry, i.e. the Nth attempt about to be made).
// Doubles from a 30s base and is capped at 30 minutes so a job deep into
// its retry budget doesn't end up waiting for hours between attempts.
func RetryBackoff(attemptCount int) time.Duration {
	const (
		base     = 30 * time.Second
		maxDelay = 30 * time.Minute
	)
	if attemptCount < 1 {
		attemptCount = 1
	}
	shift := attemptCount - 1
	if shift > 20 { // guard against overflow before it ever reaches maxDelay
		return maxDelay
	}
	delay := base << uint(shift)
	if delay <= 0 || delay > maxDelay {
		return maxDelay
	}
	return delay
}

// Schema extracts the mandatory routing key from Payload.
func (j *Job) Schema() (string, error) {
	var partial struct {
		Schema string `json:"schema"`
	}
	if err := json.Unmarshal(j.Payload, &partial); err != nil {
		return "", err
	}
	return partial.Schema, nil
}

// Outcome is what a Handler returns for a claimed job.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailed
	OutcomeRetry
)

// Result is the handler's verdict plus any accompanying data.
type Result struct {
	Outcome Outcome
	Payload json.RawMessage // only meaningful for OutcomeSuccess
	Reason  string          // only meaningful for OutcomeFailed / OutcomeRetry
}
