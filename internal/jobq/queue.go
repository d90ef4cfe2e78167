package jobq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fortemi/matric/internal/matricerr"
)

// Queue is the C9 façade over the global job table. It is the only piece
// of this engine that touches the database outside a SchemaContext,
// because jobs are deliberately not scoped to any one archive.
type Queue struct {
	pool *pgxpool.Pool
}

// NewQueue wraps an already-connected pool.
func NewQueue(pool *pgxpool.Pool) *Queue { return &Queue{pool: pool} }

// Enqueue inserts a new pending job and returns its id. payload MUST
// already contain a "schema" key; callers that build payloads from
// per-archive operations are responsible for setting it.
func (q *Queue) Enqueue(ctx context.Context, noteID, jobType string, tier Tier, priority int, payload any, maxRetries int) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", matricerr.InvalidInputf("marshal job payload: %v", err)
	}

	var partial struct {
		Schema string `json:"schema"`
	}
	if err := json.Unmarshal(body, &partial); err != nil || partial.Schema == "" {
		return "", matricerr.InvalidInputf("job payload for type %q must contain a non-empty schema key", jobType)
	}

	var id string
	err = q.pool.QueryRow(ctx, `
		INSERT INTO job (note_id, type, tier, priority, status, payload, max_retries, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING id
	`, noteID, jobType, int(tier), priority, StatusPending, body, maxRetries).Scan(&id)
	if err != nil {
		return "", matricerr.Databasef(err, "enqueue job type %s", jobType)
	}
	return id, nil
}

// ClaimNextForTier atomically claims the highest-priority, oldest eligible
// pending job in tier whose type is in types (or any type if types is
// empty), using FOR UPDATE SKIP LOCKED so concurrent workers never
// contend on the same row.
func (q *Queue) ClaimNextForTier(ctx context.Context, tier Tier, types []string) (*Job, error) {
	return q.ClaimNextForTierExcluding(ctx, tier, types, nil)
}

// ClaimNextForTierExcluding is ClaimNextForTier with a set of archive
// schemas to skip, used to honour per-archive pause state for this round
// without re-querying PauseState per row.
func (q *Queue) ClaimNextForTierExcluding(ctx context.Context, tier Tier, types []string, excludedSchemas []string) (*Job, error) {
	var args []any
	query := strings.Builder{}
	query.WriteString(`
		UPDATE job SET status = $1, claimed_at = now(), updated_at = now()
		WHERE id = (
			SELECT id FROM job
			WHERE status = $2 AND tier = $3 AND scheduled_at <= now()
	`)
	args = append(args, StatusClaimed, StatusPending, int(tier))

	if len(types) > 0 {
		query.WriteString(fmt.Sprintf(" AND type = ANY($%d)", len(args)+1))
		args = append(args, types)
	}
	if len(excludedSchemas) > 0 {
		query.WriteString(fmt.Sprintf(" AND NOT (payload->>'schema' = ANY($%d))", len(args)+1))
		args = append(args, excludedSchemas)
	}
	query.WriteString(`
			ORDER BY priority DESC, created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, note_id, type, tier, priority, status, payload, result, error,
		          attempt_count, max_retries, scheduled_at, created_at, updated_at, claimed_at, completed_at
	`)

	row := q.pool.QueryRow(ctx, query.String(), args...)
	var j Job
	var tierInt int
	err := row.Scan(
		&j.ID, &j.NoteID, &j.Type, &tierInt, &j.Priority, &j.Status, &j.Payload, &j.Result, &j.Error,
		&j.AttemptCount, &j.MaxRetries, &j.ScheduledAt, &j.CreatedAt, &j.UpdatedAt, &j.ClaimedAt, &j.CompletedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, matricerr.Databasef(err, "claim job for tier %d", tier)
	}
	j.Tier = Tier(tierInt)
	return &j, nil
}

// Complete records a successful result and marks the job completed.
func (q *Queue) Complete(ctx context.Context, id string, result any) error {
	var resultJSON []byte
	if result != nil {
		var err error
		resultJSON, err = json.Marshal(result)
		if err != nil {
			return matricerr.InvalidInputf("marshal job result: %v", err)
		}
	}
	tag, err := q.pool.Exec(ctx, `
		UPDATE job SET status = $2, result = $3, completed_at = now(), updated_at = now()
		WHERE id = $1
	`, id, StatusCompleted, resultJSON)
	if err != nil {
		return matricerr.Databasef(err, "complete job %s", id)
	}
	if tag.RowsAffected() == 0 {
		return matricerr.NotFoundf("job not found: %s", id)
	}
	return nil
}

// Fail records a terminal failure. Retry scheduling (re-queue with
// backoff) is handled by the scheduler, which calls Retry instead when the
// handler reports a transient error.
func (q *Queue) Fail(ctx context.Context, id, reason string) error {
	tag, err := q.pool.Exec(ctx, `
		UPDATE job SET status = $2, error = $3, completed_at = now(), updated_at = now()
		WHERE id = $1
	`, id, StatusFailed, reason)
	if err != nil {
		return matricerr.Databasef(err, "fail job %s", id)
	}
	if tag.RowsAffected() == 0 {
		return matricerr.NotFoundf("job not found: %s", id)
	}
	return nil
}

// Retry re-queues a job for another attempt, incrementing attempt_count and
// pushing scheduled_at out by RetryBackoff(nextAttempt) so
// ClaimNextForTierExcluding can't reclaim it before the backoff elapses.
// nextAttempt is the attempt_count value this retry is about to produce
// (i.e. the job's current attempt_count + 1); the caller (scheduler) is
// still responsible for honouring max_retries before calling Retry at all.
func (q *Queue) Retry(ctx context.Context, id string, nextAttempt int, reason string) error {
	delay := RetryBackoff(nextAttempt)
	tag, err := q.pool.Exec(ctx, `
		UPDATE job
		SET status = $2, error = $3, attempt_count = attempt_count + 1, updated_at = now(),
		    scheduled_at = now() + ($4 * interval '1 second')
		WHERE id = $1
	`, id, StatusPending, reason, delay.Seconds())
	if err != nil {
		return matricerr.Databasef(err, "retry job %s", id)
	}
	if tag.RowsAffected() == 0 {
		return matricerr.NotFoundf("job not found: %s", id)
	}
	return nil
}

// MarkRunning transitions a claimed job into the running state once a
// worker goroutine has actually picked it up.
func (q *Queue) MarkRunning(ctx context.Context, id string) error {
	_, err := q.pool.Exec(ctx, `UPDATE job SET status = $2, updated_at = now() WHERE id = $1`, id, StatusRunning)
	if err != nil {
		return matricerr.Databasef(err, "mark job running %s", id)
	}
	return nil
}

// PendingCount returns the number of pending jobs across all tiers.
func (q *Queue) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := q.pool.QueryRow(ctx, `SELECT count(*) FROM job WHERE status = $1`, StatusPending).Scan(&n)
	if err != nil {
		return 0, matricerr.Databasef(err, "pending count")
	}
	return n, nil
}

// PendingCountForTier returns the number of pending jobs in one tier.
func (q *Queue) PendingCountForTier(ctx context.Context, tier Tier) (int, error) {
	var n int
	err := q.pool.QueryRow(ctx, `SELECT count(*) FROM job WHERE status = $1 AND tier = $2`, StatusPending, int(tier)).Scan(&n)
	if err != nil {
		return 0, matricerr.Databasef(err, "pending count for tier %d", tier)
	}
	return n, nil
}
