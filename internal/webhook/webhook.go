// Package webhook implements the C10 webhook dispatcher: subscription
// storage in the global namespace plus signed HTTP delivery, following the
// same "one façade over the global pool" shape as internal/jobq.
package webhook

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fortemi/matric/internal/matricerr"
)

// autoDisableThreshold is the default consecutive-failure count at which a
// subscription is automatically deactivated (spec §4.10: "failure_count >=
// max_retries_threshold (default 10)").
const autoDisableThreshold = 10

// Webhook is one outbound notification subscription.
type Webhook struct {
	ID               string
	URL              string
	Secret           *string
	Events           []string // empty slice means "all events"
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	LastTriggeredAt  *time.Time
	FailureCount     int
	MaxRetries       int
}

// Delivery is one recorded delivery attempt.
type Delivery struct {
	ID           string
	WebhookID    string
	EventType    string
	Payload      []byte
	StatusCode   *int
	ResponseBody *string
	DeliveredAt  time.Time
	Success      bool
}

// CreateRequest is the input to Repository.Create.
type CreateRequest struct {
	URL        string
	Secret     *string
	Events     []string
	MaxRetries int
}

// Repository is the C10 façade over the global webhook/webhook_delivery
// tables. It touches the database outside any SchemaContext, like
// internal/jobq.Queue, because subscriptions are global, not per-archive.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wraps an already-connected pool.
func NewRepository(pool *pgxpool.Pool) *Repository { return &Repository{pool: pool} }

// Create registers a new subscription and returns its id.
func (r *Repository) Create(ctx context.Context, req CreateRequest) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO webhook (url, secret, events, max_retries, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id
	`, req.URL, req.Secret, req.Events, req.MaxRetries).Scan(&id)
	if err != nil {
		return "", matricerr.Databasef(err, "create webhook")
	}
	return id, nil
}

// Get fetches one webhook by id.
func (r *Repository) Get(ctx context.Context, id string) (*Webhook, error) {
	w, err := scanWebhook(r.pool.QueryRow(ctx, `
		SELECT id, url, secret, events, is_active, created_at, updated_at,
		       last_triggered_at, failure_count, max_retries
		FROM webhook WHERE id = $1
	`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, matricerr.NotFoundf("webhook not found: %s", id)
		}
		return nil, matricerr.Databasef(err, "get webhook %s", id)
	}
	return w, nil
}

// List returns every webhook, newest first.
func (r *Repository) List(ctx context.Context) ([]*Webhook, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, url, secret, events, is_active, created_at, updated_at,
		       last_triggered_at, failure_count, max_retries
		FROM webhook ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, matricerr.Databasef(err, "list webhooks")
	}
	defer rows.Close()
	return collectWebhooks(rows)
}

// ListActiveForEvent returns active subscriptions matching eventType,
// per spec §4.10's selection rule: is_active AND (eventType in events OR
// events is empty).
func (r *Repository) ListActiveForEvent(ctx context.Context, eventType string) ([]*Webhook, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, url, secret, events, is_active, created_at, updated_at,
		       last_triggered_at, failure_count, max_retries
		FROM webhook
		WHERE is_active = true AND ($1 = ANY(events) OR events = '{}')
	`, eventType)
	if err != nil {
		return nil, matricerr.Databasef(err, "list active webhooks for event %s", eventType)
	}
	defer rows.Close()
	return collectWebhooks(rows)
}

// Delete removes a subscription.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM webhook WHERE id = $1`, id); err != nil {
		return matricerr.Databasef(err, "delete webhook %s", id)
	}
	return nil
}

// Update applies only the non-nil fields, leaving the rest unchanged.
func (r *Repository) Update(ctx context.Context, id string, url *string, events []string, secret *string, isActive *bool) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE webhook SET
			url = COALESCE($1, url),
			events = COALESCE($2, events),
			secret = COALESCE($3, secret),
			is_active = COALESCE($4, is_active),
			updated_at = now()
		WHERE id = $5
	`, url, events, secret, isActive, id)
	if err != nil {
		return matricerr.Databasef(err, "update webhook %s", id)
	}
	return nil
}

// RecordDelivery persists one delivery attempt and updates the
// subscription's failure tracking: success resets failure_count to 0;
// failure increments it and, once it reaches autoDisableThreshold, flips
// is_active to false in the same statement (spec §4.10 "Delivery").
func (r *Repository) RecordDelivery(ctx context.Context, webhookID, eventType string, payload []byte, statusCode *int, responseBody *string, success bool) error {
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO webhook_delivery (webhook_id, event_type, payload, status_code, response_body, success)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, webhookID, eventType, payload, statusCode, responseBody, success); err != nil {
		return matricerr.Databasef(err, "record webhook delivery for %s", webhookID)
	}

	if success {
		_, err := r.pool.Exec(ctx, `
			UPDATE webhook SET last_triggered_at = now(), failure_count = 0, updated_at = now() WHERE id = $1
		`, webhookID)
		if err != nil {
			return matricerr.Databasef(err, "reset webhook failure count %s", webhookID)
		}
		return nil
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE webhook SET failure_count = failure_count + 1, updated_at = now(),
			is_active = CASE WHEN failure_count + 1 >= $2 THEN false ELSE is_active END
		WHERE id = $1
	`, webhookID, autoDisableThreshold)
	if err != nil {
		return matricerr.Databasef(err, "increment webhook failure count %s", webhookID)
	}
	return nil
}

// ListDeliveries returns the most recent deliveries for a webhook, newest
// first, truncated to limit.
func (r *Repository) ListDeliveries(ctx context.Context, webhookID string, limit int) ([]*Delivery, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, webhook_id, event_type, payload, status_code, response_body, delivered_at, success
		FROM webhook_delivery WHERE webhook_id = $1 ORDER BY delivered_at DESC LIMIT $2
	`, webhookID, limit)
	if err != nil {
		return nil, matricerr.Databasef(err, "list deliveries for webhook %s", webhookID)
	}
	defer rows.Close()

	var out []*Delivery
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(&d.ID, &d.WebhookID, &d.EventType, &d.Payload, &d.StatusCode, &d.ResponseBody, &d.DeliveredAt, &d.Success); err != nil {
			return nil, matricerr.Databasef(err, "scan delivery row")
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWebhook(row rowScanner) (*Webhook, error) {
	var w Webhook
	err := row.Scan(&w.ID, &w.URL, &w.Secret, &w.Events, &w.IsActive, &w.CreatedAt, &w.UpdatedAt,
		&w.LastTriggeredAt, &w.FailureCount, &w.MaxRetries)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func collectWebhooks(rows pgx.Rows) ([]*Webhook, error) {
	var out []*Webhook
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, matricerr.Databasef(err, "scan webhook row")
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
