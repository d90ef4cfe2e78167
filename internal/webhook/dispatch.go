package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/fortemi/matric/internal/matriclog"
)

// responseBodyTruncateLimit bounds how much of a delivery's response body
// is persisted (spec §4.10: "response_body (truncated)").
const responseBodyTruncateLimit = 4096

// Dispatcher delivers events to subscribed webhooks and records the
// outcome via Repository.RecordDelivery.
type Dispatcher struct {
	repo    *Repository
	client  *http.Client
	log     *matriclog.Context
}

// NewDispatcher builds a dispatcher with the given per-attempt timeout.
func NewDispatcher(repo *Repository, timeout time.Duration, log *matriclog.Context) *Dispatcher {
	return &Dispatcher{
		repo:   repo,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Dispatch delivers eventType/payload to every active subscription whose
// events match, sequentially. Each delivery's outcome is recorded
// regardless of success; a delivery failure never aborts delivery to the
// remaining subscriptions.
func (d *Dispatcher) Dispatch(ctx context.Context, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	hooks, err := d.repo.ListActiveForEvent(ctx, eventType)
	if err != nil {
		return err
	}

	for _, hook := range hooks {
		d.deliverOne(ctx, hook, eventType, body)
	}
	return nil
}

func (d *Dispatcher) deliverOne(ctx context.Context, hook *Webhook, eventType string, body []byte) {
	statusCode, responseBody, success, err := d.post(ctx, hook, body)
	if err != nil {
		d.log.WithError(err).WithFields(map[string]any{"webhook_id": hook.ID, "event": eventType}).Warn("webhook delivery failed")
	}

	var statusPtr *int
	if statusCode != 0 {
		statusPtr = &statusCode
	}
	var bodyPtr *string
	if responseBody != "" {
		bodyPtr = &responseBody
	}

	if recErr := d.repo.RecordDelivery(ctx, hook.ID, eventType, body, statusPtr, bodyPtr, success); recErr != nil {
		d.log.WithError(recErr).WithFields(map[string]any{"webhook_id": hook.ID}).Warn("record webhook delivery failed")
	}
}

func (d *Dispatcher) post(ctx context.Context, hook *Webhook, body []byte) (statusCode int, responseBody string, success bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		return 0, "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if hook.Secret != nil && *hook.Secret != "" {
		req.Header.Set("X-Signature", "sha256="+sign(*hook.Secret, body))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, "", false, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyTruncateLimit))
	success = resp.StatusCode >= 200 && resp.StatusCode < 300
	return resp.StatusCode, string(raw), success, nil
}

// sign computes the hex-encoded HMAC-SHA256 of body keyed by secret. This
// stays on crypto/hmac+crypto/sha256 rather than a third-party signing
// library: no pack example signs webhook payloads, and HMAC-SHA256 is a
// one-function stdlib primitive with no meaningful wrapper to adopt.
func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
