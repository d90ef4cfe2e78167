package extraction

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fortemi/matric/internal/archive"
	"github.com/fortemi/matric/internal/attachment"
	"github.com/fortemi/matric/internal/blobstore"
	"github.com/fortemi/matric/internal/jobq"
	"github.com/fortemi/matric/internal/matriclog"
	"github.com/fortemi/matric/internal/scheduler"
)

// JobType is the C8 job type string routed to this handler.
const JobType = "extract_attachment"

// JobPayload is the expected shape of an extraction job's payload, per the
// C9 global-queue invariant that every payload carries its routing schema.
type JobPayload struct {
	Schema       string          `json:"schema"`
	AttachmentID string          `json:"attachment_id"`
	ConfigJSON   json.RawMessage `json:"config,omitempty"`
}

// Handler runs C7 extraction as a C8 job handler. It opens its own
// archive.SchemaContext per job from the payload's schema key, so it never
// touches archive-scoped tables outside that scope.
type Handler struct {
	pool     *pgxpool.Pool
	backend  blobstore.Backend
	maxSize  int64
	registry *Registry
	log      *matriclog.Context
}

// NewHandler wires an extraction job handler over pool/backend using
// registry to select and run adapters.
func NewHandler(pool *pgxpool.Pool, backend blobstore.Backend, maxSize int64, registry *Registry, log *matriclog.Context) *Handler {
	return &Handler{pool: pool, backend: backend, maxSize: maxSize, registry: registry, log: log}
}

// ProgressFunc has the same (fraction, message) shape as the scheduler's
// progress callback, so Run can be driven without a scheduler.JobContext
// by any job runner that reports progress that way.
type ProgressFunc func(fraction float64, message string)

// Run executes one extraction job, given its decoded payload and a
// best-effort progress reporter.
func (h *Handler) Run(ctx context.Context, payload JobPayload, progress ProgressFunc) (Result, Strategy, error) {
	if payload.Schema == "" {
		return Result{}, "", fmt.Errorf("extraction job payload missing schema")
	}
	if payload.AttachmentID == "" {
		return Result{}, "", fmt.Errorf("extraction job payload missing attachment_id")
	}

	schemaCtx, err := archive.NewSchemaContext(h.pool, payload.Schema, h.log)
	if err != nil {
		return Result{}, "", fmt.Errorf("open schema context: %w", err)
	}
	store := attachment.NewStore(schemaCtx, h.backend, h.maxSize)

	if progress != nil {
		progress(0.1, "fetching attachment bytes")
	}
	data, contentType, filename, err := store.Download(ctx, payload.AttachmentID)
	if err != nil {
		return Result{}, "", fmt.Errorf("download attachment: %w", err)
	}

	if err := store.UpdateStatus(ctx, payload.AttachmentID, attachment.StatusProcessing); err != nil {
		h.log.WithError(err).Warn("mark attachment processing failed")
	}

	if progress != nil {
		progress(0.3, "running extraction adapter")
	}
	result, strategy, err := h.registry.Extract(ctx, Input{
		Bytes:      data,
		Filename:   filename,
		MimeType:   contentType,
		ConfigJSON: payload.ConfigJSON,
	})
	if err != nil {
		if markErr := store.UpdateStatus(ctx, payload.AttachmentID, attachment.StatusFailed); markErr != nil {
			h.log.WithError(markErr).Warn("mark attachment failed status failed")
		}
		return Result{}, strategy, err
	}

	if err := store.SetExtractionStrategy(ctx, payload.AttachmentID, string(strategy)); err != nil {
		h.log.WithError(err).Warn("record extraction strategy failed")
	}
	if len(result.PreviewData) > 0 {
		if err := store.SetHasPreview(ctx, payload.AttachmentID, true); err != nil {
			h.log.WithError(err).Warn("record attachment preview failed")
		}
	}

	if progress != nil {
		progress(0.9, "recording extraction result")
	}
	text := result.ExtractedText
	if text == "" {
		text = result.AIDescription
	}
	if err := store.UpdateExtractedContent(ctx, payload.AttachmentID, text, result.Metadata); err != nil {
		return Result{}, strategy, fmt.Errorf("record extracted content: %w", err)
	}

	if progress != nil {
		progress(1.0, "done")
	}
	return result, strategy, nil
}

// Execute implements scheduler.Handler, decoding jc.Job.Payload as a
// JobPayload and running extraction under the job's own cancellation and
// timeout.
func (h *Handler) Execute(ctx context.Context, jc *scheduler.JobContext) jobq.Result {
	var payload JobPayload
	if err := json.Unmarshal(jc.Job.Payload, &payload); err != nil {
		return jobq.Result{Outcome: jobq.OutcomeFailed, Reason: "invalid extraction job payload: " + err.Error()}
	}

	var progress ProgressFunc
	if jc.Progress != nil {
		progress = ProgressFunc(jc.Progress)
	}

	result, strategy, err := h.Run(ctx, payload, progress)
	return AsJobResult(result, strategy, err)
}

// AsJobResult converts a Handler.Run outcome into the jobq.Result shape C8
// expects from a scheduler.Handler implementation.
func AsJobResult(result Result, strategy Strategy, err error) jobq.Result {
	if err != nil {
		return jobq.Result{Outcome: jobq.OutcomeRetry, Reason: err.Error()}
	}
	payload, marshalErr := json.Marshal(map[string]any{
		"strategy": strategy,
		"metadata": result.Metadata,
	})
	if marshalErr != nil {
		return jobq.Result{Outcome: jobq.OutcomeFailed, Reason: marshalErr.Error()}
	}
	return jobq.Result{Outcome: jobq.OutcomeSuccess, Payload: payload}
}
