// Package scheduler implements the C8 job scheduler: an event-driven,
// tiered, concurrent drain loop over the C9 job queue. It never touches
// archive-scoped tables directly; every handler opens its own
// archive.SchemaContext from the job payload's schema key.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/fortemi/matric/internal/jobq"
	"github.com/fortemi/matric/internal/matriclog"
)

// WarmupBackend is implemented by a GPU-backed inference backend so the
// scheduler can ensure exactly one generation model is resident per tier
// window before draining that tier, avoiding GPU-memory thrashing.
type WarmupBackend interface {
	Warmup(ctx context.Context) error
}

// Config tunes the drain loop.
type Config struct {
	MaxConcurrent  int
	PollInterval   time.Duration // safety-net timer
	JobTimeout     time.Duration
	MaxRetries     int
}

// Scheduler owns the drain loop. Construct one per process.
type Scheduler struct {
	queue      *jobq.Queue
	registry   *Registry
	pause      *PauseState
	bus        *Bus
	wake       WakeNotifier
	fastGPU    WarmupBackend
	standardGPU WarmupBackend
	cfg        Config
	log        *matriclog.Context
}

// New wires a Scheduler. fastGPU/standardGPU may be nil if no provider is
// configured for that tier; a nil backend's Warmup is simply skipped.
func New(queue *jobq.Queue, registry *Registry, pause *PauseState, bus *Bus, wake WakeNotifier, fastGPU, standardGPU WarmupBackend, cfg Config, log *matriclog.Context) *Scheduler {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 60 * time.Second
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	return &Scheduler{
		queue: queue, registry: registry, pause: pause, bus: bus, wake: wake,
		fastGPU: fastGPU, standardGPU: standardGPU, cfg: cfg, log: log,
	}
}

// Run blocks, draining jobs until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	var wakeCh <-chan struct{}
	var stopListen func()
	if s.wake != nil {
		wakeCh, stopListen = s.wake.Listen(ctx)
		defer stopListen()
	}

	timer := time.NewTimer(s.cfg.PollInterval)
	defer timer.Stop()

	s.bus.Publish(Event{Kind: EventWorkerStarted, Timestamp: time.Now()})
	defer s.bus.Publish(Event{Kind: EventWorkerStopped, Timestamp: time.Now()})

	for {
		select {
		case <-ctx.Done():
			return
		case <-wakeCh:
		case <-timer.C:
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(s.cfg.PollInterval)

		if s.pause.IsGloballyPaused() {
			continue
		}
		s.drainRound(ctx)
	}
}

// drainRound runs steps 3-8 of the main loop once: repeated tiered drains
// until a full pass over every tier produces nothing.
func (s *Scheduler) drainRound(ctx context.Context) {
	excluded := s.pause.PausedArchiveNames()
	types := s.registry.Types()

	for {
		produced := false

		if s.drainTier(ctx, jobq.TierCPU, types, excluded) {
			produced = true
		}

		if s.pause.IsGloballyPaused() {
			return
		}
		if pending, _ := s.queue.PendingCountForTier(ctx, jobq.TierFastGPU); pending > 0 {
			if s.fastGPU != nil {
				if err := s.fastGPU.Warmup(ctx); err != nil {
					s.log.WithError(err).Warn("fast gpu backend warmup failed")
				}
			}
			if s.drainTier(ctx, jobq.TierFastGPU, types, excluded) {
				produced = true
			}
		}

		if s.pause.IsGloballyPaused() {
			return
		}
		if pending, _ := s.queue.PendingCountForTier(ctx, jobq.TierStandard); pending > 0 {
			if s.standardGPU != nil {
				if err := s.standardGPU.Warmup(ctx); err != nil {
					s.log.WithError(err).Warn("standard gpu backend warmup failed")
				}
			}
			if s.drainTier(ctx, jobq.TierStandard, types, excluded) {
				produced = true
			}
		}

		if !produced {
			return
		}
	}
}

// drainTier repeatedly claims up to MaxConcurrent jobs in tier and runs
// them concurrently until no more eligible jobs remain. It returns true if
// at least one job was claimed this call.
func (s *Scheduler) drainTier(ctx context.Context, tier jobq.Tier, types, excluded []string) bool {
	any := false
	for {
		batch := s.claimBatch(ctx, tier, types, excluded, s.cfg.MaxConcurrent)
		if len(batch) == 0 {
			return any
		}
		any = true

		var wg sync.WaitGroup
		for _, job := range batch {
			wg.Add(1)
			go func(j *jobq.Job) {
				defer wg.Done()
				s.runJob(ctx, j)
			}(job)
		}
		wg.Wait()
	}
}

func (s *Scheduler) claimBatch(ctx context.Context, tier jobq.Tier, types, excluded []string, max int) []*jobq.Job {
	var batch []*jobq.Job
	for i := 0; i < max; i++ {
		job, err := s.queue.ClaimNextForTierExcluding(ctx, tier, types, excluded)
		if err != nil {
			s.log.WithError(err).Warn("claim job failed")
			break
		}
		if job == nil {
			break
		}
		batch = append(batch, job)
	}
	return batch
}

// runJob executes one claimed job under a hard timeout, recovering from a
// handler panic so it never takes down the worker process.
func (s *Scheduler) runJob(ctx context.Context, job *jobq.Job) {
	jobLog := s.log.WithFields(map[string]any{"job_id": job.ID, "job_type": job.Type})

	handler := s.registry.Lookup(job.Type)
	if handler == nil {
		jobLog.Error("no handler registered for job type")
		_ = s.queue.Fail(ctx, job.ID, "no handler registered for job type "+job.Type)
		return
	}

	if err := s.queue.MarkRunning(ctx, job.ID); err != nil {
		jobLog.WithError(err).Warn("mark job running failed")
	}
	s.bus.Publish(Event{Kind: EventJobStarted, JobID: job.ID, JobType: job.Type, Timestamp: time.Now()})

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	result := s.executeWithRecover(runCtx, job, jobLog)

	switch result.Outcome {
	case jobq.OutcomeSuccess:
		if err := s.queue.Complete(ctx, job.ID, result.Payload); err != nil {
			jobLog.WithError(err).Warn("complete job failed")
		}
		s.bus.Publish(Event{Kind: EventJobCompleted, JobID: job.ID, JobType: job.Type, Timestamp: time.Now()})
	case jobq.OutcomeRetry:
		if job.AttemptCount+1 >= s.cfg.MaxRetries {
			if err := s.queue.Fail(ctx, job.ID, "max retries exceeded: "+result.Reason); err != nil {
				jobLog.WithError(err).Warn("fail job failed")
			}
			s.bus.Publish(Event{Kind: EventJobFailed, JobID: job.ID, JobType: job.Type, Message: result.Reason, Timestamp: time.Now()})
			return
		}
		if err := s.queue.Retry(ctx, job.ID, job.AttemptCount+1, result.Reason); err != nil {
			jobLog.WithError(err).Warn("retry job failed")
		}
	default:
		if err := s.queue.Fail(ctx, job.ID, result.Reason); err != nil {
			jobLog.WithError(err).Warn("fail job failed")
		}
		s.bus.Publish(Event{Kind: EventJobFailed, JobID: job.ID, JobType: job.Type, Message: result.Reason, Timestamp: time.Now()})
	}
}

func (s *Scheduler) executeWithRecover(ctx context.Context, job *jobq.Job, jobLog *matriclog.Context) (result jobq.Result) {
	defer func() {
		if r := recover(); r != nil {
			jobLog.Errorf("job handler panicked: %v", r)
			result = jobq.Result{Outcome: jobq.OutcomeFailed, Reason: "handler panic"}
		}
	}()

	handler := s.registry.Lookup(job.Type)
	jc := &JobContext{
		Job: job,
		Progress: func(fraction float64, message string) {
			s.bus.Publish(Event{Kind: EventJobProgress, JobID: job.ID, JobType: job.Type, Progress: fraction, Message: message, Timestamp: time.Now()})
		},
	}
	return handler.Execute(ctx, jc)
}
