package scheduler

import (
	"context"

	"github.com/fortemi/matric/internal/jobq"
)

// ProgressFunc lets a handler report fractional progress without knowing
// anything about the event bus that eventually carries it.
type ProgressFunc func(fraction float64, message string)

// JobContext exposes everything a handler needs: the claimed job row, and
// a progress callback. Handlers are expected to derive their own typed
// payload by unmarshalling Job.Payload.
type JobContext struct {
	Job      *jobq.Job
	Progress ProgressFunc
}

// Handler executes one job type. Implementations must assume they may be
// cancelled at any suspension point (database round-trip, file I/O,
// subprocess, HTTP call) when ctx expires.
type Handler interface {
	Execute(ctx context.Context, jc *JobContext) jobq.Result
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, jc *JobContext) jobq.Result

// Execute calls f.
func (f HandlerFunc) Execute(ctx context.Context, jc *JobContext) jobq.Result { return f(ctx, jc) }

// Registry maps job types to the handler that processes them.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register associates jobType with handler. A later call for the same
// type overwrites the earlier registration.
func (r *Registry) Register(jobType string, handler Handler) {
	r.handlers[jobType] = handler
}

// Lookup returns the handler for jobType, or nil if none is registered.
func (r *Registry) Lookup(jobType string) Handler {
	return r.handlers[jobType]
}

// Types returns every registered job type, used to scope tier claims to
// types the running process actually knows how to execute.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	return types
}
