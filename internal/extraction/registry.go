package extraction

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// RegistrableAdapter is what Registry.Register requires: an adapter that
// can both extract and describe which inputs it claims.
type RegistrableAdapter interface {
	Adapter
	Selector
}

// Registry selects and runs extraction adapters. It is built once at
// process start-up and shared immutably; adapters carry no per-call state.
type Registry struct {
	adapters []RegistrableAdapter
	byName   map[Strategy]RegistrableAdapter
	fallback RegistrableAdapter
}

// NewRegistry creates an empty registry. fallback is used when no adapter
// claims an input (step 5 of the selection order); it is typically a
// text_native adapter.
func NewRegistry(fallback RegistrableAdapter) *Registry {
	r := &Registry{byName: make(map[Strategy]RegistrableAdapter), fallback: fallback}
	if fallback != nil {
		r.Register(fallback)
	}
	return r
}

// Register adds an adapter. Registration order only affects tie-breaking
// within a single selection step (first registered wins).
func (r *Registry) Register(a RegistrableAdapter) {
	r.adapters = append(r.adapters, a)
	r.byName[a.Strategy()] = a
}

// Lookup returns the adapter registered for strategy, or nil.
func (r *Registry) Lookup(strategy Strategy) RegistrableAdapter {
	return r.byName[strategy]
}

// Select implements the C7 adapter selection order: (1) exact filename
// match, (2) MIME match, (3) extension match, (4) content magic-pattern
// match, (5) default (the registry's fallback adapter).
func (r *Registry) Select(filename, mimeType string, data []byte) RegistrableAdapter {
	for _, a := range r.adapters {
		for _, name := range a.ExactFilenames() {
			if name == filename {
				return a
			}
		}
	}

	for _, a := range r.adapters {
		for _, prefix := range a.MimePrefixes() {
			if strings.HasPrefix(mimeType, prefix) {
				return a
			}
		}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext != "" {
		for _, a := range r.adapters {
			for _, want := range a.Extensions() {
				if want == ext {
					return a
				}
			}
		}
	}

	for _, a := range r.adapters {
		if a.MatchesMagic(data) {
			return a
		}
	}

	return r.fallback
}

// Extract selects the appropriate adapter for in and runs it.
func (r *Registry) Extract(ctx context.Context, in Input) (Result, Strategy, error) {
	adapter := r.Select(in.Filename, in.MimeType, in.Bytes)
	if adapter == nil {
		return Result{}, "", fmt.Errorf("no extraction adapter available and no fallback configured")
	}
	if len(in.Bytes) == 0 {
		return Result{}, adapter.Strategy(), fmt.Errorf("extraction input is empty")
	}
	result, err := adapter.Extract(ctx, in)
	return result, adapter.Strategy(), err
}
