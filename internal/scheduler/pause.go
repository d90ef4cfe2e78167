package scheduler

import "sync"

// PauseState tracks a global pause flag plus a set of per-archive schema
// names that are individually paused. It is consulted at the top of each
// drain round and between tier transitions, so a pause takes effect within
// one poll interval at most.
type PauseState struct {
	mu       sync.RWMutex
	global   bool
	archives map[string]bool
}

// NewPauseState returns an unpaused state.
func NewPauseState() *PauseState {
	return &PauseState{archives: make(map[string]bool)}
}

// IsGloballyPaused reports whether all draining is suspended.
func (p *PauseState) IsGloballyPaused() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.global
}

// SetGloballyPaused flips the global pause flag.
func (p *PauseState) SetGloballyPaused(paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.global = paused
}

// PausedArchiveNames returns the schemas currently excluded from claims.
func (p *PauseState) PausedArchiveNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.archives))
	for name, paused := range p.archives {
		if paused {
			names = append(names, name)
		}
	}
	return names
}

// SetArchivePaused pauses or resumes claims for one archive schema.
func (p *PauseState) SetArchivePaused(schema string, paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if paused {
		p.archives[schema] = true
	} else {
		delete(p.archives, schema)
	}
}
