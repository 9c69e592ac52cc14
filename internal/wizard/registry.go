package wizard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"resume-builder/internal/form"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/telemetry"
)

// Registry holds the live machine of every mounted session. Mutations of one
// session run one at a time.
type Registry struct {
	handoff *Handoff
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu      sync.Mutex
	machine *Machine
	touched atomic.Int64
}

// NewRegistry creates an empty registry that suspends into and restores from h.
func NewRegistry(h *Handoff) *Registry {
	return &Registry{handoff: h, now: time.Now, sessions: make(map[string]*session)}
}

// Mount starts a fresh machine for sessionID. A pending handoff snapshot is
// applied, and consumed, before the machine accepts any mutation. Handoff
// failures are logged and the machine starts from defaults.
func (r *Registry) Mount(ctx context.Context, sessionID string) (restored bool, err error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return false, err
	}

	s := &session{}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched.Store(r.now().UnixNano())

	r.mu.Lock()
	r.sessions[sessionID] = s
	r.mu.Unlock()

	m := NewMachine()
	snap, ok, loadErr := r.handoff.LoadOnce(ctx, sessionID)
	switch {
	case loadErr != nil:
		metrics.IncHandoffError()
		telemetry.Warn("wizard handoff load failed", map[string]any{
			"session": sessionID,
			"err":     loadErr,
		})
	case ok:
		if rerr := m.Restore(snap); rerr != nil {
			metrics.IncHandoffError()
			telemetry.Warn("wizard handoff restore rejected", map[string]any{
				"session": sessionID,
				"err":     rerr,
			})
			m = NewMachine()
		} else {
			restored = true
			metrics.IncSessionRestored()
		}
	}
	s.machine = m
	metrics.IncSessionMounted()
	return restored, nil
}

// With runs fn against the session's machine while holding its lock.
func (r *Registry) With(sessionID string, fn func(*Machine) error) error {
	s := r.lookup(sessionID)
	if s == nil {
		return ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine == nil {
		return ErrSessionNotFound
	}
	s.touched.Store(r.now().UnixNano())
	return fn(s.machine)
}

// Get returns a copy of the session's form state.
func (r *Registry) Get(sessionID string) (form.State, error) {
	var st form.State
	err := r.With(sessionID, func(m *Machine) error {
		st = m.State()
		return nil
	})
	return st, err
}

// Suspend snapshots the session into the handoff slot and drops the live
// machine, as a page unload would. The machine is dropped even when the
// snapshot could not be stored.
func (r *Registry) Suspend(ctx context.Context, sessionID string) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	r.mu.Lock()
	s := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()
	if s == nil {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine == nil {
		return ErrSessionNotFound
	}
	snap := s.machine.Snapshot()
	s.machine = nil
	if err := r.handoff.Save(ctx, sessionID, snap); err != nil {
		metrics.IncHandoffError()
		return err
	}
	metrics.IncSessionSuspended()
	return nil
}

// Drop forgets a session without saving it.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Prune drops sessions idle for longer than maxIdle and returns how many.
func (r *Registry) Prune(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle).UnixNano()
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.touched.Load() < cutoff {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// RunPruner calls Prune every interval until ctx is done.
func (r *Registry) RunPruner(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Prune(maxIdle); n > 0 {
				telemetry.Info("wizard sessions pruned", map[string]any{"count": n})
			}
		}
	}
}

func (r *Registry) lookup(sessionID string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[sessionID]
}
