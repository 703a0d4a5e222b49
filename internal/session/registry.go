// Package session keeps one checkout orchestrator per shopper.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/ariefcatur/go-storefront-checkout/internal/checkout"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Factory builds the orchestrator for a new session id.
type Factory func(sessionID string) *checkout.Orchestrator

type Option func(*Registry)

// WithIdleTimeout lets Sweep drop sessions unused for d.
func WithIdleTimeout(d time.Duration) Option { return func(r *Registry) { r.idle = d } }

// WithMaxSessions caps live sessions; the least recently used one is evicted
// to make room.
func WithMaxSessions(n int) Option { return func(r *Registry) { r.max = n } }

func WithLogger(log *zap.Logger) Option { return func(r *Registry) { r.log = log } }

type entry struct {
	o    *checkout.Orchestrator
	seen time.Time
}

type Registry struct {
	factory Factory
	idle    time.Duration
	max     int
	log     *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewRegistry(f Factory, opts ...Option) *Registry {
	r := &Registry{
		factory:  f,
		log:      zap.NewNop(),
		now:      time.Now,
		sessions: map[string]*entry{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the session for id, minting a new id when id is empty or not a
// uuid. The returned id is the one the caller must keep using.
func (r *Registry) Get(id string) (string, *checkout.Orchestrator) {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if e, ok := r.sessions[id]; ok {
		e.seen = now
		return id, e.o
	}
	if r.max > 0 && len(r.sessions) >= r.max {
		r.evictOldestLocked()
	}
	e := &entry{o: r.factory(id), seen: now}
	r.sessions[id] = e
	return id, e.o
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle longer than the idle timeout and returns how many
// were removed. Sessions with a checkout in flight are kept.
func (r *Registry) Sweep() int {
	if r.idle <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.idle)
	n := 0
	for id, e := range r.sessions {
		if e.seen.Before(cutoff) && !e.o.Result().Loading() {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if r.idle <= 0 || interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(); n > 0 {
				r.log.Debug("idle sessions evicted", zap.Int("count", n))
			}
		}
	}
}

func (r *Registry) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, e := range r.sessions {
		if e.o.Result().Loading() {
			continue
		}
		if oldestID == "" || e.seen.Before(oldest) {
			oldestID, oldest = id, e.seen
		}
	}
	if oldestID != "" {
		delete(r.sessions, oldestID)
		r.log.Debug("session evicted at capacity", zap.String("session_id", oldestID))
	}
}
