package systemmap

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cindral/core/internal/graph"
	"github.com/cindral/core/internal/positions"
)

// Registry hands out one Session per tenant. It is built once at startup and
// shared by the HTTP handlers.
type Registry struct {
	source    Source
	positions *positions.Store
	builder   *graph.Builder
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(source Source, store *positions.Store, builder *graph.Builder, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		source:    source,
		positions: store,
		builder:   builder,
		logger:    logger,
		sessions:  make(map[string]*Session),
	}
}

// Session returns the tenant's session, loading it on first use. A failed
// first load is returned and retried on the next call.
func (r *Registry) Session(ctx context.Context, tenantID string) (*Session, error) {
	s, _, err := r.session(ctx, tenantID)
	return s, err
}

// Fresh is Session followed by a refresh, unless the session was loaded by
// this very call.
func (r *Registry) Fresh(ctx context.Context, tenantID string) (*Session, error) {
	s, loaded, err := r.session(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !loaded {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (r *Registry) session(ctx context.Context, tenantID string) (*Session, bool, error) {
	r.mu.Lock()
	s, ok := r.sessions[tenantID]
	if !ok {
		s = NewSession(tenantID, r.source, r.positions, r.builder, r.logger)
		r.sessions[tenantID] = s
	}
	r.mu.Unlock()

	if s.Loaded() {
		return s, false, nil
	}
	if err := s.Load(ctx); err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// Drop forgets a tenant's session.
func (r *Registry) Drop(tenantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, tenantID)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
