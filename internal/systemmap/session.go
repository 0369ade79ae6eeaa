package systemmap

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/cindral/core/internal/graph"
	"github.com/cindral/core/internal/models"
	"github.com/cindral/core/internal/positions"
)

const tracerName = "github.com/cindral/core/internal/systemmap"

// Session is one tenant's view. The graph is only ever replaced wholesale.
//
// Every fetch takes a generation number; a fetch that resolves after a newer
// one has been applied is dropped. Saved positions fetched before a drag or an
// auto-layout are dropped the same way.
type Session struct {
	tenantID  string
	source    Source
	positions *positions.Store
	builder   *graph.Builder
	logger    *slog.Logger
	tracer    trace.Tracer

	mu          sync.Mutex
	fetchGen    uint64
	appliedGen  uint64
	positionGen uint64
	data        *models.SystemMapData
	saved       []models.NodePosition
	filters     models.Filters
	current     models.SystemMap
}

func NewSession(tenantID string, source Source, store *positions.Store, builder *graph.Builder, logger *slog.Logger) *Session {
	if builder == nil {
		builder = graph.NewBuilder(graph.DefaultLayout())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		tenantID:  tenantID,
		source:    source,
		positions: store,
		builder:   builder,
		logger:    logger.With("tenant", tenantID),
		tracer:    otel.Tracer(tracerName),
		current:   emptyMap(),
	}
}

func emptyMap() models.SystemMap {
	return models.SystemMap{Nodes: []models.MapNode{}, Edges: []models.MapEdge{}, Stats: &models.Stats{}}
}

func (s *Session) TenantID() string { return s.tenantID }

// Load performs the initial fetch.
func (s *Session) Load(ctx context.Context) error {
	return s.Refresh(ctx)
}

// Refresh re-fetches the dataset and saved positions concurrently and
// rebuilds. On failure the current graph is left untouched.
func (s *Session) Refresh(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "systemmap.Refresh", trace.WithAttributes(attribute.String("tenant.id", s.tenantID)))
	defer span.End()

	s.mu.Lock()
	s.fetchGen++
	gen, posGen := s.fetchGen, s.positionGen
	s.mu.Unlock()

	var (
		data  *models.SystemMapData
		saved []models.NodePosition
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := s.source.Fetch(gctx, s.tenantID)
		if err != nil {
			return fmt.Errorf("failed to fetch system map: %w", err)
		}
		data = d
		return nil
	})
	if s.positions != nil {
		g.Go(func() error {
			saved = s.positions.Load(gctx, s.tenantID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen <= s.appliedGen {
		s.logger.DebugContext(ctx, "discarding stale fetch", "generation", gen, "applied", s.appliedGen)
		span.SetAttributes(attribute.Bool("systemmap.stale", true))
		return nil
	}
	s.appliedGen = gen
	s.data = data
	if posGen == s.positionGen {
		s.saved = saved
	}
	s.rebuildLocked()
	span.SetAttributes(
		attribute.Int("systemmap.nodes", len(s.current.Nodes)),
		attribute.Int("systemmap.edges", len(s.current.Edges)),
	)
	return nil
}

// SetFilters replaces the filters and rebuilds from the loaded dataset.
func (s *Session) SetFilters(f models.Filters) models.SystemMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = f
	s.rebuildLocked()
	return s.current
}

func (s *Session) Filters() models.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// AutoLayout clears saved positions and rebuilds with the pure layout output.
func (s *Session) AutoLayout(ctx context.Context) models.SystemMap {
	if s.positions != nil {
		s.positions.Clear(ctx, s.tenantID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.positionGen++
	s.saved = nil
	s.rebuildLocked()
	return s.current
}

// DragEnd persists a node's release position and rebuilds.
func (s *Session) DragEnd(ctx context.Context, nodeID string, x, y float64) models.SystemMap {
	pos := models.NodePosition{NodeID: nodeID, X: x, Y: y}
	if s.positions != nil {
		s.positions.Record(ctx, s.tenantID, pos)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.positionGen++
	s.saved = upsertPosition(s.saved, pos)
	s.rebuildLocked()
	return s.current
}

// Graph returns the current graph. Callers must not modify it.
func (s *Session) Graph() models.SystemMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Data returns the loaded dataset, or nil before the first successful load.
func (s *Session) Data() *models.SystemMapData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

func (s *Session) Loaded() bool {
	return s.Data() != nil
}

func (s *Session) rebuildLocked() {
	if s.data == nil {
		s.current = emptyMap()
		return
	}
	s.current = s.builder.Build(*s.data, s.filters, s.saved)
}

func upsertPosition(saved []models.NodePosition, pos models.NodePosition) []models.NodePosition {
	out := make([]models.NodePosition, 0, len(saved)+1)
	for _, p := range saved {
		if p.NodeID != pos.NodeID {
			out = append(out, p)
		}
	}
	return append(out, pos)
}
