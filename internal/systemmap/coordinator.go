package systemmap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cindral/core/internal/graph"
	"github.com/cindral/core/internal/models"
)

const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ErrStale is returned when a mutation succeeded but the follow-up refresh
// did not, so the session still shows the previous graph.
var ErrStale = errors.New("system map not refreshed")

// Coordinator sends impact edge writes to the backend and, on success, has
// the session re-fetch and rebuild. It never patches the graph itself.
type Coordinator struct {
	api    ImpactAPI
	logger *slog.Logger
	tracer trace.Tracer
}

func NewCoordinator(api ImpactAPI, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{api: api, logger: logger, tracer: otel.Tracer(tracerName)}
}

// CreateImpact is create-or-update on the backend; existence is not checked here.
func (c *Coordinator) CreateImpact(ctx context.Context, s *Session, imp models.Impact) error {
	imp, err := normalizeImpact(OpCreate, imp)
	if err != nil {
		return err
	}
	return c.mutate(ctx, s, OpCreate, imp, func(ctx context.Context) error {
		return c.api.CreateImpact(ctx, s.TenantID(), imp)
	})
}

func (c *Coordinator) UpdateImpact(ctx context.Context, s *Session, imp models.Impact) error {
	imp, err := normalizeImpact(OpUpdate, imp)
	if err != nil {
		return err
	}
	return c.mutate(ctx, s, OpUpdate, imp, func(ctx context.Context) error {
		return c.api.UpdateImpact(ctx, s.TenantID(), imp)
	})
}

func (c *Coordinator) DeleteImpact(ctx context.Context, s *Session, articleID, systemID string) error {
	imp := models.Impact{ArticleID: strings.TrimSpace(articleID), SystemID: strings.TrimSpace(systemID)}
	if err := requireKey(OpDelete, imp); err != nil {
		return err
	}
	return c.mutate(ctx, s, OpDelete, imp, func(ctx context.Context) error {
		return c.api.DeleteImpact(ctx, s.TenantID(), imp.ArticleID, imp.SystemID)
	})
}

// UpdateEdge updates the impact behind an impact edge id.
func (c *Coordinator) UpdateEdge(ctx context.Context, s *Session, edgeID string, level models.ImpactLevel, notes *string) error {
	key, ok := graph.ParseImpactEdgeID(edgeID)
	if !ok {
		return invalid(OpUpdate, "unrecognized impact edge %q", edgeID)
	}
	return c.UpdateImpact(ctx, s, models.Impact{ArticleID: key.ArticleID, SystemID: key.SystemID, ImpactLevel: level, Notes: notes})
}

// DeleteEdge deletes the impact behind an impact edge id.
func (c *Coordinator) DeleteEdge(ctx context.Context, s *Session, edgeID string) error {
	key, ok := graph.ParseImpactEdgeID(edgeID)
	if !ok {
		return invalid(OpDelete, "unrecognized impact edge %q", edgeID)
	}
	return c.DeleteImpact(ctx, s, key.ArticleID, key.SystemID)
}

func (c *Coordinator) mutate(ctx context.Context, s *Session, op string, imp models.Impact, call func(context.Context) error) error {
	ctx, span := c.tracer.Start(ctx, "systemmap."+op+"Impact", trace.WithAttributes(
		attribute.String("tenant.id", s.TenantID()),
		attribute.String("impact.article_id", imp.ArticleID),
		attribute.String("impact.system_id", imp.SystemID),
	))
	defer span.End()

	if err := call(ctx); err != nil {
		me := mutationError(op, err)
		span.RecordError(me)
		span.SetStatus(codes.Error, string(me.Kind))
		c.logger.WarnContext(ctx, "impact mutation failed",
			"tenant", s.TenantID(), "op", op, "kind", me.Kind,
			"article_id", imp.ArticleID, "system_id", imp.SystemID, "error", me.Err)
		return me
	}

	c.logger.InfoContext(ctx, "impact mutation applied",
		"tenant", s.TenantID(), "op", op, "article_id", imp.ArticleID, "system_id", imp.SystemID)

	if err := s.Refresh(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %v", ErrStale, err)
	}
	return nil
}

func normalizeImpact(op string, imp models.Impact) (models.Impact, error) {
	imp.ArticleID = strings.TrimSpace(imp.ArticleID)
	imp.SystemID = strings.TrimSpace(imp.SystemID)
	if err := requireKey(op, imp); err != nil {
		return imp, err
	}
	if !imp.ImpactLevel.Valid() {
		return imp, invalid(op, "invalid impact level %q", imp.ImpactLevel)
	}
	if imp.Notes != nil {
		imp.Notes = models.Ptr(strings.TrimSpace(*imp.Notes))
	}
	return imp, nil
}

func requireKey(op string, imp models.Impact) error {
	if imp.ArticleID == "" {
		return invalid(op, "article id is required")
	}
	if imp.SystemID == "" {
		return invalid(op, "system id is required")
	}
	return nil
}
