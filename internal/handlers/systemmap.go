package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cindral/core/internal/graph"
	"github.com/cindral/core/internal/models"
	"github.com/cindral/core/internal/parser"
	"github.com/cindral/core/internal/render"
	"github.com/cindral/core/internal/systemmap"
)

const maxBodyBytes = 1 << 20

type SystemMap struct {
	sessions *systemmap.Registry
	coord    *systemmap.Coordinator
	logger   *slog.Logger
}

func NewSystemMap(sessions *systemmap.Registry, coord *systemmap.Coordinator, logger *slog.Logger) *SystemMap {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemMap{sessions: sessions, coord: coord, logger: logger}
}

// Routes mounts under /api/system-map. Callers must install RequireTenant.
func (h *SystemMap) Routes(r chi.Router) {
	r.Get("/", h.GetMap)
	r.Get("/categories", h.GetCategories)
	r.Get("/snapshot.svg", h.GetSnapshot)
	r.Get("/nodes/{nodeId}", h.GetNode)
	r.Put("/positions/{nodeId}", h.PutPosition)
	r.Delete("/positions", h.DeletePositions)
	r.Post("/impacts", h.CreateImpact)
	r.Put("/impacts/{edgeId}", h.UpdateImpact)
	r.Delete("/impacts/{edgeId}", h.DeleteImpact)
}

// session fetches fresh backend state for the request's tenant.
func (h *SystemMap) session(w http.ResponseWriter, r *http.Request) (*systemmap.Session, bool) {
	s, err := h.sessions.Fresh(r.Context(), TenantID(r.Context()))
	if err != nil {
		writeBackendError(w, r, h.logger, err)
		return nil, false
	}
	return s, true
}

func filters(w http.ResponseWriter, r *http.Request) (models.Filters, bool) {
	f, err := parser.ParseFilters(r.URL.Query())
	if err != nil {
		WriteBadRequest(w, r, err.Error())
		return f, false
	}
	return f, true
}

func (h *SystemMap) GetMap(w http.ResponseWriter, r *http.Request) {
	f, ok := filters(w, r)
	if !ok {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, r, http.StatusOK, s.SetFilters(f))
}

func (h *SystemMap) GetCategories(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string][]string{
		"categories": graph.ExtractCategories(s.Data().Systems),
	})
}

func (h *SystemMap) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	f, ok := filters(w, r)
	if !ok {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	opts := render.DefaultOptions()
	if title := r.URL.Query().Get("title"); title != "" {
		opts.Title = title
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := render.SVG(w, s.SetFilters(f), opts); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render snapshot", "error", err)
	}
}

type nodeResponse struct {
	Ref        graph.NodeRef   `json:"ref"`
	Navigation string          `json:"navigation"`
	Node       *models.MapNode `json:"node,omitempty"`
}

func (h *SystemMap) GetNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeId")
	nav, ok := systemmap.NavigationFor(nodeID)
	if !ok {
		WriteNotFound(w, r, fmt.Sprintf("Unknown node id %q", nodeID))
		return
	}

	resp := nodeResponse{Ref: nav.Ref, Navigation: nav.Path}
	s, err := h.sessions.Session(r.Context(), TenantID(r.Context()))
	if err != nil {
		writeBackendError(w, r, h.logger, err)
		return
	}
	for _, n := range s.Graph().Nodes {
		if n.ID == nodeID {
			resp.Node = &n
			break
		}
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

func (h *SystemMap) PutPosition(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeId")
	if _, ok := graph.ParseNodeID(nodeID); !ok {
		WriteBadRequest(w, r, fmt.Sprintf("Unknown node id %q", nodeID))
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	x, y, err := parser.ParsePositionInput(body)
	if err != nil {
		WriteBadRequest(w, r, err.Error())
		return
	}
	f, ok := filters(w, r)
	if !ok {
		return
	}

	s, err := h.sessions.Session(r.Context(), TenantID(r.Context()))
	if err != nil {
		writeBackendError(w, r, h.logger, err)
		return
	}
	s.DragEnd(r.Context(), nodeID, x, y)
	h.writeJSON(w, r, http.StatusOK, s.SetFilters(f))
}

func (h *SystemMap) DeletePositions(w http.ResponseWriter, r *http.Request) {
	f, ok := filters(w, r)
	if !ok {
		return
	}
	s, err := h.sessions.Session(r.Context(), TenantID(r.Context()))
	if err != nil {
		writeBackendError(w, r, h.logger, err)
		return
	}
	s.AutoLayout(r.Context())
	h.writeJSON(w, r, http.StatusOK, s.SetFilters(f))
}

func (h *SystemMap) CreateImpact(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	in, err := parser.ParseImpactInput(body)
	if err != nil {
		WriteBadRequest(w, r, err.Error())
		return
	}
	h.mutate(w, r, func(s *systemmap.Session) error {
		return h.coord.CreateImpact(r.Context(), s, models.Impact{
			ArticleID:   in.ArticleID,
			SystemID:    in.SystemID,
			ImpactLevel: in.ImpactLevel,
			Notes:       in.Notes,
		})
	})
}

func (h *SystemMap) UpdateImpact(w http.ResponseWriter, r *http.Request) {
	edgeID := chi.URLParam(r, "edgeId")
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	in, err := parser.ParseImpactInput(body)
	if err != nil {
		WriteBadRequest(w, r, err.Error())
		return
	}
	h.mutate(w, r, func(s *systemmap.Session) error {
		return h.coord.UpdateEdge(r.Context(), s, edgeID, in.ImpactLevel, in.Notes)
	})
}

func (h *SystemMap) DeleteImpact(w http.ResponseWriter, r *http.Request) {
	edgeID := chi.URLParam(r, "edgeId")
	h.mutate(w, r, func(s *systemmap.Session) error {
		return h.coord.DeleteEdge(r.Context(), s, edgeID)
	})
}

// mutate runs op and answers with the rebuilt graph under the request's filters.
func (h *SystemMap) mutate(w http.ResponseWriter, r *http.Request, op func(*systemmap.Session) error) {
	f, ok := filters(w, r)
	if !ok {
		return
	}
	s, err := h.sessions.Session(r.Context(), TenantID(r.Context()))
	if err != nil {
		writeBackendError(w, r, h.logger, err)
		return
	}
	if err := op(s); err != nil {
		writeBackendError(w, r, h.logger, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, s.SetFilters(f))
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	defer func() { _ = r.Body.Close() }()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		WriteBadRequest(w, r, "Failed to read body")
		return nil, false
	}
	return body, true
}

func (h *SystemMap) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	if r.URL.Query().Get("pretty") == "true" {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(v); err != nil {
		h.logger.WarnContext(r.Context(), "failed to encode response", "error", err)
	}
}
