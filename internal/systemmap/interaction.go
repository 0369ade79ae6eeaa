package systemmap

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/cindral/core/internal/graph"
	"github.com/cindral/core/internal/models"
)

type State int

const (
	StateIdle State = iota
	StateEditImpact
	StateConnect
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEditImpact:
		return "edit-impact"
	case StateConnect:
		return "connect"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var ErrNoDialog = errors.New("no dialog open")

// Navigation is where a double-clicked node leads.
type Navigation struct {
	Ref  graph.NodeRef `json:"ref"`
	Path string        `json:"path"`
}

// NavigationFor decodes a node id into its entity and detail page. Unknown
// ids report false and must be ignored.
func NavigationFor(nodeID string) (Navigation, bool) {
	ref, ok := graph.ParseNodeID(nodeID)
	if !ok || ref.ID == "" {
		return Navigation{}, false
	}
	var base string
	switch ref.Kind {
	case graph.KindRegulation:
		base = "/regulations/"
	case graph.KindArticle:
		base = "/articles/"
	case graph.KindSystem:
		base = "/systems/"
	}
	return Navigation{Ref: ref, Path: base + url.PathEscape(ref.ID)}, true
}

type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// EditImpactDialog is prefilled from a clicked impact edge.
type EditImpactDialog struct {
	EdgeID       string             `json:"edgeId"`
	ArticleID    string             `json:"articleId"`
	SystemID     string             `json:"systemId"`
	ArticleLabel string             `json:"articleLabel"`
	SystemLabel  string             `json:"systemLabel"`
	ImpactLevel  models.ImpactLevel `json:"impactLevel"`
	Notes        string             `json:"notes"`
}

func (d *EditImpactDialog) Validate() error {
	if !d.ImpactLevel.Valid() {
		return invalid(OpUpdate, "invalid impact level %q", d.ImpactLevel)
	}
	return nil
}

// ConnectDialog creates an impact. Opening it on an article or system node
// preselects that side.
type ConnectDialog struct {
	ArticleID   string             `json:"articleId"`
	SystemID    string             `json:"systemId"`
	ImpactLevel models.ImpactLevel `json:"impactLevel"`
	Notes       string             `json:"notes"`
	Articles    []Option           `json:"articles"`
	Systems     []Option           `json:"systems"`
}

func (d *ConnectDialog) Validate() error {
	if d.ArticleID == "" {
		return invalid(OpCreate, "select an article")
	}
	if d.SystemID == "" {
		return invalid(OpCreate, "select a system")
	}
	if !d.ImpactLevel.Valid() {
		return invalid(OpCreate, "invalid impact level %q", d.ImpactLevel)
	}
	return nil
}

// Interaction tracks one pending user action against a session. It is not
// safe for concurrent use.
type Interaction struct {
	session *Session
	coord   *Coordinator

	state   State
	edit    *EditImpactDialog
	connect *ConnectDialog
}

func NewInteraction(s *Session, c *Coordinator) *Interaction {
	return &Interaction{session: s, coord: c}
}

func (in *Interaction) State() State { return in.state }

func (in *Interaction) EditDialog() *EditImpactDialog { return in.edit }

func (in *Interaction) ConnectDialog() *ConnectDialog { return in.connect }

// DoubleClickNode resolves navigation. It is ignored while a dialog is open.
func (in *Interaction) DoubleClickNode(nodeID string) (Navigation, bool) {
	if in.state != StateIdle {
		return Navigation{}, false
	}
	return NavigationFor(nodeID)
}

// ClickEdge opens the edit dialog for an impact edge. Hierarchy edges and
// ids not present in the current graph are ignored.
func (in *Interaction) ClickEdge(edgeID string) (*EditImpactDialog, bool) {
	if in.state != StateIdle {
		return nil, false
	}
	key, ok := graph.ParseImpactEdgeID(edgeID)
	if !ok {
		return nil, false
	}

	g := in.session.Graph()
	var edge *models.MapEdge
	for i := range g.Edges {
		if g.Edges[i].ID == edgeID && g.Edges[i].Type == models.EdgeTypeImpact {
			edge = &g.Edges[i]
			break
		}
	}
	if edge == nil {
		return nil, false
	}

	in.edit = &EditImpactDialog{
		EdgeID:       edgeID,
		ArticleID:    key.ArticleID,
		SystemID:     key.SystemID,
		ArticleLabel: nodeLabel(g, edge.Source),
		SystemLabel:  nodeLabel(g, edge.Target),
		ImpactLevel:  edge.Data.ImpactLevel,
		Notes:        models.Deref(edge.Data.Notes),
	}
	in.state = StateEditImpact
	return in.edit, true
}

// ContextConnect opens the connect dialog from a node's context menu.
func (in *Interaction) ContextConnect(nodeID string) (*ConnectDialog, bool) {
	if in.state != StateIdle {
		return nil, false
	}
	ref, ok := graph.ParseNodeID(nodeID)
	if !ok {
		return nil, false
	}

	d := &ConnectDialog{ImpactLevel: models.ImpactMedium}
	if data := in.session.Data(); data != nil {
		d.Articles, d.Systems = candidates(data, ref)
	}
	switch ref.Kind {
	case graph.KindArticle:
		d.ArticleID = ref.ID
	case graph.KindSystem:
		d.SystemID = ref.ID
	}

	in.connect = d
	in.state = StateConnect
	return d, true
}

// Save updates the impact from the edit dialog. On failure the dialog stays open.
func (in *Interaction) Save(ctx context.Context) error {
	if in.state != StateEditImpact {
		return ErrNoDialog
	}
	if err := in.edit.Validate(); err != nil {
		return err
	}
	err := in.coord.UpdateImpact(ctx, in.session, models.Impact{
		ArticleID:   in.edit.ArticleID,
		SystemID:    in.edit.SystemID,
		ImpactLevel: in.edit.ImpactLevel,
		Notes:       models.Ptr(in.edit.Notes),
	})
	return in.settle(err)
}

// Delete removes the impact behind the edit dialog.
func (in *Interaction) Delete(ctx context.Context) error {
	if in.state != StateEditImpact {
		return ErrNoDialog
	}
	return in.settle(in.coord.DeleteImpact(ctx, in.session, in.edit.ArticleID, in.edit.SystemID))
}

// Submit creates the impact from the connect dialog.
func (in *Interaction) Submit(ctx context.Context) error {
	if in.state != StateConnect {
		return ErrNoDialog
	}
	if err := in.connect.Validate(); err != nil {
		return err
	}
	err := in.coord.CreateImpact(ctx, in.session, models.Impact{
		ArticleID:   in.connect.ArticleID,
		SystemID:    in.connect.SystemID,
		ImpactLevel: in.connect.ImpactLevel,
		Notes:       models.Ptr(in.connect.Notes),
	})
	return in.settle(err)
}

func (in *Interaction) Cancel() {
	in.reset()
}

// settle closes the dialog unless the backend rejected the write. A write
// that landed but could not be refreshed still closes it.
func (in *Interaction) settle(err error) error {
	var me *MutationError
	if errors.As(err, &me) {
		return err
	}
	in.reset()
	return err
}

func (in *Interaction) reset() {
	in.state = StateIdle
	in.edit = nil
	in.connect = nil
}

func nodeLabel(g models.SystemMap, id string) string {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n.Data.Label
		}
	}
	return ""
}

// candidates lists the connectable entities. A regulation node narrows the
// article list to its own articles.
func candidates(data *models.SystemMapData, ref graph.NodeRef) ([]Option, []Option) {
	articles := make([]Option, 0, len(data.Articles))
	for _, a := range data.Articles {
		if ref.Kind == graph.KindRegulation && a.RegulationID != ref.ID {
			continue
		}
		label := a.ArticleNumber
		if a.RegulationName != "" {
			label = a.RegulationName + " " + label
		}
		articles = append(articles, Option{ID: a.ID, Label: label})
	}

	systems := make([]Option, 0, len(data.Systems))
	for _, s := range data.Systems {
		systems = append(systems, Option{ID: s.ID, Label: s.Name})
	}
	return articles, systems
}
