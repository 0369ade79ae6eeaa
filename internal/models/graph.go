// Package models defines the core data structures shared across the service.
// It includes the compliance entities, filter state, and the graph projection types.
package models

// Graph is a rendering-ready node/edge list. Any diagram surface can adapt it.
type Graph[N any, E any] struct {
	Nodes []Node[N] `json:"nodes"`
	Edges []Edge[E] `json:"edges"`
	Stats *Stats    `json:"stats,omitempty"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Node[N any] struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Data     N        `json:"data"`
}

type Edge[E any] struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Source string `json:"source"`
	Target string `json:"target"`
	Data   E      `json:"data"`
}

type Stats struct {
	TotalNodes   int            `json:"total_nodes"`
	TotalEdges   int            `json:"total_edges"`
	NodesByType  map[string]int `json:"nodes_by_type,omitempty"`
	EdgesByLevel map[string]int `json:"edges_by_level,omitempty"`
}

const (
	NodeTypeRegulation = "regulation"
	NodeTypeArticle    = "article"
	NodeTypeSystem     = "system"

	EdgeTypeImpact    = "impact"
	EdgeTypeHierarchy = "hierarchy"
)

// NodeData is the type-tagged node payload; exactly one entity pointer is set,
// matching the node's Type.
type NodeData struct {
	Label      string      `json:"label"`
	Sublabel   string      `json:"sublabel,omitempty"`
	Regulation *Regulation `json:"regulation,omitempty"`
	Article    *Article    `json:"article,omitempty"`
	System     *System     `json:"system,omitempty"`
	Style      NodeStyle   `json:"style"`
}

type EdgeData struct {
	ArticleID   string      `json:"articleId,omitempty"`
	SystemID    string      `json:"systemId,omitempty"`
	ImpactLevel ImpactLevel `json:"impactLevel,omitempty"`
	Notes       *string     `json:"notes,omitempty"`
	Style       EdgeStyle   `json:"style"`
}

type NodeStyle struct {
	Fill   string `json:"fill"`
	Border string `json:"border"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type EdgeStyle struct {
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	Dashed      bool    `json:"dashed,omitempty"`
	Animated    bool    `json:"animated,omitempty"`
	Label       string  `json:"label,omitempty"`
}

// SystemMap is the graph handed to the rendering surface.
type SystemMap = Graph[NodeData, EdgeData]

type MapNode = Node[NodeData]
type MapEdge = Edge[EdgeData]
