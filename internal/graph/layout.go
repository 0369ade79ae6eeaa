package graph

import (
	"math"

	"github.com/cindral/core/internal/models"
)

// Layout holds the fixed column layout constants.
type Layout struct {
	RegulationX float64 `yaml:"regulation_x" toml:"regulation_x"`
	ArticleX    float64 `yaml:"article_x" toml:"article_x"`
	SystemX     float64 `yaml:"system_x" toml:"system_x"`
	TopPadding  float64 `yaml:"top_padding" toml:"top_padding"`
	RowGap      float64 `yaml:"row_gap" toml:"row_gap"`
}

func DefaultLayout() Layout {
	return Layout{
		RegulationX: 50,
		ArticleX:    350,
		SystemX:     650,
		TopPadding:  50,
		RowGap:      100,
	}
}

const (
	articleStep        = 0.6
	systemStep         = 0.8
	minRegulationSpace = 80
)

// Place assigns deterministic coordinates to every surviving entity.
// Regulations stack down the first column and reserve space proportional to
// their article count; articles sit beside their regulation; systems stack
// down the last column in dataset order, unrelated to the articles that
// impact them. Overlaps are possible and accepted.
func (l Layout) Place(f Filtered) models.SystemMap {
	graph := models.SystemMap{
		Nodes: []models.MapNode{},
		Edges: []models.MapEdge{},
	}
	nodeMap := make(map[string]bool)

	byRegulation := make(map[string][]models.Article, len(f.Regulations))
	for _, art := range f.Articles {
		byRegulation[art.RegulationID] = append(byRegulation[art.RegulationID], art)
	}

	y := l.TopPadding
	for _, reg := range f.Regulations {
		regID := RegulationNodeID(reg.ID)
		if nodeMap[regID] {
			continue
		}
		nodeMap[regID] = true
		graph.Nodes = append(graph.Nodes, regulationNode(reg, models.Position{X: l.RegulationX, Y: y}))

		for k, art := range byRegulation[reg.ID] {
			artID := ArticleNodeID(art.ID)
			if nodeMap[artID] {
				continue
			}
			nodeMap[artID] = true
			pos := models.Position{X: l.ArticleX, Y: y + float64(k)*(l.RowGap*articleStep)}
			graph.Nodes = append(graph.Nodes, articleNode(art, pos))
			graph.Edges = append(graph.Edges, hierarchyEdge(reg.ID, art.ID))
		}

		y += math.Max(minRegulationSpace, float64(reg.ArticleCount)*l.RowGap*articleStep) + l.RowGap
	}

	for k, sys := range f.Systems {
		sysID := SystemNodeID(sys.ID)
		if nodeMap[sysID] {
			continue
		}
		nodeMap[sysID] = true
		pos := models.Position{X: l.SystemX, Y: l.TopPadding + float64(k)*(l.RowGap*systemStep)}
		graph.Nodes = append(graph.Nodes, systemNode(sys, pos))
	}

	edgeMap := make(map[string]bool)
	for _, imp := range f.Impacts {
		source, target := ArticleNodeID(imp.ArticleID), SystemNodeID(imp.SystemID)
		if !nodeMap[source] || !nodeMap[target] {
			continue
		}
		edge := impactEdge(imp)
		if edgeMap[edge.ID] {
			continue
		}
		edgeMap[edge.ID] = true
		graph.Edges = append(graph.Edges, edge)
	}

	return graph
}

func regulationNode(reg models.Regulation, pos models.Position) models.MapNode {
	return models.MapNode{
		ID:       RegulationNodeID(reg.ID),
		Type:     models.NodeTypeRegulation,
		Position: pos,
		Data: models.NodeData{
			Label:      reg.Name,
			Sublabel:   reg.Framework,
			Regulation: &reg,
			Style:      RegulationStyle(reg),
		},
	}
}

func articleNode(art models.Article, pos models.Position) models.MapNode {
	return models.MapNode{
		ID:       ArticleNodeID(art.ID),
		Type:     models.NodeTypeArticle,
		Position: pos,
		Data: models.NodeData{
			Label:    art.ArticleNumber,
			Sublabel: models.Deref(art.Title),
			Article:  &art,
			Style:    ArticleStyle(art),
		},
	}
}

func systemNode(sys models.System, pos models.Position) models.MapNode {
	return models.MapNode{
		ID:       SystemNodeID(sys.ID),
		Type:     models.NodeTypeSystem,
		Position: pos,
		Data: models.NodeData{
			Label:    sys.Name,
			Sublabel: models.Deref(sys.Category),
			System:   &sys,
			Style:    SystemStyle(sys),
		},
	}
}

func hierarchyEdge(regulationID, articleID string) models.MapEdge {
	return models.MapEdge{
		ID:     HierarchyEdgeID(regulationID, articleID),
		Type:   models.EdgeTypeHierarchy,
		Source: RegulationNodeID(regulationID),
		Target: ArticleNodeID(articleID),
		Data:   models.EdgeData{Style: HierarchyEdgeStyle()},
	}
}

func impactEdge(imp models.Impact) models.MapEdge {
	return models.MapEdge{
		ID:     ImpactEdgeID(imp.ArticleID, imp.SystemID),
		Type:   models.EdgeTypeImpact,
		Source: ArticleNodeID(imp.ArticleID),
		Target: SystemNodeID(imp.SystemID),
		Data: models.EdgeData{
			ArticleID:   imp.ArticleID,
			SystemID:    imp.SystemID,
			ImpactLevel: imp.ImpactLevel,
			Notes:       imp.Notes,
			Style:       ImpactEdgeStyle(imp.ImpactLevel),
		},
	}
}
