// Package graph turns a flat compliance dataset into the positioned System Map.
// Everything here is pure: identical inputs always produce identical graphs.
package graph

import (
	"github.com/cindral/core/internal/models"
)

type Builder struct {
	Layout Layout
}

func NewBuilder(layout Layout) *Builder {
	return &Builder{Layout: layout}
}

// Build runs the filter cascade, places the survivors, then applies saved
// positions over the computed ones.
func (b *Builder) Build(data models.SystemMapData, filters models.Filters, saved []models.NodePosition) models.SystemMap {
	graph := b.Layout.Place(Cascade(data, filters))
	MergePositions(graph.Nodes, saved)
	graph.Stats = buildStats(graph)
	return graph
}

// BuildGraph builds with the default layout constants.
func BuildGraph(data models.SystemMapData, filters models.Filters, saved []models.NodePosition) models.SystemMap {
	return NewBuilder(DefaultLayout()).Build(data, filters, saved)
}

// MergePositions overwrites, in place, the position of every node that has a
// saved entry. Later duplicates in saved win.
func MergePositions(nodes []models.MapNode, saved []models.NodePosition) {
	if len(saved) == 0 {
		return
	}
	byID := make(map[string]models.Position, len(saved))
	for _, p := range saved {
		byID[p.NodeID] = models.Position{X: p.X, Y: p.Y}
	}
	for i := range nodes {
		if pos, ok := byID[nodes[i].ID]; ok {
			nodes[i].Position = pos
		}
	}
}

func buildStats(graph models.SystemMap) *models.Stats {
	stats := &models.Stats{
		TotalNodes:   len(graph.Nodes),
		TotalEdges:   len(graph.Edges),
		NodesByType:  make(map[string]int),
		EdgesByLevel: make(map[string]int),
	}
	for _, n := range graph.Nodes {
		stats.NodesByType[n.Type]++
	}
	for _, e := range graph.Edges {
		if e.Type == models.EdgeTypeImpact {
			stats.EdgesByLevel[string(e.Data.ImpactLevel)]++
		}
	}
	return stats
}
