package graph

import (
	"strings"

	"github.com/cindral/core/internal/models"
)

const (
	regulationWidth, regulationHeight = 220, 70
	articleWidth, articleHeight       = 220, 56
	systemWidth, systemHeight         = 200, 56
)

var impactStyles = map[models.ImpactLevel]models.EdgeStyle{
	models.ImpactCritical: {Stroke: "#dc2626", StrokeWidth: 3, Animated: true},
	models.ImpactHigh:     {Stroke: "#ea580c", StrokeWidth: 2.5},
	models.ImpactMedium:   {Stroke: "#ca8a04", StrokeWidth: 2},
	models.ImpactLow:      {Stroke: "#16a34a", StrokeWidth: 1.5},
}

// criticality shares the impact palette
var criticalityBorders = map[string]string{
	"critical": "#dc2626",
	"high":     "#ea580c",
	"medium":   "#ca8a04",
	"low":      "#16a34a",
}

// ImpactEdgeStyle styles an impact edge by severity. Unknown levels render
// as a neutral thin line.
func ImpactEdgeStyle(level models.ImpactLevel) models.EdgeStyle {
	style, ok := impactStyles[level]
	if !ok {
		return models.EdgeStyle{Stroke: "#64748b", StrokeWidth: 1, Label: string(level)}
	}
	style.Label = string(level)
	return style
}

func HierarchyEdgeStyle() models.EdgeStyle {
	return models.EdgeStyle{Stroke: "#94a3b8", StrokeWidth: 1, Dashed: true}
}

func RegulationStyle(reg models.Regulation) models.NodeStyle {
	style := models.NodeStyle{Fill: "#eef2ff", Border: "#4f46e5", Width: regulationWidth, Height: regulationHeight}
	switch reg.Status {
	case models.RegulationSuperseded:
		style.Fill, style.Border = "#f1f5f9", "#94a3b8"
	case models.RegulationDraft:
		style.Fill = "#f5f3ff"
	}
	return style
}

func ArticleStyle(models.Article) models.NodeStyle {
	return models.NodeStyle{Fill: "#f0f9ff", Border: "#0284c7", Width: articleWidth, Height: articleHeight}
}

func SystemStyle(sys models.System) models.NodeStyle {
	border, ok := criticalityBorders[strings.ToLower(models.Deref(sys.Criticality))]
	if !ok {
		border = "#475569"
	}
	return models.NodeStyle{Fill: "#ffffff", Border: border, Width: systemWidth, Height: systemHeight}
}
