package graph

import "github.com/cindral/core/internal/models"

// scenarioData is one regulation with two articles that both impact one system.
func scenarioData() models.SystemMapData {
	return models.SystemMapData{
		Regulations: []models.Regulation{
			{ID: "dora", Name: "DORA", Framework: "EU", Status: models.RegulationActive, ArticleCount: 2},
		},
		Articles: []models.Article{
			{ID: "a5", ArticleNumber: "Art. 5", Title: models.Ptr("ICT risk management"), RegulationID: "dora", RegulationName: "DORA", ImpactedSystemsCount: 1},
			{ID: "a6", ArticleNumber: "Art. 6", Title: models.Ptr("ICT risk framework"), RegulationID: "dora", RegulationName: "DORA", ImpactedSystemsCount: 1},
		},
		Systems: []models.System{
			{ID: "core", Name: "Core Banking", Category: models.Ptr("finance"), Criticality: models.Ptr("high")},
		},
		Impacts: []models.Impact{
			{ArticleID: "a5", SystemID: "core", ImpactLevel: models.ImpactCritical},
			{ArticleID: "a6", SystemID: "core", ImpactLevel: models.ImpactLow, Notes: models.Ptr("reporting only")},
		},
	}
}

// multiData spans two regulations and three systems across two categories.
func multiData() models.SystemMapData {
	return models.SystemMapData{
		Regulations: []models.Regulation{
			{ID: "dora", Name: "DORA", Framework: "EU", Status: models.RegulationActive, ArticleCount: 2},
			{ID: "gdpr", Name: "GDPR", Framework: "EU Privacy", Status: models.RegulationActive, ArticleCount: 1},
		},
		Articles: []models.Article{
			{ID: "a5", ArticleNumber: "Art. 5", RegulationID: "dora", RegulationName: "DORA"},
			{ID: "a6", ArticleNumber: "Art. 6", RegulationID: "dora", RegulationName: "DORA"},
			{ID: "g32", ArticleNumber: "Art. 32", Title: models.Ptr("Security of processing"), RegulationID: "gdpr", RegulationName: "GDPR"},
			{ID: "orphan", ArticleNumber: "Art. 1", RegulationID: "missing", RegulationName: "Gone"},
		},
		Systems: []models.System{
			{ID: "core", Name: "Core Banking", Category: models.Ptr("finance")},
			{ID: "crm", Name: "Customer CRM", Category: models.Ptr("sales")},
			{ID: "hr", Name: "HR Portal", Category: models.Ptr("people")},
			{ID: "idle", Name: "Unused", Category: models.Ptr("finance")},
		},
		Impacts: []models.Impact{
			{ArticleID: "a5", SystemID: "core", ImpactLevel: models.ImpactCritical},
			{ArticleID: "a6", SystemID: "crm", ImpactLevel: models.ImpactMedium},
			{ArticleID: "g32", SystemID: "crm", ImpactLevel: models.ImpactHigh},
			{ArticleID: "g32", SystemID: "hr", ImpactLevel: models.ImpactLow},
			{ArticleID: "orphan", SystemID: "hr", ImpactLevel: models.ImpactCritical},
			{ArticleID: "a5", SystemID: "ghost", ImpactLevel: models.ImpactHigh},
		},
	}
}

func nodeByID(g models.SystemMap, id string) (models.MapNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return models.MapNode{}, false
}

func edgeByID(g models.SystemMap, id string) (models.MapEdge, bool) {
	for _, e := range g.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return models.MapEdge{}, false
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}
