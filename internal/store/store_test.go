package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cindral/core/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "cindral.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedData() *models.SystemMapData {
	return &models.SystemMapData{
		Regulations: []models.Regulation{
			{ID: "dora", Name: "DORA", Framework: "EU", Status: models.RegulationActive},
		},
		Articles: []models.Article{
			{ID: "a5", ArticleNumber: "Art. 5", Title: models.Ptr("ICT risk management"), RegulationID: "dora"},
			{ID: "a6", ArticleNumber: "Art. 6", RegulationID: "dora"},
		},
		Systems: []models.System{
			{ID: "core", Name: "Core Banking", Category: models.Ptr("finance"), Criticality: models.Ptr("high")},
			{ID: "crm", Name: "CRM"},
		},
		Impacts: []models.Impact{
			{ArticleID: "a5", SystemID: "core", ImpactLevel: models.ImpactCritical},
			{ArticleID: "a6", SystemID: "core", ImpactLevel: models.ImpactLow, Notes: models.Ptr("reporting")},
		},
	}
}
