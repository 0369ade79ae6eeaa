package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cindral/core/internal/graph"
	"github.com/cindral/core/internal/models"
)

func TestSQLiteCompliance(t *testing.T) {
	ctx := context.Background()

	t.Run("import then fetch derives counts and names", func(t *testing.T) {
		db := openTestDB(t)
		require.NoError(t, db.ImportDataset(ctx, "org_1", seedData()))

		data, err := db.Fetch(ctx, "org_1")

		require.NoError(t, err)
		require.Len(t, data.Regulations, 1)
		assert.Equal(t, 2, data.Regulations[0].ArticleCount)
		assert.Equal(t, models.RegulationActive, data.Regulations[0].Status)
		require.Len(t, data.Articles, 2)
		assert.Equal(t, "DORA", data.Articles[0].RegulationName)
		assert.Equal(t, 1, data.Articles[0].ImpactedSystemsCount)
		assert.Equal(t, "ICT risk management", models.Deref(data.Articles[0].Title))
		assert.Nil(t, data.Articles[1].Title)
		assert.Len(t, data.Systems, 2)
		assert.Len(t, data.Impacts, 2)
	})

	t.Run("fetch is scoped to the tenant", func(t *testing.T) {
		db := openTestDB(t)
		require.NoError(t, db.ImportDataset(ctx, "org_1", seedData()))

		data, err := db.Fetch(ctx, "org_2")

		require.NoError(t, err)
		assert.Empty(t, data.Regulations)
		assert.Empty(t, data.Impacts)
	})

	t.Run("import is idempotent", func(t *testing.T) {
		db := openTestDB(t)
		require.NoError(t, db.ImportDataset(ctx, "org_1", seedData()))
		require.NoError(t, db.ImportDataset(ctx, "org_1", seedData()))

		data, err := db.Fetch(ctx, "org_1")

		require.NoError(t, err)
		assert.Len(t, data.Articles, 2)
		assert.Len(t, data.Impacts, 2)
	})

	t.Run("create inserts a new impact", func(t *testing.T) {
		db := openTestDB(t)
		require.NoError(t, db.ImportDataset(ctx, "org_1", seedData()))

		err := db.CreateImpact(ctx, "org_1", models.Impact{ArticleID: "a5", SystemID: "crm", ImpactLevel: models.ImpactMedium})
		require.NoError(t, err)

		data, _ := db.Fetch(ctx, "org_1")
		assert.Len(t, data.Impacts, 3)
	})

	t.Run("create on an existing pair updates in place", func(t *testing.T) {
		db := openTestDB(t)
		require.NoError(t, db.ImportDataset(ctx, "org_1", seedData()))

		err := db.CreateImpact(ctx, "org_1", models.Impact{ArticleID: "a5", SystemID: "core", ImpactLevel: models.ImpactHigh, Notes: models.Ptr("again")})
		require.NoError(t, err)

		data, _ := db.Fetch(ctx, "org_1")
		require.Len(t, data.Impacts, 2)
		assert.Equal(t, models.ImpactHigh, data.Impacts[0].ImpactLevel)
		assert.Equal(t, "again", models.Deref(data.Impacts[0].Notes))
	})

	t.Run("create with unknown references is invalid", func(t *testing.T) {
		db := openTestDB(t)
		require.NoError(t, db.ImportDataset(ctx, "org_1", seedData()))

		err := db.CreateImpact(ctx, "org_1", models.Impact{ArticleID: "nope", SystemID: "core", ImpactLevel: models.ImpactLow})
		assert.True(t, errors.Is(err, models.ErrInvalid))

		err = db.CreateImpact(ctx, "org_1", models.Impact{ArticleID: "a5", SystemID: "nope", ImpactLevel: models.ImpactLow})
		assert.True(t, errors.Is(err, models.ErrInvalid))
	})

	t.Run("update changes level and clears notes", func(t *testing.T) {
		db := openTestDB(t)
		require.NoError(t, db.ImportDataset(ctx, "org_1", seedData()))

		err := db.UpdateImpact(ctx, "org_1", models.Impact{ArticleID: "a6", SystemID: "core", ImpactLevel: models.ImpactHigh})
		require.NoError(t, err)

		data, _ := db.Fetch(ctx, "org_1")
		assert.Equal(t, models.ImpactHigh, data.Impacts[1].ImpactLevel)
		assert.Nil(t, data.Impacts[1].Notes)
	})

	t.Run("update of a missing pair is not found", func(t *testing.T) {
		db := openTestDB(t)
		require.NoError(t, db.ImportDataset(ctx, "org_1", seedData()))

		err := db.UpdateImpact(ctx, "org_1", models.Impact{ArticleID: "a5", SystemID: "crm", ImpactLevel: models.ImpactHigh})

		assert.True(t, errors.Is(err, models.ErrNotFound))
	})

	t.Run("update does not cross tenants", func(t *testing.T) {
		db := openTestDB(t)
		require.NoError(t, db.ImportDataset(ctx, "org_1", seedData()))

		err := db.UpdateImpact(ctx, "org_2", models.Impact{ArticleID: "a5", SystemID: "core", ImpactLevel: models.ImpactHigh})

		assert.True(t, errors.Is(err, models.ErrNotFound))
	})

	t.Run("delete removes the edge from the rebuilt graph and repeats are no-ops", func(t *testing.T) {
		db := openTestDB(t)
		require.NoError(t, db.ImportDataset(ctx, "org_1", seedData()))

		require.NoError(t, db.DeleteImpact(ctx, "org_1", "a5", "core"))
		require.NoError(t, db.DeleteImpact(ctx, "org_1", "a5", "core"))

		data, err := db.Fetch(ctx, "org_1")
		require.NoError(t, err)
		g := graph.BuildGraph(*data, models.Filters{}, nil)
		for _, e := range g.Edges {
			assert.NotEqual(t, graph.ImpactEdgeID("a5", "core"), e.ID)
		}
		assert.Len(t, data.Impacts, 1)
	})
}

func TestParseDialect(t *testing.T) {
	for in, want := range map[string]Dialect{"sqlite": SQLite, "SQLite3": SQLite, "postgres": Postgres, "pq": Postgres} {
		got, err := ParseDialect(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDialect("mysql")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE x = ? AND y = ?"

	assert.Equal(t, q, SQLite.rebind(q))
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", Postgres.rebind(q))
}
