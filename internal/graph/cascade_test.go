package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cindral/core/internal/models"
)

func regIDs(f Filtered) []string {
	return ids(f.Regulations, func(r models.Regulation) string { return r.ID })
}

func artIDs(f Filtered) []string {
	return ids(f.Articles, func(a models.Article) string { return a.ID })
}

func sysIDs(f Filtered) []string {
	return ids(f.Systems, func(s models.System) string { return s.ID })
}

func impactIDs(f Filtered) []string {
	return ids(f.Impacts, func(i models.Impact) string { return ImpactEdgeID(i.ArticleID, i.SystemID) })
}

func TestCascade(t *testing.T) {
	t.Run("no filters keeps everything reachable", func(t *testing.T) {
		f := Cascade(multiData(), models.Filters{})

		assert.Equal(t, []string{"dora", "gdpr"}, regIDs(f))
		assert.Equal(t, []string{"a5", "a6", "g32"}, artIDs(f))
		assert.Equal(t, []string{"impact-a5-core", "impact-a6-crm", "impact-g32-crm", "impact-g32-hr", "impact-a5-ghost"}, impactIDs(f))
		assert.Equal(t, []string{"core", "crm", "hr"}, sysIDs(f))
	})

	t.Run("article without regulation is dropped", func(t *testing.T) {
		f := Cascade(multiData(), models.Filters{})

		assert.NotContains(t, artIDs(f), "orphan")
		assert.NotContains(t, impactIDs(f), "impact-orphan-hr")
	})

	t.Run("unimpacted system is dropped", func(t *testing.T) {
		f := Cascade(multiData(), models.Filters{})

		assert.NotContains(t, sysIDs(f), "idle")
	})

	t.Run("regulation filter cascades down", func(t *testing.T) {
		f := Cascade(multiData(), models.Filters{Regulations: []string{"gdpr"}})

		assert.Equal(t, []string{"gdpr"}, regIDs(f))
		assert.Equal(t, []string{"g32"}, artIDs(f))
		assert.Equal(t, []string{"impact-g32-crm", "impact-g32-hr"}, impactIDs(f))
		assert.Equal(t, []string{"crm", "hr"}, sysIDs(f))
	})

	t.Run("unknown regulation id empties the cascade", func(t *testing.T) {
		f := Cascade(multiData(), models.Filters{Regulations: []string{"nope"}})

		assert.Empty(t, f.Regulations)
		assert.Empty(t, f.Articles)
		assert.Empty(t, f.Impacts)
		assert.Empty(t, f.Systems)
	})

	t.Run("impact level filter narrows impacts and systems", func(t *testing.T) {
		f := Cascade(multiData(), models.Filters{ImpactLevels: []models.ImpactLevel{models.ImpactCritical}})

		assert.Equal(t, []string{"impact-a5-core"}, impactIDs(f))
		assert.Equal(t, []string{"core"}, sysIDs(f))
		assert.Len(t, f.Articles, 3)
	})

	t.Run("category filter narrows systems only", func(t *testing.T) {
		f := Cascade(multiData(), models.Filters{SystemCategories: []string{"finance"}})

		assert.Equal(t, []string{"core"}, sysIDs(f))
		assert.Len(t, f.Impacts, 5)
	})

	t.Run("category filter excludes uncategorized systems", func(t *testing.T) {
		data := scenarioData()
		data.Systems[0].Category = nil

		f := Cascade(data, models.Filters{SystemCategories: []string{"finance"}})

		assert.Empty(t, f.Systems)
	})

	t.Run("search narrows systems to matches", func(t *testing.T) {
		f := Cascade(multiData(), models.Filters{SearchQuery: "crm"})

		assert.Equal(t, []string{"crm"}, sysIDs(f))
		assert.Len(t, f.Articles, 3)
	})

	t.Run("search is case-insensitive and matches category", func(t *testing.T) {
		f := Cascade(multiData(), models.Filters{SearchQuery: "  FINANCE "})

		assert.Equal(t, []string{"core"}, sysIDs(f))
	})

	t.Run("search matching only non-system entities leaves no systems", func(t *testing.T) {
		f := Cascade(multiData(), models.Filters{SearchQuery: "security of"})

		assert.Empty(t, f.Systems)
		assert.Len(t, f.Regulations, 2)
	})

	t.Run("search with no hits is ignored", func(t *testing.T) {
		want := Cascade(multiData(), models.Filters{Regulations: []string{"dora"}})
		got := Cascade(multiData(), models.Filters{Regulations: []string{"dora"}, SearchQuery: "nonexistent-zzz"})

		assert.Equal(t, want, got)
	})

	t.Run("empty dataset yields empty non-nil sets", func(t *testing.T) {
		f := Cascade(models.SystemMapData{}, models.Filters{})

		assert.NotNil(t, f.Regulations)
		assert.NotNil(t, f.Systems)
		assert.Empty(t, f.Impacts)
	})
}

func TestExtractCategories(t *testing.T) {
	t.Run("distinct and sorted", func(t *testing.T) {
		cats := ExtractCategories(multiData().Systems)

		assert.Equal(t, []string{"finance", "people", "sales"}, cats)
	})

	t.Run("skips missing categories", func(t *testing.T) {
		cats := ExtractCategories([]models.System{{ID: "a"}, {ID: "b", Category: models.Ptr("")}})

		assert.Empty(t, cats)
		assert.NotNil(t, cats)
	})
}
