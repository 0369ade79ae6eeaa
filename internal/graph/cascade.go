package graph

import (
	"sort"
	"strings"

	"github.com/cindral/core/internal/models"
)

// Filtered is the entity subset that survives a filter selection.
type Filtered struct {
	Regulations []models.Regulation
	Articles    []models.Article
	Systems     []models.System
	Impacts     []models.Impact
}

// Cascade narrows data by f. Regulations scope articles, articles scope
// impacts, impacts scope systems. Input order is preserved at every level and
// dangling references are dropped without error.
//
// A search query that matches nothing is ignored and the cascaded sets are
// returned unchanged. When something does match, systems are narrowed to the
// matched systems.
func Cascade(data models.SystemMapData, f models.Filters) Filtered {
	out := Filtered{
		Regulations: []models.Regulation{},
		Articles:    []models.Article{},
		Systems:     []models.System{},
		Impacts:     []models.Impact{},
	}

	wantRegs := toSet(f.Regulations)
	regIDs := make(map[string]bool, len(data.Regulations))
	for _, reg := range data.Regulations {
		if len(wantRegs) > 0 && !wantRegs[reg.ID] {
			continue
		}
		out.Regulations = append(out.Regulations, reg)
		regIDs[reg.ID] = true
	}

	artIDs := make(map[string]bool, len(data.Articles))
	for _, art := range data.Articles {
		if !regIDs[art.RegulationID] {
			continue
		}
		out.Articles = append(out.Articles, art)
		artIDs[art.ID] = true
	}

	wantLevels := make(map[models.ImpactLevel]bool, len(f.ImpactLevels))
	for _, l := range f.ImpactLevels {
		wantLevels[l] = true
	}
	impactedSystems := make(map[string]bool)
	for _, imp := range data.Impacts {
		if !artIDs[imp.ArticleID] {
			continue
		}
		if len(wantLevels) > 0 && !wantLevels[imp.ImpactLevel] {
			continue
		}
		out.Impacts = append(out.Impacts, imp)
		impactedSystems[imp.SystemID] = true
	}

	wantCats := toSet(f.SystemCategories)
	for _, sys := range data.Systems {
		if !impactedSystems[sys.ID] {
			continue
		}
		if len(wantCats) > 0 && !wantCats[models.Deref(sys.Category)] {
			continue
		}
		out.Systems = append(out.Systems, sys)
	}

	if q := strings.ToLower(strings.TrimSpace(f.SearchQuery)); q != "" {
		applySearch(&out, q)
	}

	return out
}

func applySearch(out *Filtered, q string) {
	matched := 0
	for _, reg := range out.Regulations {
		if contains(reg.Name, q) || contains(reg.Framework, q) {
			matched++
		}
	}
	for _, art := range out.Articles {
		if contains(art.ArticleNumber, q) || contains(models.Deref(art.Title), q) {
			matched++
		}
	}
	systems := make([]models.System, 0, len(out.Systems))
	for _, sys := range out.Systems {
		if contains(sys.Name, q) || contains(models.Deref(sys.Category), q) {
			systems = append(systems, sys)
		}
	}
	matched += len(systems)

	if matched == 0 {
		return
	}
	out.Systems = systems
}

// ExtractCategories returns the distinct non-empty system categories, sorted.
func ExtractCategories(systems []models.System) []string {
	seen := make(map[string]bool)
	cats := []string{}
	for _, sys := range systems {
		c := models.Deref(sys.Category)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

func contains(s, lowerQuery string) bool {
	return s != "" && strings.Contains(strings.ToLower(s), lowerQuery)
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
