package systemmap

import (
	"context"
	"fmt"
	"sync"

	"github.com/cindral/core/internal/models"
)

func scenarioData() *models.SystemMapData {
	return &models.SystemMapData{
		Regulations: []models.Regulation{
			{ID: "dora", Name: "DORA", Framework: "EU", Status: models.RegulationActive, ArticleCount: 2},
		},
		Articles: []models.Article{
			{ID: "a5", ArticleNumber: "Art. 5", RegulationID: "dora", RegulationName: "DORA", ImpactedSystemsCount: 1},
			{ID: "a6", ArticleNumber: "Art. 6", RegulationID: "dora", RegulationName: "DORA", ImpactedSystemsCount: 1},
		},
		Systems: []models.System{
			{ID: "core", Name: "Core Banking", Category: models.Ptr("finance")},
			{ID: "crm", Name: "CRM", Category: models.Ptr("sales")},
		},
		Impacts: []models.Impact{
			{ArticleID: "a5", SystemID: "core", ImpactLevel: models.ImpactCritical},
			{ArticleID: "a6", SystemID: "core", ImpactLevel: models.ImpactLow, Notes: models.Ptr("reporting only")},
		},
	}
}

// fakeBackend keeps one tenant's dataset in memory with the backend's write
// semantics: create upserts, update needs an existing pair, delete is idempotent.
type fakeBackend struct {
	mu        sync.Mutex
	data      *models.SystemMapData
	fetchErr  error
	writeErr  error
	fetches   int
	writes    []string
	lastNotes *string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: scenarioData()}
}

func (f *fakeBackend) Fetch(_ context.Context, _ string) (*models.SystemMapData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	cp := *f.data
	cp.Impacts = append([]models.Impact(nil), f.data.Impacts...)
	return &cp, nil
}

func (f *fakeBackend) CreateImpact(_ context.Context, _ string, imp models.Impact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, OpCreate)
	if f.writeErr != nil {
		return f.writeErr
	}
	f.lastNotes = imp.Notes
	for i, existing := range f.data.Impacts {
		if existing.ArticleID == imp.ArticleID && existing.SystemID == imp.SystemID {
			f.data.Impacts[i] = imp
			return nil
		}
	}
	f.data.Impacts = append(f.data.Impacts, imp)
	return nil
}

func (f *fakeBackend) UpdateImpact(_ context.Context, _ string, imp models.Impact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, OpUpdate)
	if f.writeErr != nil {
		return f.writeErr
	}
	f.lastNotes = imp.Notes
	for i, existing := range f.data.Impacts {
		if existing.ArticleID == imp.ArticleID && existing.SystemID == imp.SystemID {
			f.data.Impacts[i] = imp
			return nil
		}
	}
	return fmt.Errorf("impact %s/%s: %w", imp.ArticleID, imp.SystemID, models.ErrNotFound)
}

func (f *fakeBackend) DeleteImpact(_ context.Context, _ string, articleID, systemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, OpDelete)
	if f.writeErr != nil {
		return f.writeErr
	}
	kept := f.data.Impacts[:0]
	for _, imp := range f.data.Impacts {
		if imp.ArticleID != articleID || imp.SystemID != systemID {
			kept = append(kept, imp)
		}
	}
	f.data.Impacts = kept
	return nil
}

func (f *fakeBackend) setFetchErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchErr = err
}

// gatedSource blocks its first fetch until release is closed.
type gatedSource struct {
	first, second *models.SystemMapData
	started       chan struct{}
	release       chan struct{}

	mu    sync.Mutex
	calls int
}

func (g *gatedSource) Fetch(ctx context.Context, _ string) (*models.SystemMapData, error) {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()

	if n == 1 {
		close(g.started)
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return g.first, nil
	}
	return g.second, nil
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }
