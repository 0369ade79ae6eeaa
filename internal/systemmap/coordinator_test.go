package systemmap

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cindral/core/internal/graph"
	"github.com/cindral/core/internal/models"
)

func loadedSession(t *testing.T) (*Session, *fakeBackend, *Coordinator) {
	t.Helper()
	backend := newFakeBackend()
	s, _ := newTestSession(t, backend)
	require.NoError(t, s.Load(context.Background()))
	return s, backend, NewCoordinator(backend, nil)
}

func impactEdges(g models.SystemMap) map[string]models.MapEdge {
	out := map[string]models.MapEdge{}
	for _, e := range g.Edges {
		if e.Type == models.EdgeTypeImpact {
			out[e.ID] = e
		}
	}
	return out
}

func TestCoordinator(t *testing.T) {
	ctx := context.Background()

	t.Run("create adds an edge after refetch", func(t *testing.T) {
		s, backend, c := loadedSession(t)

		err := c.CreateImpact(ctx, s, models.Impact{ArticleID: "a5", SystemID: "crm", ImpactLevel: models.ImpactHigh})

		require.NoError(t, err)
		assert.Equal(t, 2, backend.fetches)
		edge, ok := impactEdges(s.Graph())[graph.ImpactEdgeID("a5", "crm")]
		require.True(t, ok)
		assert.Equal(t, models.ImpactHigh, edge.Data.ImpactLevel)
	})

	t.Run("create on an existing pair updates it", func(t *testing.T) {
		s, _, c := loadedSession(t)

		err := c.CreateImpact(ctx, s, models.Impact{ArticleID: "a5", SystemID: "core", ImpactLevel: models.ImpactLow})

		require.NoError(t, err)
		edges := impactEdges(s.Graph())
		assert.Len(t, edges, 2)
		assert.Equal(t, models.ImpactLow, edges[graph.ImpactEdgeID("a5", "core")].Data.ImpactLevel)
	})

	t.Run("update trims and clears blank notes", func(t *testing.T) {
		s, backend, c := loadedSession(t)

		err := c.UpdateImpact(ctx, s, models.Impact{ArticleID: " a6 ", SystemID: "core", ImpactLevel: models.ImpactMedium, Notes: models.Ptr("   ")})

		require.NoError(t, err)
		assert.Nil(t, backend.lastNotes)
		assert.Equal(t, models.ImpactMedium, impactEdges(s.Graph())[graph.ImpactEdgeID("a6", "core")].Data.ImpactLevel)
	})

	t.Run("update of a missing pair is not found and leaves the graph", func(t *testing.T) {
		s, backend, c := loadedSession(t)
		before := s.Graph()

		err := c.UpdateImpact(ctx, s, models.Impact{ArticleID: "a5", SystemID: "crm", ImpactLevel: models.ImpactMedium})

		var me *MutationError
		require.True(t, errors.As(err, &me))
		assert.Equal(t, OpUpdate, me.Op)
		assert.Equal(t, KindNotFound, me.Kind)
		assert.True(t, errors.Is(err, models.ErrNotFound))
		assert.Equal(t, 1, backend.fetches)
		assert.Equal(t, before, s.Graph())
	})

	t.Run("delete then refetch has no edge for the pair", func(t *testing.T) {
		s, _, c := loadedSession(t)

		require.NoError(t, c.DeleteImpact(ctx, s, "a5", "core"))
		require.NoError(t, c.DeleteImpact(ctx, s, "a5", "core"))

		for _, e := range s.Graph().Edges {
			if e.Type == models.EdgeTypeImpact {
				assert.False(t, e.Data.ArticleID == "a5" && e.Data.SystemID == "core")
			}
		}
	})

	t.Run("edge id entry points decode the pair", func(t *testing.T) {
		s, backend, c := loadedSession(t)

		require.NoError(t, c.UpdateEdge(ctx, s, "impact-a6-core", models.ImpactHigh, nil))
		require.NoError(t, c.DeleteEdge(ctx, s, "impact-a5-core"))

		assert.Equal(t, []string{OpUpdate, OpDelete}, backend.writes)
		edges := impactEdges(s.Graph())
		assert.Len(t, edges, 1)
		assert.Equal(t, models.ImpactHigh, edges["impact-a6-core"].Data.ImpactLevel)
	})

	t.Run("unparseable edge ids are validation errors", func(t *testing.T) {
		s, backend, c := loadedSession(t)

		for _, id := range []string{"hier-dora-a5", "impact-", "impact-nohyphen", ""} {
			err := c.DeleteEdge(ctx, s, id)
			assert.Equal(t, KindValidation, Classify(err), id)
		}
		assert.Empty(t, backend.writes)
	})

	t.Run("input is validated before any call", func(t *testing.T) {
		s, backend, c := loadedSession(t)

		cases := []struct {
			name string
			imp  models.Impact
		}{
			{"missing article", models.Impact{SystemID: "core", ImpactLevel: models.ImpactLow}},
			{"missing system", models.Impact{ArticleID: "a5", ImpactLevel: models.ImpactLow}},
			{"bad level", models.Impact{ArticleID: "a5", SystemID: "core", ImpactLevel: "severe"}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				err := c.CreateImpact(ctx, s, tc.imp)

				var me *MutationError
				require.True(t, errors.As(err, &me))
				assert.Equal(t, KindValidation, me.Kind)
				assert.True(t, errors.Is(err, models.ErrInvalid))
			})
		}
		assert.Empty(t, backend.writes)
	})

	t.Run("refresh failure after a write is stale, not a mutation error", func(t *testing.T) {
		s, backend, c := loadedSession(t)
		backend.setFetchErr(errors.New("read replica down"))

		err := c.DeleteImpact(ctx, s, "a5", "core")

		assert.True(t, errors.Is(err, ErrStale))
		var me *MutationError
		assert.False(t, errors.As(err, &me))
	})
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"invalid", fmt.Errorf("x: %w", models.ErrInvalid), KindValidation},
		{"not found", fmt.Errorf("x: %w", models.ErrNotFound), KindNotFound},
		{"deadline", context.DeadlineExceeded, KindNetwork},
		{"canceled", fmt.Errorf("do: %w", context.Canceled), KindNetwork},
		{"net error", &url.Error{Op: "Get", URL: "http://backend", Err: timeoutErr{}}, KindNetwork},
		{"already typed", &MutationError{Kind: KindNotFound, Err: errors.New("gone")}, KindNotFound},
		{"other", errors.New("boom"), KindBackend},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestMutationErrorMessage(t *testing.T) {
	err := &MutationError{Op: OpDelete, Kind: KindNetwork, Err: errors.New("connection refused")}

	assert.Equal(t, "delete impact: network: connection refused", err.Error())
}
