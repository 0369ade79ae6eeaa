package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/cindral/core/internal/models"
	"github.com/cindral/core/internal/parser"
	"github.com/cindral/core/internal/render"
)

// filterFlags mirrors the query parameters of GET /api/system-map.
type filterFlags struct {
	tenant      string
	regulations []string
	levels      []string
	categories  []string
	query       string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.tenant, "tenant", "t", "", "organization id (required)")
	cmd.Flags().StringSliceVar(&f.regulations, "regulations", nil, "regulation ids to keep")
	cmd.Flags().StringSliceVar(&f.levels, "levels", nil, "impact levels to keep (critical, high, medium, low)")
	cmd.Flags().StringSliceVar(&f.categories, "categories", nil, "system categories to keep")
	cmd.Flags().StringVar(&f.query, "q", "", "case-insensitive search")
	_ = cmd.MarkFlagRequired("tenant")
}

func (f *filterFlags) filters() (models.Filters, error) {
	q := url.Values{}
	q["regulations"] = f.regulations
	q["impactLevels"] = f.levels
	q["categories"] = f.categories
	q.Set("q", f.query)
	return parser.ParseFilters(q)
}

// buildMap loads the tenant's map once with the requested filters applied.
func buildMap(ctx context.Context, opts *rootOptions, ff *filterFlags) (models.SystemMap, error) {
	filters, err := ff.filters()
	if err != nil {
		return models.SystemMap{}, err
	}

	a, err := newApp(ctx, opts.cfg, opts.logger)
	if err != nil {
		return models.SystemMap{}, err
	}
	defer a.close()

	s, err := a.sessions.Session(ctx, ff.tenant)
	if err != nil {
		return models.SystemMap{}, err
	}
	return s.SetFilters(filters), nil
}

func snapshotCmd(opts *rootOptions) *cobra.Command {
	var (
		ff    filterFlags
		out   string
		title string
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render a tenant's system map to SVG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := buildMap(cmd.Context(), opts, &ff)
			if err != nil {
				return err
			}

			ro := render.DefaultOptions()
			if title != "" {
				ro.Title = title
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("cannot create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			if err := render.SVG(w, g, ro); err != nil {
				return err
			}
			if out != "" && out != "-" {
				opts.logger.Info("snapshot written", "path", out, "nodes", len(g.Nodes), "edges", len(g.Edges))
			}
			return nil
		},
	}

	ff.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&title, "title", "", "diagram title")
	return cmd
}
