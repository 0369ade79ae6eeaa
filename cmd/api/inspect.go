package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cindral/core/internal/models"
)

var (
	heading = color.New(color.FgHiGreen, color.Bold)
	subtle  = color.New(color.FgHiBlack)
	warn    = color.New(color.FgYellow)
	bad     = color.New(color.FgRed)
)

var levelColor = map[models.ImpactLevel]*color.Color{
	models.ImpactCritical: bad,
	models.ImpactHigh:     warn,
	models.ImpactMedium:   color.New(color.FgCyan),
	models.ImpactLow:      subtle,
}

func inspectCmd(opts *rootOptions) *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a summary of a tenant's system map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := buildMap(cmd.Context(), opts, &ff)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), ff.tenant, g)
			return nil
		},
	}
	ff.register(cmd)
	return cmd
}

func printSummary(w io.Writer, tenant string, g models.SystemMap) {
	heading.Fprintf(w, "system map: %s\n", tenant)

	stats := g.Stats
	if stats == nil {
		stats = &models.Stats{}
	}
	fmt.Fprintf(w, "  nodes  %d\n", stats.TotalNodes)
	for _, t := range []string{models.NodeTypeRegulation, models.NodeTypeArticle, models.NodeTypeSystem} {
		subtle.Fprintf(w, "    %-11s %d\n", t, stats.NodesByType[t])
	}
	fmt.Fprintf(w, "  edges  %d\n", stats.TotalEdges)
	for _, level := range models.ImpactLevels {
		c := levelColor[level]
		c.Fprintf(w, "    %-11s %d\n", level, stats.EdgesByLevel[string(level)])
	}

	categories := map[string]bool{}
	for _, n := range g.Nodes {
		if n.Data.System != nil && n.Data.System.Category != nil {
			categories[*n.Data.System.Category] = true
		}
	}
	if len(categories) == 0 {
		return
	}
	names := make([]string, 0, len(categories))
	for c := range categories {
		names = append(names, c)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "  categories")
	for _, c := range names {
		subtle.Fprintf(w, "    %s\n", c)
	}
}
