// Package render draws a static SVG snapshot of a System Map.
package render

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/cindral/core/internal/graph"
	"github.com/cindral/core/internal/models"
)

const (
	colorBackdrop = "#f8fafc"
	colorHeaderBG = "#e2e8f0"
	colorText     = "#0f172a"
	colorSubtle   = "#475569"

	headerHeight = 72
	legendWidth  = 150
	fontFamily   = "font-family:Inter,Helvetica,Arial,sans-serif"
)

type Options struct {
	Title   string
	Padding int
	// Legend adds the impact level key to the header.
	Legend bool
}

func DefaultOptions() Options {
	return Options{Title: "System Map", Padding: 40, Legend: true}
}

// errWriter keeps the first write error; svgo discards them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}

type bounds struct {
	minX, minY, maxX, maxY float64
}

func measure(g models.SystemMap) bounds {
	if len(g.Nodes) == 0 {
		return bounds{}
	}
	b := bounds{minX: math.Inf(1), minY: math.Inf(1), maxX: math.Inf(-1), maxY: math.Inf(-1)}
	for _, n := range g.Nodes {
		b.minX = math.Min(b.minX, n.Position.X)
		b.minY = math.Min(b.minY, n.Position.Y)
		b.maxX = math.Max(b.maxX, n.Position.X+float64(n.Data.Style.Width))
		b.maxY = math.Max(b.maxY, n.Position.Y+float64(n.Data.Style.Height))
	}
	return b
}

// SVG writes g to w. Node coordinates are shifted so dragged nodes with
// negative positions stay on the canvas.
func SVG(w io.Writer, g models.SystemMap, opts Options) error {
	if opts.Padding <= 0 {
		opts.Padding = DefaultOptions().Padding
	}
	b := measure(g)
	pad := float64(opts.Padding)
	offX := pad - b.minX
	offY := pad + headerHeight - b.minY

	width := int(math.Ceil(b.maxX-b.minX+2*pad)) + legendWidth
	height := int(math.Ceil(b.maxY-b.minY+2*pad)) + headerHeight

	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:"+colorBackdrop)
	canvas.Rect(0, 0, width, headerHeight-16, "fill:"+colorHeaderBG)

	drawHeader(canvas, g, opts)
	if opts.Legend {
		drawLegend(canvas, width-legendWidth+10, 14)
	}

	byID := make(map[string]models.MapNode, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}

	canvas.Gstyle("fill:none")
	for _, e := range g.Edges {
		from, okFrom := byID[e.Source]
		to, okTo := byID[e.Target]
		if !okFrom || !okTo {
			continue
		}
		x1 := int(from.Position.X + offX + float64(from.Data.Style.Width))
		y1 := int(from.Position.Y + offY + float64(from.Data.Style.Height)/2)
		x2 := int(to.Position.X + offX)
		y2 := int(to.Position.Y + offY + float64(to.Data.Style.Height)/2)
		if e.Data.Style.Animated {
			canvas.Line(x1, y1, x2, y2, edgeStyle(e.Data.Style), `class="animated"`)
		} else {
			canvas.Line(x1, y1, x2, y2, edgeStyle(e.Data.Style))
		}
	}
	canvas.Gend()

	for _, n := range g.Nodes {
		drawNode(canvas, n, int(n.Position.X+offX), int(n.Position.Y+offY))
	}

	canvas.End()
	if ew.err != nil {
		return fmt.Errorf("failed to write svg: %w", ew.err)
	}
	return nil
}

func edgeStyle(s models.EdgeStyle) string {
	style := fmt.Sprintf("stroke:%s;stroke-width:%g", s.Stroke, s.StrokeWidth)
	if s.Dashed {
		style += ";stroke-dasharray:6,4"
	}
	return style
}

func drawHeader(canvas *svg.SVG, g models.SystemMap, opts Options) {
	title := opts.Title
	if title == "" {
		title = DefaultOptions().Title
	}
	canvas.Text(20, 26, title, fmt.Sprintf("fill:%s;font-size:16px;font-weight:bold;%s", colorText, fontFamily))

	summary := fmt.Sprintf("nodes: %d  edges: %d", len(g.Nodes), len(g.Edges))
	if g.Stats != nil {
		impacts := 0
		for _, n := range g.Stats.EdgesByLevel {
			impacts += n
		}
		summary = fmt.Sprintf("regulations: %d  articles: %d  systems: %d  impacts: %d",
			g.Stats.NodesByType[models.NodeTypeRegulation],
			g.Stats.NodesByType[models.NodeTypeArticle],
			g.Stats.NodesByType[models.NodeTypeSystem],
			impacts)
	}
	canvas.Text(20, 46, summary, fmt.Sprintf("fill:%s;font-size:12px;%s", colorSubtle, fontFamily))
}

func drawLegend(canvas *svg.SVG, x, y int) {
	for i, level := range models.ImpactLevels {
		style := graph.ImpactEdgeStyle(level)
		ly := y + i*11
		canvas.Line(x, ly, x+24, ly, edgeStyle(style))
		canvas.Text(x+30, ly+4, string(level), fmt.Sprintf("fill:%s;font-size:10px;%s", colorSubtle, fontFamily))
	}
}

func drawNode(canvas *svg.SVG, n models.MapNode, x, y int) {
	s := n.Data.Style
	canvas.Roundrect(x, y, s.Width, s.Height, 8, 8,
		fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1.5", s.Fill, s.Border))
	canvas.Text(x+12, y+22, truncate(n.Data.Label, 28),
		fmt.Sprintf("fill:%s;font-size:13px;font-weight:bold;%s", colorText, fontFamily))
	if n.Data.Sublabel != "" {
		canvas.Text(x+12, y+40, truncate(n.Data.Sublabel, 32),
			fmt.Sprintf("fill:%s;font-size:11px;%s", colorSubtle, fontFamily))
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
