// Package render turns a laid-out note graph into SVG, ASCII, JSON or DOT output.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/TFMV/notegraph/errors"
	"github.com/TFMV/notegraph/graph"
	"github.com/TFMV/notegraph/models"
	"github.com/TFMV/notegraph/physics"
)

// OutputOptions defines rendering configuration options
type OutputOptions struct {
	Format     string  // Output format (svg, ascii, json, dot)
	Width      float64 // Width of the output in pixels
	Height     float64 // Height of the output in pixels
	Columns    int     // ASCII grid width; 0 derives it from Width
	Rows       int     // ASCII grid height; 0 derives it from Height
	Padding    float64 // Margin kept around the node bounding box
	Background string
	LinkColor  string
	NodeRadius float64
	FontSize   float64
	ShowLabels bool
	Title      string
	Timestamp  bool // Stamp the render time into the output
}

// Renderer interface defines methods that all rendering backends must implement
type Renderer interface {
	// Render creates a visualization of the graph using the provided options
	Render(graph *models.Graph, options *OutputOptions) ([]byte, error)

	// Name returns the name of the renderer
	Name() string

	// Description returns a description of the renderer
	Description() string
}

// NewDefaultOptions creates a default set of output options
func NewDefaultOptions(format string) *OutputOptions {
	return &OutputOptions{
		Format:     format,
		Width:      800,
		Height:     600,
		Padding:    40,
		Background: "#f8f8f8",
		LinkColor:  "#888888",
		NodeRadius: 8,
		FontSize:   10,
		ShowLabels: true,
	}
}

// GetRenderer returns the appropriate renderer based on format
func GetRenderer(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "svg":
		return &SVGRenderer{}, nil
	case "ascii", "txt":
		return &ASCIIRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "dot", "gv":
		return &DOTRenderer{}, nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported output format: %s", format)
	}
}

// Generate lays out g until it settles or maxTicks elapse, writes the final
// positions back onto g and renders it.
func Generate(ctx context.Context, g *models.Graph, params physics.Params, maxTicks int, options *OutputOptions) ([]byte, error) {
	renderer, err := GetRenderer(options.Format)
	if err != nil {
		return nil, err
	}

	layout := physics.NewForceDirectedLayout(params, maxTicks)
	layout.Initialize(g)
	for !layout.Step() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("layout interrupted after %d ticks: %w", layout.Ticks(), err)
		}
	}
	layout.Apply(g)

	return renderer.Render(g, options)
}

// projection maps graph coordinates into an output box, fitting the node
// bounding box with the given padding and preserving aspect ratio.
type projection struct {
	scale      float64
	offX, offY float64
	minX, minY float64
}

func newProjection(nodes []models.Node, width, height, padding float64) projection {
	p := projection{scale: 1, offX: width / 2, offY: height / 2}
	if len(nodes) == 0 {
		return p
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		minX, maxX = math.Min(minX, n.X), math.Max(maxX, n.X)
		minY, maxY = math.Min(minY, n.Y), math.Max(maxY, n.Y)
	}

	innerW := math.Max(width-2*padding, 1)
	innerH := math.Max(height-2*padding, 1)
	spanX := math.Max(maxX-minX, 1)
	spanY := math.Max(maxY-minY, 1)
	p.scale = math.Min(innerW/spanX, innerH/spanY)

	// Centre the scaled box inside the output.
	p.minX, p.minY = minX, minY
	p.offX = (width - spanX*p.scale) / 2
	p.offY = (height - spanY*p.scale) / 2
	if maxX == minX {
		p.offX = width / 2
	}
	if maxY == minY {
		p.offY = height / 2
	}
	return p
}

func (p projection) apply(x, y float64) (float64, float64) {
	return (x-p.minX)*p.scale + p.offX, (y-p.minY)*p.scale + p.offY
}

// resolvedLinks returns index pairs for every link whose endpoints are both
// present. Dangling links are omitted.
func resolvedLinks(g *models.Graph) [][2]int {
	idx := graph.Build(g.Nodes)
	out := make([][2]int, 0, len(g.Links))
	for _, l := range g.Links {
		if s, t, ok := idx.Resolve(l); ok {
			out = append(out, [2]int{s, t})
		}
	}
	return out
}

// SVGRenderer outputs SVG format
type SVGRenderer struct{}

// Name returns the name of the renderer
func (r *SVGRenderer) Name() string {
	return "SVG Renderer"
}

// Description returns a description of the renderer
func (r *SVGRenderer) Description() string {
	return "Renders note graphs as Scalable Vector Graphics"
}

// Render creates an SVG representation of the graph
func (r *SVGRenderer) Render(g *models.Graph, options *OutputOptions) ([]byte, error) {
	var buf bytes.Buffer
	proj := newProjection(g.Nodes, options.Width, options.Height, options.Padding)

	fmt.Fprintf(&buf, `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<svg width="%g" height="%g" viewBox="0 0 %g %g" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="%s"/>
`, options.Width, options.Height, options.Width, options.Height, html.EscapeString(options.Background))

	if options.Title != "" {
		fmt.Fprintf(&buf, "<title>%s</title>\n", html.EscapeString(options.Title))
	}

	buf.WriteString(`<g class="links">` + "\n")
	for _, pair := range resolvedLinks(g) {
		s, t := g.Nodes[pair[0]], g.Nodes[pair[1]]
		x1, y1 := proj.apply(s.X, s.Y)
		x2, y2 := proj.apply(t.X, t.Y)
		fmt.Fprintf(&buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1"/>`+"\n",
			x1, y1, x2, y2, html.EscapeString(options.LinkColor))
	}
	buf.WriteString("</g>\n")

	buf.WriteString(`<g class="notes">` + "\n")
	for _, n := range g.Nodes {
		x, y := proj.apply(n.X, n.Y)
		color := n.Color
		if color == "" {
			color = "#4285F4"
		}
		stroke := ""
		if n.Pinned {
			stroke = ` stroke="#000000" stroke-width="2"`
		}
		fmt.Fprintf(&buf, `<circle id="%s" cx="%.2f" cy="%.2f" r="%g" fill="%s"%s/>`+"\n",
			html.EscapeString(n.ID), x, y, options.NodeRadius, html.EscapeString(color), stroke)
		if options.ShowLabels {
			fmt.Fprintf(&buf, `<text x="%.2f" y="%.2f" font-family="Arial" font-size="%g" fill="#333333">%s</text>`+"\n",
				x+options.NodeRadius+2, y+options.FontSize/3, options.FontSize, html.EscapeString(n.DisplayLabel()))
		}
	}
	buf.WriteString("</g>\n")

	if options.Timestamp {
		fmt.Fprintf(&buf, `<text x="10" y="%g" font-family="Arial" font-size="8" fill="#999999">%s</text>`+"\n",
			options.Height-10, time.Now().Format("2006-01-02 15:04:05"))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

// ASCIIRenderer outputs plain text art
type ASCIIRenderer struct{}

// Name returns the name of the renderer
func (r *ASCIIRenderer) Name() string {
	return "ASCII Renderer"
}

// Description returns a description of the renderer
func (r *ASCIIRenderer) Description() string {
	return "Renders note graphs as ASCII art for terminal display"
}

const (
	noteSymbol   = 'O'
	pinnedSymbol = '#'
	linkSymbol   = '·'
)

// Render creates an ASCII representation of the graph
func (r *ASCIIRenderer) Render(g *models.Graph, options *OutputOptions) ([]byte, error) {
	width, height := options.Columns, options.Rows
	if width <= 0 {
		width = int(options.Width / 10)
	}
	if height <= 0 {
		height = int(options.Height / 20)
	}
	width = max(width, 10)
	height = max(height, 5)

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	for i := 0; i < width; i++ {
		grid[0][i] = '-'
		grid[height-1][i] = '-'
	}
	for i := 0; i < height; i++ {
		grid[i][0] = '|'
		grid[i][width-1] = '|'
	}
	grid[0][0], grid[0][width-1] = '+', '+'
	grid[height-1][0], grid[height-1][width-1] = '+', '+'

	// Inner area is (width-2) x (height-2) cells.
	proj := newProjection(g.Nodes, float64(width-3), float64(height-3), 0)
	cell := func(n models.Node) (int, int) {
		x, y := proj.apply(n.X, n.Y)
		return clamp(int(math.Round(x))+1, 1, width-2), clamp(int(math.Round(y))+1, 1, height-2)
	}

	for _, pair := range resolvedLinks(g) {
		x1, y1 := cell(g.Nodes[pair[0]])
		x2, y2 := cell(g.Nodes[pair[1]])
		drawLine(grid, x1, y1, x2, y2)
	}

	for _, n := range g.Nodes {
		x, y := cell(n)
		grid[y][x] = noteSymbol
		if n.Pinned {
			grid[y][x] = pinnedSymbol
		}
	}

	if options.ShowLabels {
		for _, n := range g.Nodes {
			x, y := cell(n)
			label := []rune(n.DisplayLabel())
			for i := 0; i < len(label) && x+2+i < width-1; i++ {
				if grid[y][x+2+i] == ' ' || grid[y][x+2+i] == linkSymbol {
					grid[y][x+2+i] = label[i]
				}
			}
		}
	}

	if options.Title != "" {
		title := []rune(" " + options.Title + " ")
		for i := 0; i < len(title) && i+2 < width-1; i++ {
			grid[0][i+2] = title[i]
		}
	}
	if options.Timestamp {
		stamp := []rune(" " + time.Now().Format("2006-01-02 15:04") + " ")
		for i := 0; i < len(stamp) && i+2 < width-1; i++ {
			grid[height-1][i+2] = stamp[i]
		}
	}

	var result strings.Builder
	for _, row := range grid {
		result.WriteString(string(row))
		result.WriteRune('\n')
	}
	return []byte(result.String()), nil
}

// JSONRenderer outputs the positioned graph as JSON
type JSONRenderer struct{}

// Name returns the name of the renderer
func (r *JSONRenderer) Name() string {
	return "JSON Renderer"
}

// Description returns a description of the renderer
func (r *JSONRenderer) Description() string {
	return "Renders note graphs as JSON for consumption by other tools"
}

// Render serializes the graph with its current positions
func (r *JSONRenderer) Render(g *models.Graph, options *OutputOptions) ([]byte, error) {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "error encoding graph JSON")
	}
	return append(data, '\n'), nil
}

// DOTRenderer outputs Graphviz DOT with fixed positions
type DOTRenderer struct{}

// Name returns the name of the renderer
func (r *DOTRenderer) Name() string {
	return "DOT Renderer"
}

// Description returns a description of the renderer
func (r *DOTRenderer) Description() string {
	return "Renders note graphs as Graphviz DOT with pinned node positions"
}

// Render creates a DOT representation of the graph. Links are undirected and
// positions are emitted in inches with the "!" suffix so neato keeps them.
func (r *DOTRenderer) Render(g *models.Graph, options *OutputOptions) ([]byte, error) {
	var buf bytes.Buffer

	name := g.Name
	if name == "" {
		name = "G"
	}
	fmt.Fprintf(&buf, "graph %s {\n", strconv.Quote(name))
	fmt.Fprintf(&buf, "  graph [bgcolor=%q, size=\"%g,%g\"];\n",
		options.Background, options.Width/72.0, options.Height/72.0)
	fmt.Fprintf(&buf, "  node [shape=circle, fontname=\"Arial\", fontsize=%g];\n", options.FontSize)
	fmt.Fprintf(&buf, "  edge [color=%q];\n", options.LinkColor)

	for _, n := range g.Nodes {
		color := n.Color
		if color == "" {
			color = "#4285F4"
		}
		fmt.Fprintf(&buf, "  %s [label=%s, color=%q, pos=\"%.2f,%.2f!\"];\n",
			strconv.Quote(n.ID), strconv.Quote(n.DisplayLabel()), color, n.X/72.0, -n.Y/72.0)
	}

	for _, pair := range resolvedLinks(g) {
		fmt.Fprintf(&buf, "  %s -- %s;\n", strconv.Quote(g.Nodes[pair[0]].ID), strconv.Quote(g.Nodes[pair[1]].ID))
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// drawLine plots a Bresenham line, leaving existing non-blank cells alone.
func drawLine(grid [][]rune, x1, y1, x2, y2 int) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx := 1
	if x1 >= x2 {
		sx = -1
	}
	sy := 1
	if y1 >= y2 {
		sy = -1
	}
	err := dx + dy

	for {
		if y1 >= 0 && y1 < len(grid) && x1 >= 0 && x1 < len(grid[y1]) && grid[y1][x1] == ' ' {
			grid[y1][x1] = linkSymbol
		}
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
