package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TFMV/notegraph/errors"
	"github.com/TFMV/notegraph/models"
)

// DataProcessor defines the interface that all data processors must implement
type DataProcessor interface {
	// ProcessData takes raw data bytes and returns a note graph
	ProcessData(data []byte) (*models.Graph, error)

	// GetName returns the name of the processor
	GetName() string
}

// Palette provides color schemes for graph visualization
type Palette struct {
	NodeColors  []string
	PinnedColor string
	LinkColor   string
	Background  string
}

// DefaultPalette returns a light palette
func DefaultPalette() *Palette {
	return &Palette{
		NodeColors: []string{
			"#4285F4", // Blue
			"#EA4335", // Red
			"#FBBC05", // Yellow
			"#34A853", // Green
			"#673AB7", // Purple
			"#3F51B5", // Indigo
			"#00BCD4", // Cyan
			"#009688", // Teal
			"#FF5722", // Deep Orange
		},
		PinnedColor: "#212121",
		LinkColor:   "#888888",
		Background:  "#f8f8f8",
	}
}

// DarkPalette returns a high-contrast palette for dark backgrounds
func DarkPalette() *Palette {
	return &Palette{
		NodeColors: []string{
			"#FF6D00", // Amber
			"#2979FF", // Blue
			"#00E676", // Green
			"#F50057", // Pink
			"#651FFF", // Deep Purple
			"#C6FF00", // Lime
			"#00B0FF", // Light Blue
		},
		PinnedColor: "#FFFFFF",
		LinkColor:   "#9C27B0",
		Background:  "#212121",
	}
}

// PaletteByName resolves a palette name from configuration
func PaletteByName(name string) (*Palette, error) {
	switch strings.ToLower(name) {
	case "", "default", "light":
		return DefaultPalette(), nil
	case "dark":
		return DarkPalette(), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown palette %q", name)
	}
}

// Colorize assigns palette colors to every node in g, in node order
func (p *Palette) Colorize(g *models.Graph) {
	for i := range g.Nodes {
		if g.Nodes[i].Pinned {
			g.Nodes[i].Color = p.PinnedColor
			continue
		}
		g.Nodes[i].Color = p.NodeColors[i%len(p.NodeColors)]
	}
}

// document is the shared JSON/YAML shape. Nodes and Edges are accepted as
// aliases for Notes and Links.
type document struct {
	Name  string       `json:"name" yaml:"name"`
	Notes []noteRecord `json:"notes" yaml:"notes"`
	Nodes []noteRecord `json:"nodes" yaml:"nodes"`
	Links []linkRecord `json:"links" yaml:"links"`
	Edges []linkRecord `json:"edges" yaml:"edges"`
}

type noteRecord struct {
	ID     string   `json:"id" yaml:"id"`
	Title  string   `json:"title" yaml:"title"`
	Label  string   `json:"label" yaml:"label"`
	Pinned bool     `json:"pinned" yaml:"pinned"`
	X      *float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y      *float64 `json:"y,omitempty" yaml:"y,omitempty"`
}

type linkRecord struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// build converts a decoded document into a graph. Links may name notes that
// are absent; they are kept as dangling links.
func (d *document) build(defaultName string, palette *Palette) (*models.Graph, error) {
	name := d.Name
	if name == "" {
		name = defaultName
	}
	g := models.NewGraph(name)

	seen := make(map[string]struct{}, len(d.Notes)+len(d.Nodes))
	for _, rec := range append(d.Notes, d.Nodes...) {
		if rec.ID == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "note without id")
		}
		if _, dup := seen[rec.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate note id %q", rec.ID)
		}
		seen[rec.ID] = struct{}{}

		title := rec.Title
		if title == "" {
			title = rec.Label
		}
		node := models.NewNode(rec.ID, title)
		node.Pinned = rec.Pinned
		if rec.X != nil && rec.Y != nil {
			node.SetPosition(*rec.X, *rec.Y)
		}
		g.AddNode(node)
	}

	for _, rec := range append(d.Links, d.Edges...) {
		if err := g.AddLink(models.NewLink(rec.Source, rec.Target)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid link")
		}
	}

	palette.Colorize(g)
	return g, nil
}

// JSONProcessor handles JSON data
type JSONProcessor struct {
	palette *Palette
}

// NewJSONProcessor creates a new JSON processor with the specified palette
func NewJSONProcessor(palette *Palette) *JSONProcessor {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &JSONProcessor{palette: palette}
}

// GetName returns the name of the processor
func (p *JSONProcessor) GetName() string {
	return "JSON Processor"
}

// ProcessData processes JSON data
func (p *JSONProcessor) ProcessData(data []byte) (*models.Graph, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "error parsing JSON")
	}
	return doc.build("JSON Import", p.palette)
}

// YAMLProcessor handles YAML data with the same shape as JSON
type YAMLProcessor struct {
	palette *Palette
}

// NewYAMLProcessor creates a new YAML processor with the specified palette
func NewYAMLProcessor(palette *Palette) *YAMLProcessor {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &YAMLProcessor{palette: palette}
}

// GetName returns the name of the processor
func (p *YAMLProcessor) GetName() string {
	return "YAML Processor"
}

// ProcessData processes YAML data
func (p *YAMLProcessor) ProcessData(data []byte) (*models.Graph, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "error parsing YAML")
	}
	return doc.build("YAML Import", p.palette)
}

// CSVProcessor handles CSV link lists. Every row is one link; notes are
// created from the endpoints in order of first appearance.
type CSVProcessor struct {
	palette *Palette
}

// NewCSVProcessor creates a new CSV processor with the specified palette
func NewCSVProcessor(palette *Palette) *CSVProcessor {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &CSVProcessor{palette: palette}
}

// GetName returns the name of the processor
func (p *CSVProcessor) GetName() string {
	return "CSV Processor"
}

// ProcessData processes CSV data
func (p *CSVProcessor) ProcessData(data []byte) (*models.Graph, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "error reading CSV header")
	}

	sourceIdx, targetIdx := -1, -1
	sourceTitleIdx, targetTitleIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "source", "from", "src":
			sourceIdx = i
		case "target", "to", "dst":
			targetIdx = i
		case "source_title", "from_title":
			sourceTitleIdx = i
		case "target_title", "to_title":
			targetTitleIdx = i
		}
	}
	if sourceIdx == -1 || targetIdx == -1 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "CSV must contain source and target columns")
	}

	g := models.NewGraph("CSV Import")
	titles := make(map[string]int) // note id -> node position

	addNote := func(id string, row []string, titleIdx int) {
		pos, exists := titles[id]
		if !exists {
			pos = len(g.Nodes)
			titles[id] = pos
			g.AddNode(models.NewNode(id, ""))
		}
		if titleIdx >= 0 && titleIdx < len(row) && g.Nodes[pos].Label == "" {
			g.Nodes[pos].Label = strings.TrimSpace(row[titleIdx])
		}
	}

	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "error reading CSV row %d", line)
		}
		if sourceIdx >= len(row) || targetIdx >= len(row) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "CSV row %d is missing source or target", line)
		}

		sourceID := strings.TrimSpace(row[sourceIdx])
		targetID := strings.TrimSpace(row[targetIdx])
		if sourceID == "" || targetID == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "CSV row %d has an empty endpoint", line)
		}
		addNote(sourceID, row, sourceTitleIdx)
		addNote(targetID, row, targetTitleIdx)

		if err := g.AddLink(models.NewLink(sourceID, targetID)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "CSV row %d", line)
		}
	}

	p.palette.Colorize(g)
	return g, nil
}

// GetProcessor returns the appropriate processor for the given format
func GetProcessor(format string, palette *Palette) (DataProcessor, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONProcessor(palette), nil
	case "csv":
		return NewCSVProcessor(palette), nil
	case "yaml", "yml":
		return NewYAMLProcessor(palette), nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
	}
}

// FormatFromPath infers the input format from a file extension
func FormatFromPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// LoadFile reads and parses a note graph file, choosing the processor by extension
func LoadFile(path string, palette *Palette) (*models.Graph, error) {
	proc, err := GetProcessor(FormatFromPath(path), palette)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "read %s", path)
	}
	g, err := proc.ProcessData(data)
	if err != nil {
		return nil, err
	}
	if g.Name == "JSON Import" || g.Name == "YAML Import" || g.Name == "CSV Import" {
		g.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return g, nil
}
