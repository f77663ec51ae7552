package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/TFMV/notegraph/errors"
)

func TestJSONProcessor(t *testing.T) {
	data := []byte(`{
		"name": "zettel",
		"notes": [
			{"id": "a", "title": "Alpha"},
			{"id": "b", "title": "Beta", "pinned": true, "x": 10, "y": 20}
		],
		"links": [
			{"source": "a", "target": "b"},
			{"source": "a", "target": "gone"}
		]
	}`)

	g, err := NewJSONProcessor(nil).ProcessData(data)
	if err != nil {
		t.Fatalf("ProcessData: %v", err)
	}
	if g.Name != "zettel" {
		t.Errorf("Name = %q, want zettel", g.Name)
	}
	if len(g.Nodes) != 2 || len(g.Links) != 2 {
		t.Fatalf("got %d nodes %d links, want 2 and 2", len(g.Nodes), len(g.Links))
	}
	if g.Nodes[0].Label != "Alpha" {
		t.Errorf("Label = %q, want Alpha", g.Nodes[0].Label)
	}
	b := g.Nodes[1]
	if !b.Pinned || b.X != 10 || b.Y != 20 {
		t.Errorf("b = %+v, want pinned at (10, 20)", b)
	}
	if b.Color != DefaultPalette().PinnedColor {
		t.Errorf("pinned Color = %q, want %q", b.Color, DefaultPalette().PinnedColor)
	}
	if got := g.DanglingLinks(); len(got) != 1 || got[0].Target != "gone" {
		t.Errorf("DanglingLinks() = %v, want the link to gone", got)
	}
}

func TestJSONProcessorNodesEdgesAliases(t *testing.T) {
	data := []byte(`{"nodes":[{"id":"1","label":"one"},{"id":"2"}],"edges":[{"source":"1","target":"2"}]}`)
	g, err := NewJSONProcessor(nil).ProcessData(data)
	if err != nil {
		t.Fatalf("ProcessData: %v", err)
	}
	if len(g.Nodes) != 2 || len(g.Links) != 1 {
		t.Fatalf("got %d nodes %d links, want 2 and 1", len(g.Nodes), len(g.Links))
	}
	if g.Nodes[0].Label != "one" {
		t.Errorf("Label = %q, want one", g.Nodes[0].Label)
	}
	if g.Name != "JSON Import" {
		t.Errorf("Name = %q, want JSON Import", g.Name)
	}
}

func TestJSONProcessorErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		code errors.Code
	}{
		{"malformed", `{"notes": [`, errors.ErrCodeInvalidFormat},
		{"missing id", `{"notes":[{"title":"x"}]}`, errors.ErrCodeInvalidInput},
		{"duplicate id", `{"notes":[{"id":"a"},{"id":"a"}]}`, errors.ErrCodeInvalidInput},
		{"empty endpoint", `{"notes":[{"id":"a"}],"links":[{"source":"a"}]}`, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJSONProcessor(nil).ProcessData([]byte(tt.data))
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestYAMLProcessor(t *testing.T) {
	data := []byte(`
name: yaml graph
notes:
  - id: a
    title: Alpha
  - id: b
    pinned: true
links:
  - source: a
    target: b
`)
	g, err := NewYAMLProcessor(DarkPalette()).ProcessData(data)
	if err != nil {
		t.Fatalf("ProcessData: %v", err)
	}
	if g.Name != "yaml graph" || len(g.Nodes) != 2 || len(g.Links) != 1 {
		t.Fatalf("got %q with %d nodes %d links", g.Name, len(g.Nodes), len(g.Links))
	}
	if g.Nodes[0].Color != DarkPalette().NodeColors[0] {
		t.Errorf("Color = %q, want %q", g.Nodes[0].Color, DarkPalette().NodeColors[0])
	}
	if !g.Nodes[1].Pinned {
		t.Error("b not pinned")
	}

	if _, err := NewYAMLProcessor(nil).ProcessData([]byte("notes: [")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("malformed YAML err = %v, want INVALID_FORMAT", err)
	}
}

func TestCSVProcessor(t *testing.T) {
	data := []byte("Source,Target,source_title,target_title\n" +
		"a,b,Alpha,Beta\n" +
		"b,c,,Gamma\n" +
		"a,c,Ignored,\n")

	g, err := NewCSVProcessor(nil).ProcessData(data)
	if err != nil {
		t.Fatalf("ProcessData: %v", err)
	}
	if len(g.Nodes) != 3 || len(g.Links) != 3 {
		t.Fatalf("got %d nodes %d links, want 3 and 3", len(g.Nodes), len(g.Links))
	}

	want := map[string]string{"a": "Alpha", "b": "Beta", "c": "Gamma"}
	for _, n := range g.Nodes {
		if n.Label != want[n.ID] {
			t.Errorf("Label(%s) = %q, want %q", n.ID, n.Label, want[n.ID])
		}
	}
}

func TestCSVProcessorErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		code errors.Code
	}{
		{"empty", "", errors.ErrCodeInvalidFormat},
		{"no target column", "source,weight\na,1\n", errors.ErrCodeInvalidFormat},
		{"short row", "source,target\na\n", errors.ErrCodeInvalidInput},
		{"empty endpoint", "source,target\na,\n", errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCSVProcessor(nil).ProcessData([]byte(tt.data))
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestGetProcessor(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"json", "JSON Processor"},
		{"CSV", "CSV Processor"},
		{"yml", "YAML Processor"},
		{"yaml", "YAML Processor"},
	}
	for _, tt := range tests {
		p, err := GetProcessor(tt.format, nil)
		if err != nil {
			t.Fatalf("GetProcessor(%q): %v", tt.format, err)
		}
		if p.GetName() != tt.want {
			t.Errorf("GetProcessor(%q).GetName() = %q, want %q", tt.format, p.GetName(), tt.want)
		}
	}

	if _, err := GetProcessor("log", nil); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("GetProcessor(log) err = %v, want UNSUPPORTED", err)
	}
}

func TestPaletteByName(t *testing.T) {
	for _, name := range []string{"", "default", "light", "dark", "DARK"} {
		if _, err := PaletteByName(name); err != nil {
			t.Errorf("PaletteByName(%q): %v", name, err)
		}
	}
	if _, err := PaletteByName("neon"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("PaletteByName(neon) err = %v, want INVALID_INPUT", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.csv")
	if err := os.WriteFile(path, []byte("source,target\na,b\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	g, err := LoadFile(path, nil)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if g.Name != "vault" {
		t.Errorf("Name = %q, want vault", g.Name)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.json"), nil); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing file err = %v, want NOT_FOUND", err)
	}
	if _, err := LoadFile(filepath.Join(dir, "notes.txt"), nil); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("txt err = %v, want UNSUPPORTED", err)
	}
}
