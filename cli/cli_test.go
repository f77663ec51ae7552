package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/TFMV/notegraph/models"
	"github.com/TFMV/notegraph/physics"
	"github.com/TFMV/notegraph/store"
)

const sampleNotes = `{
  "name": "sample",
  "notes": [{"id": "a", "title": "Alpha"}, {"id": "b"}, {"id": "c"}],
  "links": [{"source": "a", "target": "b"}, {"source": "b", "target": "c"}, {"source": "c", "target": "gone"}]
}`

func newTestCLI(t *testing.T) (*CLI, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	c := New(io.Discard, LogInfo)
	c.Out = &out
	return c, &out
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestLayoutToStdout(t *testing.T) {
	c, out := newTestCLI(t)
	input := writeFile(t, "sample.json", sampleNotes)

	if err := execute(t, c, "layout", input, "-f", "json", "-o", "-", "--max-ticks", "50"); err != nil {
		t.Fatalf("layout: %v", err)
	}

	var g models.Graph
	if err := json.Unmarshal(out.Bytes(), &g); err != nil {
		t.Fatalf("output is not a graph: %v", err)
	}
	if len(g.Nodes) != 3 || len(g.Links) != 3 {
		t.Errorf("got %d nodes %d links, want 3 and 3", len(g.Nodes), len(g.Links))
	}
}

func TestLayoutDefaultOutputPath(t *testing.T) {
	c, out := newTestCLI(t)
	input := writeFile(t, "vault.json", sampleNotes)

	if err := execute(t, c, "layout", input, "--format", "dot", "--max-ticks", "20"); err != nil {
		t.Fatalf("layout: %v", err)
	}

	want := strings.TrimSuffix(input, ".json") + ".dot"
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("expected %s: %v", want, err)
	}
	if !strings.HasPrefix(string(data), `graph "sample" {`) {
		t.Errorf("unexpected DOT header: %q", strings.SplitN(string(data), "\n", 2)[0])
	}
	if !strings.Contains(out.String(), want) {
		t.Errorf("output %q does not name %s", out.String(), want)
	}
}

func TestLayoutRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args func(input string) []string
	}{
		{"unknown format", func(in string) []string { return []string{"layout", in, "-f", "png", "-o", "-"} }},
		{"unknown repulsion", func(in string) []string { return []string{"layout", in, "--repulsion", "magic"} }},
		{"negative rest length", func(in string) []string { return []string{"layout", in, "--rest-length", "-5"} }},
		{"missing file", func(in string) []string { return []string{"layout", in + ".missing.json"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCLI(t)
			input := writeFile(t, "sample.json", sampleNotes)
			if err := execute(t, c, tt.args(input)...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestConfigFileAppliesPhysics(t *testing.T) {
	c, _ := newTestCLI(t)
	cfg := writeFile(t, "notegraph.toml", "[physics]\nrest_length = 75\nrepulsion_mode = \"pairs\"\n")
	input := writeFile(t, "sample.json", sampleNotes)

	if err := execute(t, c, "--config", cfg, "layout", input, "-f", "json", "-o", "-", "--max-ticks", "5"); err != nil {
		t.Fatalf("layout: %v", err)
	}
	if c.config.Physics.RestLength != 75 || c.config.Physics.RepulsionMode != "pairs" {
		t.Errorf("physics = %+v, want rest 75 pairs", c.config.Physics)
	}
}

func TestPhysicsFlagsOverrideConfig(t *testing.T) {
	var pf physicsFlags
	cmd := &cobra.Command{Use: "test"}
	pf.register(cmd)
	if err := cmd.ParseFlags([]string{"--attraction", "0.5", "--workers", "4"}); err != nil {
		t.Fatal(err)
	}

	base := physics.DefaultParams()
	base.RestLength = 80
	got, err := pf.apply(cmd, base)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.Attraction != 0.5 || got.Workers != 4 {
		t.Errorf("overrides not applied: %+v", got)
	}
	if got.RestLength != 80 {
		t.Errorf("RestLength = %v, want config value 80 kept", got.RestLength)
	}
}

func TestImportIntoStore(t *testing.T) {
	c, out := newTestCLI(t)
	input := writeFile(t, "sample.json", sampleNotes)
	dbPath := filepath.Join(t.TempDir(), "notes.db")

	if err := execute(t, c, "import", input, "--db", dbPath); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out.String(), "3") {
		t.Errorf("output %q does not report counts", out.String())
	}

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	g, err := db.LoadGraph(context.Background())
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	if len(g.Nodes) != 3 || len(g.Links) != 3 {
		t.Errorf("stored %d notes %d links, want 3 and 3", len(g.Nodes), len(g.Links))
	}
	if len(g.DanglingLinks()) != 1 {
		t.Errorf("dangling = %d, want 1", len(g.DanglingLinks()))
	}
}

func TestServeRequiresSource(t *testing.T) {
	c, _ := newTestCLI(t)
	if err := execute(t, c, "serve"); err == nil {
		t.Error("serve without a file or --db should fail")
	}
}

func TestNoteCommands(t *testing.T) {
	input := writeFile(t, "sample.json", sampleNotes)
	dbPath := filepath.Join(t.TempDir(), "notes.db")

	c, _ := newTestCLI(t)
	if err := execute(t, c, "import", input, "--db", dbPath); err != nil {
		t.Fatalf("import: %v", err)
	}

	c, out := newTestCLI(t)
	if err := execute(t, c, "note", "show", "b", "--db", dbPath); err != nil {
		t.Fatalf("note show: %v", err)
	}
	if !strings.Contains(out.String(), "Alpha") || !strings.Contains(out.String(), "c") {
		t.Errorf("show output %q should list Alpha and c", out.String())
	}

	steps := [][]string{
		{"note", "link", "a", "c", "--db", dbPath},
		{"note", "unlink", "b", "a", "--db", dbPath},
		{"note", "rm", "c", "--db", dbPath},
	}
	for _, args := range steps {
		c, _ := newTestCLI(t)
		if err := execute(t, c, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	c, _ = newTestCLI(t)
	if err := execute(t, c, "note", "rm", "c", "--db", dbPath); err == nil {
		t.Error("removing a missing note should fail")
	}

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	g, err := db.LoadGraph(context.Background())
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Errorf("notes = %d, want 2 after rm", len(g.Nodes))
	}
	// b-c, c-gone and a-c remain; a-b is gone.
	if len(g.Links) != 3 {
		t.Errorf("links = %v, want 3", g.Links)
	}
	if got := len(g.DanglingLinks()); got != 3 {
		t.Errorf("dangling = %d, want 3 once c is removed", got)
	}
}
