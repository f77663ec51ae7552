// Package cli implements the notegraph command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/TFMV/notegraph/config"
	"github.com/TFMV/notegraph/ingest"
	"github.com/TFMV/notegraph/models"
	"github.com/TFMV/notegraph/physics"
)

// Version is stamped at build time.
var Version = "dev"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Out    io.Writer // Command output; logs go to the logger's writer

	configPath string
	config     config.Config
}

// New creates a new CLI instance writing logs to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		Out:    os.Stdout,
		config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "notegraph",
		Short: "notegraph lays out linked notes with a force-directed simulation",
		Long: `notegraph runs a force-directed layout over a graph of linked notes.

Notes are read from JSON, YAML or CSV files or from a SQLite note store. The
layout can be rendered once, watched live in the terminal, or served over HTTP
for an interactive front end.`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "TOML config file (default: none)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.noteCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.config = cfg
	c.Logger.Debug("config loaded", "path", c.configPath, "repulsion", cfg.Physics.RepulsionMode)
	return nil
}

// =============================================================================
// Shared Flags
// =============================================================================

// physicsFlags are per-command overrides of the [physics] config section.
type physicsFlags struct {
	restLength    float64
	attraction    float64
	repulsionMode string
	workers       int
	seed          int64
}

func (f *physicsFlags) register(cmd *cobra.Command) {
	d := physics.DefaultParams()
	cmd.Flags().Float64Var(&f.restLength, "rest-length", d.RestLength, "spring rest length")
	cmd.Flags().Float64Var(&f.attraction, "attraction", d.Attraction, "spring coefficient")
	cmd.Flags().StringVar(&f.repulsionMode, "repulsion", d.RepulsionMode, "repulsion mode: none, pairs, barneshut")
	cmd.Flags().IntVar(&f.workers, "workers", d.Workers, "goroutines for the link pass")
	cmd.Flags().Int64Var(&f.seed, "seed", d.Seed, "placement seed")
}

// apply overlays explicitly set flags onto p.
func (f *physicsFlags) apply(cmd *cobra.Command, p physics.Params) (physics.Params, error) {
	if cmd.Flags().Changed("rest-length") {
		p.RestLength = f.restLength
	}
	if cmd.Flags().Changed("attraction") {
		p.Attraction = f.attraction
	}
	if cmd.Flags().Changed("repulsion") {
		p.RepulsionMode = f.repulsionMode
	}
	if cmd.Flags().Changed("workers") {
		p.Workers = f.workers
	}
	if cmd.Flags().Changed("seed") {
		p.Seed = f.seed
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("invalid physics settings: %w", err)
	}
	return p, nil
}

// =============================================================================
// Helpers
// =============================================================================

func (c *CLI) palette() (*ingest.Palette, error) {
	return ingest.PaletteByName(c.config.View.Palette)
}

// readGraph loads a note graph file with the configured palette.
func (c *CLI) readGraph(path string) (*models.Graph, error) {
	palette, err := c.palette()
	if err != nil {
		return nil, err
	}
	g, err := ingest.LoadFile(path, palette)
	if err != nil {
		return nil, fmt.Errorf("load notes %s: %w", path, err)
	}
	c.Logger.Debug("notes loaded", "path", path, "notes", len(g.Nodes), "links", len(g.Links),
		"dangling", len(g.DanglingLinks()))
	return g, nil
}
