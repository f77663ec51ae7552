package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TFMV/notegraph/physics"
	"github.com/TFMV/notegraph/render"
)

// layoutCommand creates the layout command for one-shot rendering.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		format   string
		output   string
		maxTicks int
		width    float64
		height   float64
		pf       physicsFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [notes.json|notes.yaml|notes.csv]",
		Short: "Run the layout to rest and render it",
		Long: `Run the force-directed layout until it settles (or --max-ticks elapse)
and render the result as SVG, ASCII, JSON or DOT.

Output goes to --output, or to stdout when --output is "-".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := pf.apply(cmd, c.config.Physics)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("width") {
				params.Width = width
			}
			if cmd.Flags().Changed("height") {
				params.Height = height
			}
			if !cmd.Flags().Changed("max-ticks") {
				maxTicks = c.config.View.MaxTicks
			}
			return c.runLayout(cmd.Context(), args[0], format, output, maxTicks, params)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: svg, ascii, json, dot")
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file (default: <input>.<format>, "-" for stdout)`)
	cmd.Flags().IntVar(&maxTicks, "max-ticks", 2000, "upper bound on simulation ticks")
	cmd.Flags().Float64Var(&width, "width", 800, "viewport width")
	cmd.Flags().Float64Var(&height, "height", 600, "viewport height")
	pf.register(cmd)

	return cmd
}

// runLayout loads the notes, lays them out and writes the rendering.
func (c *CLI) runLayout(ctx context.Context, input, format, output string, maxTicks int, params physics.Params) error {
	g, err := c.readGraph(input)
	if err != nil {
		return err
	}
	palette, err := c.palette()
	if err != nil {
		return err
	}

	opts := render.NewDefaultOptions(format)
	opts.Width, opts.Height = params.Width, params.Height
	opts.Background = palette.Background
	opts.LinkColor = palette.LinkColor
	opts.Title = g.Name

	c.Logger.Info("computing layout", "notes", len(g.Nodes), "links", len(g.Links), "max_ticks", maxTicks)
	out, err := render.Generate(ctx, g, params, maxTicks, opts)
	if err != nil {
		return fmt.Errorf("layout %s: %w", input, err)
	}

	if output == "-" {
		_, err := c.Out.Write(out)
		return err
	}
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "." + strings.ToLower(format)
	}
	if err := os.WriteFile(output, out, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	fmt.Fprintf(c.Out, "%s %s\n", StyleSuccess.Render("✓"), output)
	return nil
}
