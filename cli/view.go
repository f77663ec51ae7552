package cli

import (
	"github.com/spf13/cobra"

	"github.com/TFMV/notegraph/physics"
	"github.com/TFMV/notegraph/tui"
)

// viewCommand creates the live terminal view command.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		fps int
		pf  physicsFlags
	)

	cmd := &cobra.Command{
		Use:   "view [notes.json|notes.yaml|notes.csv]",
		Short: "Watch the layout evolve in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := pf.apply(cmd, c.config.Physics)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("fps") {
				fps = c.config.View.FPS
			}

			g, err := c.readGraph(args[0])
			if err != nil {
				return err
			}
			sim := physics.NewSimulation(params, nil)
			sim.Load(g)
			return tui.Run(cmd.Context(), sim, g, fps)
		},
	}

	cmd.Flags().IntVar(&fps, "fps", 30, "frames per second")
	pf.register(cmd)

	return cmd
}
