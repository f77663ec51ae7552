package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TFMV/notegraph/models"
	"github.com/TFMV/notegraph/physics"
	"github.com/TFMV/notegraph/server"
	"github.com/TFMV/notegraph/store"
)

// serveCommand creates the HTTP server command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		dbPath string
		bind   string
		port   int
		fps    int
		pf     physicsFlags
	)

	cmd := &cobra.Command{
		Use:   "serve [notes file]",
		Short: "Serve the live layout over HTTP",
		Long: `Serve the live layout over HTTP.

Notes come from the given file or, with --db, from a SQLite note store. With a
store, POST /api/reload re-reads the notes while the layout keeps running.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := pf.apply(cmd, c.config.Physics)
			if err != nil {
				return err
			}
			cfg := c.config
			if cmd.Flags().Changed("db") {
				cfg.Database.Path = dbPath
			}
			if cmd.Flags().Changed("bind") {
				cfg.Server.Bind = bind
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("fps") {
				cfg.Server.FPS = fps
			}

			var (
				g      *models.Graph
				source models.GraphSource
			)
			switch {
			case len(args) == 1:
				if g, err = c.readGraph(args[0]); err != nil {
					return err
				}
			case cfg.Database.Path != "":
				db, err := store.Open(cfg.Database.Path)
				if err != nil {
					return fmt.Errorf("open store: %w", err)
				}
				defer db.Close()
				if g, err = db.LoadGraph(cmd.Context()); err != nil {
					return fmt.Errorf("load notes: %w", err)
				}
				source = db
			default:
				return fmt.Errorf("either a notes file or --db is required")
			}

			palette, err := c.palette()
			if err != nil {
				return err
			}
			palette.Colorize(g)

			sim := physics.NewSimulation(params, nil)
			sim.Load(g)

			srv := server.New(sim, server.Options{
				Addr:    cfg.ListenAddr(),
				FPS:     cfg.Server.FPS,
				Version: Version,
				Source:  source,
				Palette: palette,
				Logger:  c.Logger,
			})
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite note store")
	cmd.Flags().StringVar(&bind, "bind", "127.0.0.1", "listen address")
	cmd.Flags().IntVarP(&port, "port", "p", 37780, "listen port")
	cmd.Flags().IntVar(&fps, "fps", 60, "simulation ticks per second")
	pf.register(cmd)

	return cmd
}
