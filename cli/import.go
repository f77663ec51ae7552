package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// importCommand creates the command that copies a notes file into a store.
func (c *CLI) importCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import [notes.json|notes.yaml|notes.csv]",
		Short: "Import notes and links into a SQLite note store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.readGraph(args[0])
			if err != nil {
				return err
			}

			db, err := c.openStore(cmd, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			notes, links, err := db.Import(cmd.Context(), g)
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}

			c.Logger.Info("import complete", "db", db.Path, "notes", notes, "links", links)
			fmt.Fprintf(c.Out, "%s %s notes, %s links → %s\n", StyleSuccess.Render("✓"),
				StyleNumber.Render(fmt.Sprint(notes)), StyleNumber.Render(fmt.Sprint(links)), StyleDim.Render(db.Path))
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite note store (default: ~/.notegraph/notes.db)")

	return cmd
}
