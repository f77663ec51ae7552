package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TFMV/notegraph/models"
	"github.com/TFMV/notegraph/store"
)

// openStore opens the note store named by --db, the config, or the default path.
func (c *CLI) openStore(cmd *cobra.Command, dbPath string) (*store.DB, error) {
	if !cmd.Flags().Changed("db") {
		dbPath = c.config.Database.Path
	}
	if dbPath == "" {
		var err error
		if dbPath, err = store.DefaultDBPath(); err != nil {
			return nil, err
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

// noteCommand groups the commands that edit single notes and links in a store.
func (c *CLI) noteCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "note",
		Short: "Inspect and edit notes and links in a SQLite note store",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite note store (default: ~/.notegraph/notes.db)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a note and its linked notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.openStore(cmd, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := db.GetNote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			g, err := db.LoadGraph(cmd.Context())
			if err != nil {
				return fmt.Errorf("load notes: %w", err)
			}

			title := n.Title
			if title == "" {
				title = StyleDim.Render("(untitled)")
			}
			fmt.Fprintf(c.Out, "%s  %s", StyleNumber.Render(n.ID), title)
			if n.Pinned {
				fmt.Fprint(c.Out, StyleDim.Render("  pinned"))
			}
			fmt.Fprintln(c.Out)

			for _, id := range g.Neighbors(n.ID) {
				label := id
				if nb, err := g.FindNodeByID(id); err == nil {
					label = nb.DisplayLabel()
				} else {
					label += StyleDim.Render(" (missing)")
				}
				fmt.Fprintf(c.Out, "  - %s\n", label)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a note; its links are kept and dangle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.openStore(cmd, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.RemoveNote(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.Out, "%s removed %s\n", StyleSuccess.Render("✓"), args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "link <source> <target>",
		Short: "Link two notes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.openStore(cmd, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.AddLink(cmd.Context(), models.NewLink(args[0], args[1])); err != nil {
				return err
			}
			fmt.Fprintf(c.Out, "%s %s\n", StyleSuccess.Render("✓"), strings.Join(args, " - "))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "unlink <source> <target>",
		Short: "Remove the link between two notes, in either direction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.openStore(cmd, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.RemoveLink(cmd.Context(), models.NewLink(args[0], args[1])); err != nil {
				return err
			}
			fmt.Fprintf(c.Out, "%s unlinked %s\n", StyleSuccess.Render("✓"), strings.Join(args, " "))
			return nil
		},
	})

	return cmd
}
