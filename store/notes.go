package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/TFMV/notegraph/errors"
	"github.com/TFMV/notegraph/models"
)

// UpsertNote inserts a note or updates the title and pinned flag of an existing one.
func (db *DB) UpsertNote(ctx context.Context, n models.Note) error {
	return upsertNote(ctx, db.DB, n, time.Now().UnixMilli())
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertNote(ctx context.Context, ex execer, n models.Note, now int64) error {
	if n.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "note id must be non-empty")
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO notes (id, title, pinned, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			pinned = excluded.pinned,
			updated_at = excluded.updated_at`,
		n.ID, n.Title, boolToInt(n.Pinned), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert note %s: %w", n.ID, err)
	}
	return nil
}

// GetNote returns a single note by id.
func (db *DB) GetNote(ctx context.Context, id string) (models.Note, error) {
	var n models.Note
	var pinned int
	err := db.QueryRowContext(ctx, "SELECT id, title, pinned FROM notes WHERE id = ?", id).
		Scan(&n.ID, &n.Title, &pinned)
	if err == sql.ErrNoRows {
		return n, errors.New(errors.ErrCodeNotFound, "note %q not found", id)
	}
	if err != nil {
		return n, fmt.Errorf("get note %s: %w", id, err)
	}
	n.Pinned = pinned != 0
	return n, nil
}

// RemoveNote deletes a note. Its links are kept and become dangling until the
// note is recreated or the links are removed.
func (db *DB) RemoveNote(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("remove note %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ErrCodeNotFound, "note %q not found", id)
	}
	return nil
}

// AddLink records a link. Adding an existing link is a no-op. Endpoints need
// not exist.
func (db *DB) AddLink(ctx context.Context, l models.Link) error {
	return addLink(ctx, db.DB, l, time.Now().UnixMilli())
}

func addLink(ctx context.Context, ex execer, l models.Link, now int64) error {
	if l.Source == "" || l.Target == "" {
		return errors.New(errors.ErrCodeInvalidInput, "link endpoints must be non-empty")
	}
	_, err := ex.ExecContext(ctx,
		"INSERT OR IGNORE INTO links (source_id, target_id, created_at) VALUES (?, ?, ?)",
		l.Source, l.Target, now,
	)
	if err != nil {
		return fmt.Errorf("add link %s-%s: %w", l.Source, l.Target, err)
	}
	return nil
}

// RemoveLink deletes a link in either direction.
func (db *DB) RemoveLink(ctx context.Context, l models.Link) error {
	_, err := db.ExecContext(ctx, `
		DELETE FROM links
		WHERE (source_id = ? AND target_id = ?) OR (source_id = ? AND target_id = ?)`,
		l.Source, l.Target, l.Target, l.Source,
	)
	if err != nil {
		return fmt.Errorf("remove link %s-%s: %w", l.Source, l.Target, err)
	}
	return nil
}

// ListNotes returns every note in creation order.
func (db *DB) ListNotes(ctx context.Context) ([]models.Note, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, title, pinned FROM notes ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var n models.Note
		var pinned int
		if err := rows.Scan(&n.ID, &n.Title, &pinned); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		n.Pinned = pinned != 0
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// ListLinks returns every link in insertion order.
func (db *DB) ListLinks(ctx context.Context) ([]models.Link, error) {
	rows, err := db.QueryContext(ctx, "SELECT source_id, target_id FROM links ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var links []models.Link
	for rows.Next() {
		var l models.Link
		if err := rows.Scan(&l.Source, &l.Target); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// LoadGraph returns the stored notes and links as a graph snapshot.
func (db *DB) LoadGraph(ctx context.Context) (*models.Graph, error) {
	notes, err := db.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	links, err := db.ListLinks(ctx)
	if err != nil {
		return nil, err
	}
	return models.FromNotes(db.graphName(), notes, links), nil
}

func (db *DB) graphName() string {
	if db.Path == "" || db.Path == ":memory:" {
		return "notes"
	}
	base := filepath.Base(db.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Import writes every node of g as a note and every link of g in one
// transaction. Positions are not stored.
func (db *DB) Import(ctx context.Context, g *models.Graph) (notes, links int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UnixMilli()
	for _, n := range g.Nodes {
		if err = upsertNote(ctx, tx, models.Note{ID: n.ID, Title: n.Label, Pinned: n.Pinned}, now); err != nil {
			return 0, 0, err
		}
		notes++
	}
	for _, l := range g.Links {
		if err = addLink(ctx, tx, l, now); err != nil {
			return 0, 0, err
		}
		links++
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit import: %w", err)
	}
	return notes, links, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
