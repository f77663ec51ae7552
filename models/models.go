// Package models provides data structures for the notegraph application.
// It defines the note graph snapshot consumed by the layout engine.
package models

import (
	"context"
	"time"
)

// Node represents one note in the visible knowledge graph
type Node struct {
	ID     string  `json:"id" yaml:"id"`
	Label  string  `json:"label" yaml:"label"`
	Pinned bool    `json:"pinned,omitempty" yaml:"pinned,omitempty"` // Permanent anchor, never integrated
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Color  string  `json:"color,omitempty" yaml:"color,omitempty"`
}

// Link represents an undirected relation between two notes
type Link struct {
	Source string `json:"source" yaml:"source"` // ID of one endpoint
	Target string `json:"target" yaml:"target"` // ID of the other endpoint
}

// Graph is a snapshot of the notes and links currently in view
type Graph struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nodes     []Node    `json:"nodes"`
	Links     []Link    `json:"links"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Note is a (id, title, pinned) tuple as delivered by the note persistence layer
type Note struct {
	ID     string `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Pinned bool   `json:"pinned,omitempty" yaml:"pinned,omitempty"`
}

// GraphSource supplies note graph snapshots to the layout engine
type GraphSource interface {
	LoadGraph(ctx context.Context) (*Graph, error)
}
