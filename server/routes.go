package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/TFMV/notegraph/errors"
	"github.com/TFMV/notegraph/ingest"
	"github.com/TFMV/notegraph/interact"
	"github.com/TFMV/notegraph/physics"
	"github.com/TFMV/notegraph/render"
)

const maxBodyBytes = 32 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, errors.HTTPStatus(err), map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(code),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.sim.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.opts.Version,
		"uptime":  time.Since(s.started).Seconds(),
		"tick":    st.Tick,
		"settled": st.Settled,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sim.Stats())
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sim.Frame())
}

var contentTypes = map[string]string{
	"svg":   "image/svg+xml",
	"ascii": "text/plain; charset=utf-8",
	"json":  "application/json",
	"dot":   "text/vnd.graphviz",
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "svg"
	}
	renderer, err := render.GetRenderer(format)
	if err != nil {
		writeError(w, err)
		return
	}

	g := s.sim.Snapshot()
	opts := render.NewDefaultOptions(format)
	opts.Width, opts.Height = g.Width, g.Height
	opts.Background = s.opts.Palette.Background
	opts.LinkColor = s.opts.Palette.LinkColor
	opts.Title = g.Name

	out, err := renderer.Render(g, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	ct, ok := contentTypes[format]
	if !ok {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Write(out)
}

// requestFormat picks the ingest format from ?format= or the Content-Type.
func requestFormat(r *http.Request) string {
	if f := r.URL.Query().Get("format"); f != "" {
		return f
	}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "text/csv":
		return "csv"
	case "application/yaml", "application/x-yaml", "text/yaml":
		return "yaml"
	default:
		return "json"
	}
}

func (s *Server) handlePutGraph(w http.ResponseWriter, r *http.Request) {
	proc, err := ingest.GetProcessor(requestFormat(r), s.opts.Palette)
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body failed"))
		return
	}
	g, err := proc.ProcessData(body)
	if err != nil {
		writeError(w, err)
		return
	}

	s.sim.Load(g)
	s.opts.Logger.Info("graph replaced", "nodes", len(g.Nodes), "links", len(g.Links))
	writeJSON(w, http.StatusOK, s.sim.Stats())
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.opts.Source == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "no note source configured"))
		return
	}
	g, err := s.opts.Source.LoadGraph(r.Context())
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "load notes"))
		return
	}

	s.opts.Palette.Colorize(g)
	s.sim.Load(g)
	s.opts.Logger.Info("graph reloaded", "nodes", len(g.Nodes), "links", len(g.Links))
	writeJSON(w, http.StatusOK, s.sim.Stats())
}

type pointRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (p pointRequest) valid() bool {
	return p.X != nil && p.Y != nil
}

func (s *Server) handleDragStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		pointRequest
		Source string `json:"source"`
		Node   string `json:"node"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid json"))
		return
	}
	if req.Node == "" || !req.valid() {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "node, x and y are required"))
		return
	}
	if req.Source == "" {
		req.Source = interact.NewSource()
	}

	if err := s.sim.DragStart(req.Node, req.Source, *req.X, *req.Y); err != nil {
		if stderrors.Is(err, physics.ErrUnknownNode) {
			writeError(w, errors.Wrap(errors.ErrCodeNotFound, err, "note %q", req.Node))
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"source": req.Source, "node": req.Node})
}

func (s *Server) handleDragMove(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")

	var req pointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid json"))
		return
	}
	if !req.valid() {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "x and y are required"))
		return
	}

	if err := s.sim.DragMove(source, *req.X, *req.Y); err != nil {
		if stderrors.Is(err, interact.ErrNotDragging) {
			writeError(w, errors.Wrap(errors.ErrCodeNotFound, err, "source %q", source))
			return
		}
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDragEnd(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")

	nodeID, ok := s.sim.DragEnd(source)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "source %q is not dragging", source))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"source": source, "node": nodeID})
}

// noteRemover is implemented by sources that persist note deletion.
type noteRemover interface {
	RemoveNote(ctx context.Context, id string) error
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	g := s.sim.Snapshot()
	n, err := g.FindNodeByID(id)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeNotFound, err, "note %q", id))
		return
	}
	neighbors := g.Neighbors(id)
	if neighbors == nil {
		neighbors = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"note": n, "neighbors": neighbors})
}

// handleRemoveNote drops a note and its links from the live graph. When the
// source persists notes the note is deleted there too.
func (s *Server) handleRemoveNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	g := s.sim.Snapshot()
	if _, err := g.FindNodeByID(id); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeNotFound, err, "note %q", id))
		return
	}
	if rm, ok := s.opts.Source.(noteRemover); ok {
		if err := rm.RemoveNote(r.Context(), id); err != nil && !errors.Is(err, errors.ErrCodeNotFound) {
			writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "remove note"))
			return
		}
	}

	g.RemoveNode(id)
	s.sim.Load(g)
	s.opts.Logger.Info("note removed", "id", id, "notes", len(g.Nodes))
	writeJSON(w, http.StatusOK, s.sim.Stats())
}
