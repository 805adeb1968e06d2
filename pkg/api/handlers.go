package api

import (
	"net/http"
	"strconv"

	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
	"github.com/dd0wney/cluso-socialgraph/pkg/source"
	"github.com/dd0wney/cluso-socialgraph/pkg/validation"
	"github.com/dd0wney/cluso-socialgraph/pkg/visualization"
)

// GraphAccepted acknowledges a posted dataset.
type GraphAccepted struct {
	People        int `json:"people"`
	Relationships int `json:"relationships"`
}

// PinRequest is the body of POST /nodes/{id}/pin.
type PinRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// handleGetGraph returns the latest frame. By default only what a viewer
// may see is returned; ?all=true includes hidden people.
func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	frame := s.engine.Latest()
	if r.URL.Query().Get("all") == "true" {
		s.respondJSON(w, http.StatusOK, frame)
		return
	}

	data, err := visualization.ExportJSON(frame)
	if err != nil {
		s.respondErr(w, r, "export frame", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// handlePostGraph replaces the graph with the posted dataset.
func (s *Server) handlePostGraph(w http.ResponseWriter, r *http.Request) {
	var ds source.Dataset
	if !s.decodeJSON(w, r, &ds) {
		return
	}
	if err := ds.Validate(); err != nil {
		s.respondErr(w, r, "validate dataset", err)
		return
	}

	ctx, cancel := s.command(r)
	defer cancel()
	if err := s.engine.Refresh(ctx, ds.Nodes, ds.Edges); err != nil {
		s.respondErr(w, r, "refresh", err)
		return
	}

	s.logger.Info("dataset posted",
		logging.Count(len(ds.Nodes)),
		logging.Int("relationships", len(ds.Edges)),
	)
	s.respondJSON(w, http.StatusAccepted, GraphAccepted{
		People:        len(ds.Nodes),
		Relationships: len(ds.Edges),
	})
}

// handleRenderGraph renders the latest frame as an echarts page.
func (s *Server) handleRenderGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := visualization.RenderHTML(s.engine.Latest(), s.title, w); err != nil {
		s.logger.Error("render graph", logging.Error(err))
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.command(r)
	defer cancel()
	if err := s.engine.Reset(ctx); err != nil {
		s.respondErr(w, r, "reset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.command(r)
	defer cancel()
	settings, err := s.engine.Settings(ctx)
	if err != nil {
		s.respondErr(w, r, "read settings", err)
		return
	}
	s.respondJSON(w, http.StatusOK, settings)
}

// handlePutSettings merges the body over the current settings, so a client
// may send only the fields it changes.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.command(r)
	defer cancel()

	settings, err := s.engine.Settings(ctx)
	if err != nil {
		s.respondErr(w, r, "read settings", err)
		return
	}
	if !s.decodeJSON(w, r, &settings) {
		return
	}
	if err := validation.Struct(settings); err != nil {
		s.respondErr(w, r, "validate settings", err)
		return
	}
	if err := s.engine.UpdateSettings(ctx, settings); err != nil {
		s.respondErr(w, r, "update settings", err)
		return
	}
	s.respondJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePin(w http.ResponseWriter, r *http.Request) {
	id, ok := s.nodeID(w, r)
	if !ok {
		return
	}
	var req PinRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := s.command(r)
	defer cancel()
	if err := s.engine.Pin(ctx, id, visualization.Position{X: req.X, Y: req.Y}); err != nil {
		s.respondErr(w, r, "pin", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	id, ok := s.nodeID(w, r)
	if !ok {
		return
	}

	ctx, cancel := s.command(r)
	defer cancel()
	if err := s.engine.Release(ctx, id); err != nil {
		s.respondErr(w, r, "release", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) nodeID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		s.respondError(w, r, http.StatusBadRequest, "invalid node id")
		return 0, false
	}
	return id, true
}
