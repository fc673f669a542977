// Package api implements the circuitlay HTTP API.
//
// The server exposes the layout pipeline over HTTP so netlists can be
// submitted remotely. Endpoints accept a netlist JSON body plus pipeline
// options and return the layout document or a rendered artifact. Layout
// documents are optionally persisted to MongoDB for later retrieval.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/schemalab/circuitlay/pkg/buildinfo"
	"github.com/schemalab/circuitlay/pkg/errors"
	"github.com/schemalab/circuitlay/pkg/layout"
	"github.com/schemalab/circuitlay/pkg/pipeline"
	"github.com/schemalab/circuitlay/pkg/report"
	"github.com/schemalab/circuitlay/pkg/store"
)

const (
	maxBodyBytes   = 4 << 20
	requestTimeout = 60 * time.Second
)

// Server handles HTTP requests for the layout pipeline.
type Server struct {
	runner *pipeline.Runner
	store  *store.LayoutStore
	logger *log.Logger
}

// NewServer creates an API server. The store may be nil, in which case
// layout documents are not persisted.
func NewServer(runner *pipeline.Runner, layoutStore *store.LayoutStore, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, store: layoutStore, logger: logger}
}

// Router builds the chi router with all routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/render", s.handleRender)
		r.Post("/report", s.handleReport)
		r.Get("/layouts", s.handleListLayouts)
		r.Get("/layouts/{runID}", s.handleGetLayout)
	})
	return r
}

// =============================================================================
// Request / Response Types
// =============================================================================

// LayoutRequest is the body for POST /v1/layout and /v1/render.
type LayoutRequest struct {
	Netlist json.RawMessage  `json:"netlist"`
	Options pipeline.Options `json:"options"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: buildinfo.Version})
}

// handleLayout runs parse and layout, persists the document, and returns it.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeLayoutRequest(w, r)
	if !ok {
		return
	}

	result, err := s.runner.Execute(r.Context(), s.pipelineOptions(req, []string{pipeline.FormatJSON}))
	if err != nil {
		s.writeError(w, err)
		return
	}

	doc, err := layout.UnmarshalDocument(result.Artifacts[pipeline.FormatJSON])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.persist(r.Context(), doc)

	writeJSON(w, http.StatusOK, doc)
}

// handleRender runs the full pipeline and returns a single artifact.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeLayoutRequest(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := s.runner.Execute(r.Context(), s.pipelineOptions(req, []string{format}))
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

// handleReport runs parse and layout and returns placement statistics.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeLayoutRequest(w, r)
	if !ok {
		return
	}

	result, err := s.runner.Execute(r.Context(), s.pipelineOptions(req, []string{pipeline.FormatJSON}))
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report.Compute(result.Layout))
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "layout persistence is not configured"})
		return
	}
	doc, err := s.store.Get(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "layout persistence is not configured"})
		return
	}
	docs, err := s.store.List(r.Context(), r.URL.Query().Get("circuit"), 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) decodeLayoutRequest(w http.ResponseWriter, r *http.Request) (*LayoutRequest, bool) {
	var req LayoutRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return nil, false
	}
	if len(req.Netlist) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "netlist is required"})
		return nil, false
	}
	return &req, true
}

func (s *Server) pipelineOptions(req *LayoutRequest, formats []string) pipeline.Options {
	opts := req.Options
	opts.Netlist = []byte(req.Netlist)
	opts.NetlistPath = ""
	opts.Formats = formats
	opts.Logger = s.logger
	return opts
}

func (s *Server) persist(ctx context.Context, doc *layout.Document) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, doc); err != nil {
		s.logger.Warn("failed to persist layout", "run_id", doc.RunID, "error", err)
	}
}

// writeError maps pipeline error codes to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidNetlist, errors.ErrCodeInvalidGeometry, errors.ErrCodeUnknownType,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidOptions, errors.ErrCodeUnresolvableNet:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeUnsupported:
		status = http.StatusUnprocessableEntity
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: string(code)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatPNG:
		return "image/png"
	default:
		return "application/json"
	}
}
