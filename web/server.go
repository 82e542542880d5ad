// ABOUTME: HTTP rendering collaborator exposing the analyst pipeline behind a chi router.
// ABOUTME: Provides query submission, current-answer retrieval, artifact bytes, reset, and health endpoints.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/calder-research/surveyscope/analyst"
)

// Analyst is the slice of the pipeline controller the server consumes.
type Analyst interface {
	SubmitQuery(ctx context.Context, text string) (analyst.AnswerRecord, error)
	CurrentAnswer() (analyst.AnswerRecord, bool)
	Reset()
}

// Server exposes one conversation over HTTP for a rendering frontend.
type Server struct {
	pipeline Analyst
	router   chi.Router
	addr     string
}

// ServerConfig holds the configuration for the web server.
type ServerConfig struct {
	Addr string // listen address (default: "127.0.0.1:8386")
}

// NewServer creates a Server and sets up routing.
func NewServer(pipeline Analyst, cfg ServerConfig) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8386"
	}

	s := &Server{pipeline: pipeline, addr: cfg.Addr}

	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Get("/answer", s.handleAnswer)
		r.Post("/reset", s.handleReset)
		r.Get("/artifacts/{index}", s.handleArtifact)
	})
	s.router = r

	return s
}

// Handler returns the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	return http.ListenAndServe(s.addr, s.router)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

type queryRequest struct {
	Text string `json:"text"`
}

type answerResponse struct {
	Query     string         `json:"query"`
	Markdown  string         `json:"markdown"`
	Artifacts []artifactInfo `json:"artifacts"`
}

type artifactInfo struct {
	Index       int    `json:"index"`
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Bytes       int    `json:"bytes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	record, err := s.pipeline.SubmitQuery(r.Context(), req.Text)
	switch {
	case errors.Is(err, analyst.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "please enter a non-empty question")
		return
	case errors.Is(err, analyst.ErrQueryInFlight):
		writeError(w, http.StatusServiceUnavailable, "a query is already running; wait for it to finish")
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toAnswerResponse(record))
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	record, ok := s.pipeline.CurrentAnswer()
	if !ok {
		writeError(w, http.StatusNotFound, "no answer yet")
		return
	}
	writeJSON(w, http.StatusOK, toAnswerResponse(record))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.pipeline.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// handleArtifact serves the raw bytes of one artifact of the current
// answer, addressed by its position.
func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	record, ok := s.pipeline.CurrentAnswer()
	if !ok {
		writeError(w, http.StatusNotFound, "no answer yet")
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 || index >= len(record.Artifacts) {
		writeError(w, http.StatusNotFound, "no such artifact")
		return
	}

	artifact := record.Artifacts[index]
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `inline; filename="`+artifact.DisplayName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Bytes)
}

func toAnswerResponse(record analyst.AnswerRecord) answerResponse {
	resp := answerResponse{
		Query:     record.Query,
		Markdown:  record.Markdown,
		Artifacts: make([]artifactInfo, 0, len(record.Artifacts)),
	}
	for i, a := range record.Artifacts {
		resp.Artifacts = append(resp.Artifacts, artifactInfo{
			Index:       i,
			ID:          a.ID,
			DisplayName: a.DisplayName,
			Bytes:       len(a.Bytes),
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
