// Package httpapi exposes the command engine to the panel frontend.
// Every Result-carrying outcome is a 200 whose payload reports the
// command's own success flag; only pre-execution validation failures
// become client errors.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hallvard/steward"
	"github.com/hallvard/steward/internal/catalog"
	"github.com/hallvard/steward/internal/check"
	"github.com/hallvard/steward/internal/history"
)

// Server bundles the engine pieces behind the panel's HTTP routes.
type Server struct {
	Catalog *catalog.Catalog
	Checks  *check.Engine
	History *history.Log
	Archive history.Store // nil when archiving is disabled
}

// Handler builds the chi router for the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleInfo)
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		// The free-form path: executes its input verbatim through the
		// shell. Deploy behind the panel's authentication only.
		r.Post("/commands/run", s.handleRun)

		r.Post("/commands/ls", s.handleList)
		r.Post("/commands/cd", s.handleChangeDir)
		r.Get("/commands/pwd", s.handleWorkingDir)
		r.Post("/commands/ps", s.handleProcesses)
		r.Post("/commands/df", s.handleDiskUsage)
		r.Post("/commands/free", s.handleMemoryUsage)
		r.Post("/commands/cat", s.handleReadFile)
		r.Post("/commands/tail", s.handleTail)
		r.Post("/commands/grep", s.handleSearch)
		r.Post("/commands/systemctl", s.handleService)

		r.Get("/checks", s.handleCheckIndex)
		r.Post("/checks/system", s.handleSystemCheck)
		r.Post("/checks/custom", s.handleCustomGroup)
		r.Post("/checks/{name}", s.handleCheckGroup)

		r.Get("/history", s.handleHistory)
		r.Get("/history/last", s.handleHistoryLast)
		r.Get("/history/{id}", s.handleHistoryByID)
		r.Post("/history/clear", s.handleHistoryClear)
	})

	return r
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"service": "steward",
		"version": steward.Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"history_entries": s.History.Len(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// decode reads a JSON request body into v. An empty body is allowed so
// operations with all-optional parameters can be called bare.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return false
	}
	return true
}
