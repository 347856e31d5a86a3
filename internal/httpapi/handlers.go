package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hallvard/steward/internal/catalog"
	"github.com/hallvard/steward/internal/check"
	"github.com/hallvard/steward/internal/cmdexec"
)

type runRequest struct {
	Command string `json:"command"`
}

type pathRequest struct {
	Path    string `json:"path"`
	Options string `json:"options"`
}

type tailRequest struct {
	Path  string `json:"path"`
	Lines int    `json:"lines"`
}

type grepRequest struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path"`
	Options string `json:"options"`
}

type serviceRequest struct {
	Action  string `json:"action"`
	Service string `json:"service"`
}

type customGroupRequest struct {
	Name     string   `json:"name"`
	Commands []string `json:"commands"`
}

// writeResult maps the engine's error taxonomy onto HTTP: validation
// failures are client errors, everything that produced a Result is a
// success response carrying the command's own outcome.
func (s *Server) writeResult(w http.ResponseWriter, res *cmdexec.Result, err error) {
	if err != nil {
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			s.writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.Catalog.RunRaw(r.Context(), req.Command)
	s.writeResult(w, res, err)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.Catalog.List(r.Context(), req.Path, req.Options)
	s.writeResult(w, res, err)
}

func (s *Server) handleChangeDir(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.Catalog.ChangeDir(r.Context(), req.Path)
	s.writeResult(w, res, err)
}

func (s *Server) handleWorkingDir(w http.ResponseWriter, r *http.Request) {
	res, err := s.Catalog.WorkingDir(r.Context())
	s.writeResult(w, res, err)
}

func (s *Server) handleProcesses(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.Catalog.Processes(r.Context(), req.Options)
	s.writeResult(w, res, err)
}

func (s *Server) handleDiskUsage(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.Catalog.DiskUsage(r.Context(), req.Options)
	s.writeResult(w, res, err)
}

func (s *Server) handleMemoryUsage(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.Catalog.MemoryUsage(r.Context(), req.Options)
	s.writeResult(w, res, err)
}

func (s *Server) handleReadFile(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.Catalog.ReadFile(r.Context(), req.Path)
	s.writeResult(w, res, err)
}

func (s *Server) handleTail(w http.ResponseWriter, r *http.Request) {
	var req tailRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.Catalog.Tail(r.Context(), req.Path, req.Lines)
	s.writeResult(w, res, err)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req grepRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.Catalog.Search(r.Context(), req.Pattern, req.Path, req.Options)
	s.writeResult(w, res, err)
}

func (s *Server) handleService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.Catalog.Service(r.Context(), req.Action, req.Service)
	s.writeResult(w, res, err)
}

func (s *Server) handleCheckIndex(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Name         string `json:"name"`
		Description  string `json:"description"`
		CommandCount int    `json:"command_count"`
	}
	groups := make([]entry, len(s.Checks.Groups))
	for i, g := range s.Checks.Groups {
		groups[i] = entry{Name: g.Name, Description: g.Description, CommandCount: len(g.Commands)}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

func (s *Server) handleSystemCheck(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Checks.SystemCheck(r.Context()))
}

func (s *Server) handleCheckGroup(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rep, err := s.Checks.ExecuteGroup(r.Context(), name)
	if err != nil {
		var unknown *check.UnknownGroupError
		if errors.As(err, &unknown) {
			s.writeError(w, http.StatusNotFound, unknown.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleCustomGroup(w http.ResponseWriter, r *http.Request) {
	var req customGroupRequest
	if !s.decode(w, r, &req) {
		return
	}
	rep, err := s.Checks.CustomGroup(r.Context(), req.Name, req.Commands)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	results := s.History.Tail(limit)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}

func (s *Server) handleHistoryLast(w http.ResponseWriter, r *http.Request) {
	res, ok := s.History.Last()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no commands executed yet")
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHistoryByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if res, ok := s.History.Find(id); ok {
		s.writeJSON(w, http.StatusOK, res)
		return
	}
	// Fall back to the archive for entries the ring has evicted.
	if s.Archive != nil {
		if res, err := s.Archive.Load(id); err == nil {
			s.writeJSON(w, http.StatusOK, res)
			return
		}
	}
	s.writeError(w, http.StatusNotFound, "no result with id "+id)
}

func (s *Server) handleHistoryClear(w http.ResponseWriter, r *http.Request) {
	n := s.History.ClearAll()
	s.writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}
