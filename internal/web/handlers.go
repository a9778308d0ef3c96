package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/tarif/internal/core"
)

// tableParam reads the table from "table", falling back to "table_name".
func tableParam(r *http.Request) string {
	q := r.URL.Query()
	if t := q.Get("table"); t != "" {
		return t
	}
	return q.Get("table_name")
}

// stepParam parses the "step" parameter. Absent returns nil.
func stepParam(r *http.Request) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("step"))
	if raw == "" {
		return nil, nil
	}
	step, err := strconv.Atoi(raw)
	if err != nil {
		return nil, core.InvalidParam("step", raw, "step must be an integer")
	}
	return &step, nil
}

// groupParam returns a pointer to the "group" parameter, or nil when absent.
func groupParam(r *http.Request) *string {
	q := r.URL.Query()
	if !q.Has("group") {
		return nil
	}
	g := q.Get("group")
	return &g
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.service.Tables(r.Context()); err != nil {
		status := "error"
		if errors.Is(err, core.ErrStorageUnavailable) {
			status = "unavailable"
		}
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": status})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.service.Tables(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if tables == nil {
		tables = []string{}
	}
	writeJSON(w, r, http.StatusOK, tables)
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.service.Groups(r.Context(), tableParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, groups)
}

func (s *Server) handleSteps(w http.ResponseWriter, r *http.Request) {
	steps, err := s.service.Steps(r.Context(), tableParam(r), r.URL.Query().Get("group"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, steps)
}

func (s *Server) handleCells(w http.ResponseWriter, r *http.Request) {
	step, err := stepParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	cells, err := s.service.Cells(r.Context(), core.CellQuery{
		TableName: tableParam(r),
		Grade:     groupParam(r),
		Step:      step,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cells)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	step, err := stepParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if step == nil {
		respondError(w, r, core.InvalidParam("step", "", "step is required"))
		return
	}
	cell, err := s.service.Lookup(r.Context(), tableParam(r), r.URL.Query().Get("group"), *step)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cell)
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	grid, err := s.service.Grid(r.Context(), tableParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, grid)
}

func (s *Server) handleImports(w http.ResponseWriter, r *http.Request) {
	batches, err := s.service.Imports(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if batches == nil {
		batches = []core.ImportBatch{}
	}
	writeJSON(w, r, http.StatusOK, batches)
}
