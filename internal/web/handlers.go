package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/ingest"
)

// multipartMemory is the part of a multipart form kept in memory; larger
// uploads spill to temporary files.
const multipartMemory = 32 << 20

// formOverhead allows for multipart boundaries and the rules field on top
// of the file itself.
const formOverhead = 1 << 20

// RunSummary is the response to a clean request. The cleaned table is
// fetched separately through the run or export endpoints.
type RunSummary struct {
	ID          string             `json:"id"`
	FileName    string             `json:"file_name"`
	CreatedAt   time.Time          `json:"created_at"`
	Persisted   bool               `json:"persisted"`
	Columns     []core.Column      `json:"columns"`
	RowsIn      int                `json:"rows_in"`
	RowsOut     int                `json:"rows_out"`
	Issues      map[string]int     `json:"issues"`
	Counters    map[string]int     `json:"counters"`
	Stages      []core.StageResult `json:"stages"`
	DurationMS  int64              `json:"duration_ms"`
	Corrections int                `json:"corrections"`
}

func toSummary(rec *core.RunRecord) RunSummary {
	res := rec.Result
	return RunSummary{
		ID:          rec.ID,
		FileName:    rec.FileName,
		CreatedAt:   rec.CreatedAt,
		Persisted:   rec.Persisted,
		Columns:     res.Columns,
		RowsIn:      res.RowsIn,
		RowsOut:     res.RowsOut,
		Issues:      res.IssueCount(),
		Counters:    res.Report.Counters,
		Stages:      res.Stages,
		DurationMS:  res.Duration.Milliseconds(),
		Corrections: res.Report.Total(),
	}
}

// handleClean runs the pipeline on an uploaded CSV.
//
// Form fields:
//   - file: the CSV (required)
//   - rules: JSON object overriding the default rules (optional)
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Clean.MaxFileSize+formOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			respondError(w, r, fmt.Errorf("%w: %v", ingest.ErrFileTooLarge, err))
			return
		}
		respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile)
		return
	}
	defer file.Close()

	rules, err := parseRules(r.FormValue("rules"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	rec, err := s.service.Run(r.Context(), core.RunRequest{
		FileName: filepath.Base(header.Filename),
		Body:     file,
		Rules:    rules,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/runs/"+rec.ID)
	writeJSON(w, r, http.StatusCreated, toSummary(rec))
}

// parseRules decodes the optional rules field. Unknown keys are rejected.
func parseRules(raw string) (core.RuleSpec, error) {
	var spec core.RuleSpec
	if strings.TrimSpace(raw) == "" {
		return spec, nil
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return core.RuleSpec{}, fmt.Errorf("%w: %v", errInvalidRules, err)
	}
	return spec, nil
}

// handleDefaultRules returns the rules applied when a request sets nothing.
func (s *Server) handleDefaultRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.service.Defaults())
}

// handleGetRun returns a finished run including its cleaned table.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

// handleCorrections returns a run's corrections grouped by row.
func (s *Server) handleCorrections(w http.ResponseWriter, r *http.Request) {
	rows, err := s.service.Corrections(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if rows == nil {
		rows = []core.RowCorrections{}
	}
	writeJSON(w, r, http.StatusOK, rows)
}

// handleExport downloads the cleaned table as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if rec.Result == nil || rec.Result.Table == nil {
		respondError(w, r, core.ErrRunNotFound)
		return
	}

	// Buffer so a write failure can still produce an error response.
	var buf bytes.Buffer
	if err := ingest.WriteCSV(&buf, rec.Result.Table); err != nil {
		respondError(w, r, err)
		return
	}

	name := strings.TrimSuffix(rec.FileName, filepath.Ext(rec.FileName))
	if name == "" {
		name = rec.ID
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_clean.csv"`, name))
	_, _ = w.Write(buf.Bytes())
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status   string                `json:"status"`
	Database string                `json:"database"`
	Runs     core.RunLimiterStatus `json:"runs"`
}

// handleHealth reports run slot usage and database reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Database: "disabled",
		Runs:     s.service.Status(),
	}
	status := http.StatusOK

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.db.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}

	writeJSON(w, r, status, resp)
}
