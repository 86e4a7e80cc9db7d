package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"ledgerport/internal/commerce"
	"ledgerport/internal/core"
	"ledgerport/internal/exporter"
	"ledgerport/internal/store"

	"github.com/go-chi/chi/v5"
)

type createReportRequest struct {
	DataType  string `json:"data_type" validate:"required"`
	Regime    string `json:"regime" validate:"required"`
	Format    string `json:"format" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

type reportResponse struct {
	ID        string  `json:"id"`
	DataType  string  `json:"data_type"`
	Regime    string  `json:"regime"`
	Format    string  `json:"format"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
	Status    string  `json:"status"`
	FileName  *string `json:"file_name,omitempty"`
	Error     *string `json:"error,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// handleCreateReport validates the request, persists a pending report and
// runs the pipeline synchronously. The response always carries a terminal
// status; pipeline failures surface in the report, not as an HTTP error.
func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	dataType, err := commerce.ParseDataType(req.DataType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	format, err := exporter.ParseFormat(req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	start, _ := time.ParseInLocation("2006-01-02", req.StartDate, time.UTC)
	end, _ := time.ParseInLocation("2006-01-02", req.EndDate, time.UTC)
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "invalid_input", "end_date must not precede start_date")
		return
	}
	// The range is inclusive of the whole end day.
	end = end.AddDate(0, 0, 1).Add(-time.Second)

	rep := &core.Report{
		ID:        core.NewID(),
		DataType:  dataType,
		Regime:    strings.ToUpper(strings.TrimSpace(req.Regime)),
		Format:    format,
		StartDate: &start,
		EndDate:   &end,
		Status:    core.ReportPending,
	}
	if err := s.store.InsertReport(r.Context(), rep); err != nil {
		s.logger.Error("insert report", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to insert report")
		return
	}

	s.orch.Generate(r.Context(), rep)
	writeJSON(w, http.StatusCreated, reportToResponse(rep))
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	var statusFilter *core.ReportStatus
	if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
		st := core.ReportStatus(status)
		switch st {
		case core.ReportPending, core.ReportProcessing, core.ReportCompleted,
			core.ReportCompletedEmpty, core.ReportError:
			statusFilter = &st
		default:
			writeError(w, http.StatusBadRequest, "invalid_input", "unknown report status")
			return
		}
	}
	limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
	offset := parseIntDefault(r.URL.Query().Get("offset"), 0)

	reports, err := s.store.ListReports(r.Context(), statusFilter, limit, offset)
	if err != nil {
		s.logger.Error("list reports", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list reports")
		return
	}
	res := make([]reportResponse, 0, len(reports))
	for _, rep := range reports {
		res = append(res, reportToResponse(rep))
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, reportToResponse(rep))
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteReport(r.Context(), rep.ID); err != nil {
		if errors.Is(err, store.ErrReportNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "report not found")
		} else {
			s.logger.Error("delete report", "report_id", rep.ID, "err", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete report")
		}
		return
	}
	if rep.FilePath != nil {
		if err := os.Remove(*rep.FilePath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("remove report file", "report_id", rep.ID, "err", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRetryReport reruns the pipeline for a report that ended in error.
func (s *Server) handleRetryReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	if rep.Status != core.ReportError {
		writeError(w, http.StatusConflict, "conflict", "only reports in error can be retried")
		return
	}
	rep.ErrorMessage = nil
	s.orch.Generate(r.Context(), rep)
	writeJSON(w, http.StatusOK, reportToResponse(rep))
}

func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	if rep.FilePath == nil {
		writeError(w, http.StatusNotFound, "not_found", "report has no payload file")
		return
	}
	payload, err := os.ReadFile(*rep.FilePath)
	if err != nil {
		s.logger.Error("read report file", "report_id", rep.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to read report file")
		return
	}
	w.Header().Set("Content-Type", rep.Format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+core.FileName(rep)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (s *Server) loadReport(w http.ResponseWriter, r *http.Request) (*core.Report, bool) {
	reportID := chi.URLParam(r, "reportID")
	rep, err := s.store.GetReport(r.Context(), reportID)
	if err != nil {
		if errors.Is(err, store.ErrReportNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "report not found")
		} else {
			s.logger.Error("get report", "report_id", reportID, "err", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to load report")
		}
		return nil, false
	}
	return rep, true
}

func reportToResponse(rep *core.Report) reportResponse {
	res := reportResponse{
		ID:        rep.ID,
		DataType:  string(rep.DataType),
		Regime:    rep.Regime,
		Format:    string(rep.Format),
		Status:    string(rep.Status),
		Error:     rep.ErrorMessage,
		CreatedAt: rep.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: rep.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if rep.StartDate != nil {
		formatted := rep.StartDate.UTC().Format("2006-01-02")
		res.StartDate = &formatted
	}
	if rep.EndDate != nil {
		formatted := rep.EndDate.UTC().Format("2006-01-02")
		res.EndDate = &formatted
	}
	if rep.FilePath != nil {
		name := core.FileName(rep)
		res.FileName = &name
	}
	return res
}

func parseIntDefault(value string, def int) int {
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	payload := map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	}
	writeJSON(w, status, payload)
}
