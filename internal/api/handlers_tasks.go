package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ledgerport/internal/commerce"
	"ledgerport/internal/core"
	"ledgerport/internal/exporter"
	"ledgerport/internal/store"

	"github.com/go-chi/chi/v5"
)

type createTaskRequest struct {
	Name          *string             `json:"name"`
	DataType      string              `json:"data_type" validate:"required"`
	Regime        string              `json:"regime" validate:"required"`
	Format        string              `json:"format" validate:"required"`
	Frequency     string              `json:"frequency" validate:"required"`
	ExecutionDay  int                 `json:"execution_day" validate:"gte=0,lte=31"`
	ExecutionTime string              `json:"execution_time"`
	CronExpr      *string             `json:"cron_expr"`
	Delivery      core.DeliveryConfig `json:"delivery"`
	Paused        bool                `json:"paused"`
}

type updateTaskRequest struct {
	Name          *string              `json:"name"`
	DataType      *string              `json:"data_type"`
	Regime        *string              `json:"regime"`
	Format        *string              `json:"format"`
	Frequency     *string              `json:"frequency"`
	ExecutionDay  *int                 `json:"execution_day"`
	ExecutionTime *string              `json:"execution_time"`
	CronExpr      *string              `json:"cron_expr"`
	Delivery      *core.DeliveryConfig `json:"delivery"`
}

type taskResponse struct {
	ID            string              `json:"id"`
	Name          *string             `json:"name,omitempty"`
	DataType      string              `json:"data_type"`
	Regime        string              `json:"regime"`
	Format        string              `json:"format"`
	Frequency     string              `json:"frequency"`
	ExecutionDay  int                 `json:"execution_day"`
	ExecutionTime string              `json:"execution_time"`
	CronExpr      *string             `json:"cron_expr,omitempty"`
	Delivery      core.DeliveryConfig `json:"delivery"`
	Status        string              `json:"status"`
	LastRunAt     *string             `json:"last_run_at,omitempty"`
	NextRunAt     *string             `json:"next_run_at,omitempty"`
	CreatedAt     string              `json:"created_at"`
	UpdatedAt     string              `json:"updated_at"`
}

type executionResponse struct {
	ID           string  `json:"id"`
	TaskID       string  `json:"task_id"`
	ReportID     *string `json:"report_id,omitempty"`
	Status       string  `json:"status"`
	ScheduledFor string  `json:"scheduled_for"`
	StartedAt    *string `json:"started_at,omitempty"`
	CompletedAt  *string `json:"completed_at,omitempty"`
	Error        *string `json:"error,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
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
	freq, err := parseFrequency(req.Frequency)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	execTime := strings.TrimSpace(req.ExecutionTime)
	if execTime == "" {
		execTime = "00:00"
	}
	if _, _, err := core.ParseExecutionTime(execTime); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	var cronPtr *string
	if freq == core.FrequencyCustom {
		if req.CronExpr == nil || strings.TrimSpace(*req.CronExpr) == "" {
			writeError(w, http.StatusBadRequest, "invalid_input", "custom frequency requires cron_expr")
			return
		}
		expr := strings.TrimSpace(*req.CronExpr)
		if _, err := core.ParseCron(expr); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_cron", err.Error())
			return
		}
		cronPtr = &expr
	}

	if err := validateDelivery(&req.Delivery); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_delivery", err.Error())
		return
	}

	status := core.TaskActive
	if req.Paused {
		status = core.TaskPaused
	}

	var namePtr *string
	if req.Name != nil {
		if trimmed := strings.TrimSpace(*req.Name); trimmed != "" {
			namePtr = &trimmed
		}
	}

	task := &core.ScheduledTask{
		ID:            core.NewID(),
		Name:          namePtr,
		DataType:      dataType,
		Regime:        strings.ToUpper(strings.TrimSpace(req.Regime)),
		Format:        format,
		Frequency:     freq,
		ExecutionDay:  req.ExecutionDay,
		ExecutionTime: execTime,
		CronExpr:      cronPtr,
		Delivery:      req.Delivery,
		Status:        status,
	}

	if status == core.TaskActive {
		next, err := core.NextRun(task.Frequency, task.ExecutionDay, task.ExecutionTime, deref(task.CronExpr), time.Now().In(s.location))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
			return
		}
		task.NextRunAt = &next
	}

	if err := s.store.InsertTask(r.Context(), task); err != nil {
		s.logger.Error("insert task", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to insert task")
		return
	}
	writeJSON(w, http.StatusCreated, taskToResponse(task))
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	var statusFilter *core.TaskStatus
	if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
		st := core.TaskStatus(status)
		switch st {
		case core.TaskActive, core.TaskPaused:
			statusFilter = &st
		default:
			writeError(w, http.StatusBadRequest, "invalid_input", "status must be active or paused")
			return
		}
	}
	tasks, err := s.store.ListTasks(r.Context(), statusFilter)
	if err != nil {
		s.logger.Error("list tasks", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list tasks")
		return
	}
	res := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		res = append(res, taskToResponse(t))
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, taskToResponse(task))
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	if req.Name != nil {
		if trimmed := strings.TrimSpace(*req.Name); trimmed == "" {
			task.Name = nil
		} else {
			task.Name = &trimmed
		}
	}
	if req.DataType != nil {
		dataType, err := commerce.ParseDataType(*req.DataType)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
			return
		}
		task.DataType = dataType
	}
	if req.Regime != nil {
		regimeCode := strings.ToUpper(strings.TrimSpace(*req.Regime))
		if regimeCode == "" {
			writeError(w, http.StatusBadRequest, "invalid_input", "regime cannot be empty")
			return
		}
		task.Regime = regimeCode
	}
	if req.Format != nil {
		format, err := exporter.ParseFormat(*req.Format)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
			return
		}
		task.Format = format
	}

	scheduleChanged := false
	if req.Frequency != nil {
		freq, err := parseFrequency(*req.Frequency)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
			return
		}
		task.Frequency = freq
		scheduleChanged = true
	}
	if req.ExecutionDay != nil {
		if *req.ExecutionDay < 0 || *req.ExecutionDay > 31 {
			writeError(w, http.StatusBadRequest, "invalid_input", "execution_day must be between 0 and 31")
			return
		}
		task.ExecutionDay = *req.ExecutionDay
		scheduleChanged = true
	}
	if req.ExecutionTime != nil {
		execTime := strings.TrimSpace(*req.ExecutionTime)
		if _, _, err := core.ParseExecutionTime(execTime); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
			return
		}
		task.ExecutionTime = execTime
		scheduleChanged = true
	}
	if req.CronExpr != nil {
		expr := strings.TrimSpace(*req.CronExpr)
		if expr == "" {
			task.CronExpr = nil
		} else {
			if _, err := core.ParseCron(expr); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_cron", err.Error())
				return
			}
			task.CronExpr = &expr
		}
		scheduleChanged = true
	}
	if task.Frequency == core.FrequencyCustom && task.CronExpr == nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "custom frequency requires cron_expr")
		return
	}
	if req.Delivery != nil {
		if err := validateDelivery(req.Delivery); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_delivery", err.Error())
			return
		}
		task.Delivery = *req.Delivery
	}

	if task.Status == core.TaskActive && scheduleChanged {
		next, err := core.NextRun(task.Frequency, task.ExecutionDay, task.ExecutionTime, deref(task.CronExpr), time.Now().In(s.location))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
			return
		}
		task.NextRunAt = &next
	}

	if err := s.store.UpdateTask(r.Context(), task); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "task not found")
			return
		}
		s.logger.Error("update task", "task_id", task.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update task")
		return
	}
	writeJSON(w, http.StatusOK, taskToResponse(task))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	if err := s.store.DeleteTask(r.Context(), taskID); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "task not found")
		} else {
			s.logger.Error("delete task", "task_id", taskID, "err", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete task")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePauseTask(w http.ResponseWriter, r *http.Request) {
	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}
	task.Status = core.TaskPaused
	task.NextRunAt = nil
	if err := s.store.UpdateTask(r.Context(), task); err != nil {
		s.logger.Error("pause task", "task_id", task.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to pause task")
		return
	}
	writeJSON(w, http.StatusOK, taskToResponse(task))
}

func (s *Server) handleResumeTask(w http.ResponseWriter, r *http.Request) {
	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}
	task.Status = core.TaskActive
	next, err := core.NextRun(task.Frequency, task.ExecutionDay, task.ExecutionTime, deref(task.CronExpr), time.Now().In(s.location))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	task.NextRunAt = &next
	if err := s.store.UpdateTask(r.Context(), task); err != nil {
		s.logger.Error("resume task", "task_id", task.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to resume task")
		return
	}
	writeJSON(w, http.StatusOK, taskToResponse(task))
}

func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}
	limit := parseIntDefault(r.URL.Query().Get("limit"), 20)
	offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
	execs, err := s.store.ListExecutions(r.Context(), task.ID, limit, offset)
	if err != nil {
		s.logger.Error("list executions", "task_id", task.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list executions")
		return
	}
	res := make([]executionResponse, 0, len(execs))
	for _, exec := range execs {
		res = append(res, executionToResponse(exec))
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) loadTask(w http.ResponseWriter, r *http.Request) (*core.ScheduledTask, bool) {
	taskID := chi.URLParam(r, "taskID")
	task, err := s.store.GetTask(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "task not found")
		} else {
			s.logger.Error("get task", "task_id", taskID, "err", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to load task")
		}
		return nil, false
	}
	return task, true
}

func parseFrequency(s string) (core.Frequency, error) {
	freq := core.Frequency(strings.ToLower(strings.TrimSpace(s)))
	switch freq {
	case core.FrequencyHourly, core.FrequencyDaily, core.FrequencyMonthly,
		core.FrequencyYearly, core.FrequencyCustom:
		return freq, nil
	}
	return "", fmt.Errorf("unknown frequency %q", s)
}

// validateDelivery checks the persisted shape of a delivery configuration and
// fills in protocol-dependent port defaults.
func validateDelivery(cfg *core.DeliveryConfig) error {
	switch cfg.Method {
	case core.DeliverEmail:
		if cfg.Email == nil {
			return fmt.Errorf("email delivery requires an email section")
		}
		if len(cfg.Email.To) == 0 {
			return fmt.Errorf("email delivery requires at least one recipient")
		}
		cfg.FTP = nil
		return nil
	case core.DeliverFTP:
		if cfg.FTP == nil {
			return fmt.Errorf("ftp delivery requires an ftp section")
		}
		if cfg.FTP.Host == "" {
			return fmt.Errorf("ftp delivery requires a host")
		}
		switch cfg.FTP.Protocol {
		case "ftp", "ftps":
			if cfg.FTP.Port == 0 {
				cfg.FTP.Port = 21
			}
		case "sftp":
			if cfg.FTP.Port == 0 {
				cfg.FTP.Port = 22
			}
		default:
			return fmt.Errorf("ftp protocol must be ftp, ftps or sftp")
		}
		cfg.Email = nil
		return nil
	default:
		return fmt.Errorf("delivery method must be email or ftp")
	}
}

func taskToResponse(task *core.ScheduledTask) taskResponse {
	var last, next *string
	if task.LastRunAt != nil {
		formatted := task.LastRunAt.UTC().Format(time.RFC3339)
		last = &formatted
	}
	if task.NextRunAt != nil {
		formatted := task.NextRunAt.UTC().Format(time.RFC3339)
		next = &formatted
	}
	return taskResponse{
		ID:            task.ID,
		Name:          task.Name,
		DataType:      string(task.DataType),
		Regime:        task.Regime,
		Format:        string(task.Format),
		Frequency:     string(task.Frequency),
		ExecutionDay:  task.ExecutionDay,
		ExecutionTime: task.ExecutionTime,
		CronExpr:      task.CronExpr,
		Delivery:      redactDelivery(task.Delivery),
		Status:        string(task.Status),
		LastRunAt:     last,
		NextRunAt:     next,
		CreatedAt:     task.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     task.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// redactDelivery strips credentials before a task leaves the API.
func redactDelivery(cfg core.DeliveryConfig) core.DeliveryConfig {
	if cfg.FTP != nil {
		ftpCopy := *cfg.FTP
		ftpCopy.Password = ""
		cfg.FTP = &ftpCopy
	}
	return cfg
}

func executionToResponse(exec *core.TaskExecution) executionResponse {
	res := executionResponse{
		ID:           exec.ID,
		TaskID:       exec.TaskID,
		ReportID:     exec.ReportID,
		Status:       string(exec.Status),
		ScheduledFor: exec.ScheduledFor.UTC().Format(time.RFC3339),
		Error:        exec.Error,
		CreatedAt:    exec.CreatedAt.UTC().Format(time.RFC3339),
	}
	if exec.StartedAt != nil {
		formatted := exec.StartedAt.UTC().Format(time.RFC3339)
		res.StartedAt = &formatted
	}
	if exec.CompletedAt != nil {
		formatted := exec.CompletedAt.UTC().Format(time.RFC3339)
		res.CompletedAt = &formatted
	}
	return res
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
