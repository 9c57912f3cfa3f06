package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/finbrief/finbrief/internal/services/reports"
	"github.com/finbrief/finbrief/internal/services/supervisor"
)

// ReportService is the slice of the report service the HTTP layer uses.
type ReportService interface {
	StartBriefing(ctx context.Context, params reports.BriefingParams) (string, error)
	BriefingStatus(taskID string) supervisor.Status
	RunInvestmentReport(ctx context.Context, params reports.InvestmentParams) (*reports.InvestmentResult, error)
}

// ReportHandler serves the briefing launch/status and investment report
// endpoints.
type ReportHandler struct {
	reports ReportService
	logger  arbor.ILogger
}

func NewReportHandler(reportService ReportService, logger arbor.ILogger) *ReportHandler {
	return &ReportHandler{
		reports: reportService,
		logger:  logger,
	}
}

// briefingRequest accepts either a single date or an explicit range.
type briefingRequest struct {
	Date      string `json:"date"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Source    string `json:"source"`
}

// RunBriefingHandler launches a briefing worker. POST /api/run/daily-briefing
func (h *ReportHandler) RunBriefingHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req briefingRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	params := reports.BriefingParams{StartDate: req.StartDate, EndDate: req.EndDate, Source: req.Source}
	if req.Date != "" {
		params.StartDate = req.Date
		params.EndDate = req.Date
	}

	taskID, err := h.reports.StartBriefing(r.Context(), params)
	if err != nil {
		h.writeLaunchError(w, taskID, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"task_id": taskID,
	})
}

func (h *ReportHandler) writeLaunchError(w http.ResponseWriter, taskID string, err error) {
	switch {
	case errors.Is(err, supervisor.ErrConflict):
		WriteJSON(w, http.StatusConflict, map[string]string{
			"status":  "error",
			"error":   err.Error(),
			"task_id": taskID,
		})
	case errors.Is(err, supervisor.ErrInvalidParameters),
		errors.Is(err, supervisor.ErrPrerequisiteMissing):
		WriteError(w, http.StatusBadRequest, err.Error())
	default:
		// Spawn failures and anything unexpected.
		h.logger.Error().Err(err).Msg("Briefing launch failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// TaskStatusHandler reports the state of a launched task.
// GET /api/tasks/{id}
func (h *ReportHandler) TaskStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	taskID := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	if taskID == "" || strings.Contains(taskID, "/") {
		WriteError(w, http.StatusBadRequest, "task id is required")
		return
	}

	status := h.reports.BriefingStatus(taskID)
	switch status.State {
	case supervisor.StateRunning:
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":          "running",
			"elapsed_seconds": status.ElapsedSeconds,
		})
	case supervisor.StateComplete:
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":       "complete",
			"artifact_url": status.ArtifactURL,
		})
	case supervisor.StateError:
		WriteJSON(w, http.StatusOK, map[string]string{
			"status": "error",
			"detail": status.Detail,
		})
	default:
		WriteError(w, http.StatusNotFound, "unknown task: "+taskID)
	}
}

// RunInvestmentReportHandler runs the investment report pipeline to
// completion. POST /api/run/investment-report
func (h *ReportHandler) RunInvestmentReportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var params reports.InvestmentParams
	if err := DecodeJSON(r, &params); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.reports.RunInvestmentReport(r.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, supervisor.ErrInvalidParameters),
			errors.Is(err, supervisor.ErrPrerequisiteMissing):
			WriteError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error().Err(err).Msg("Investment report failed")
			WriteError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
