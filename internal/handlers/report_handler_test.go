package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbrief/finbrief/internal/common"
	"github.com/finbrief/finbrief/internal/services/reports"
	"github.com/finbrief/finbrief/internal/services/supervisor"
)

// mockReportService is a programmable ReportService.
type mockReportService struct {
	startID     string
	startErr    error
	startParams reports.BriefingParams

	status supervisor.Status

	investResult *reports.InvestmentResult
	investErr    error
}

func (m *mockReportService) StartBriefing(_ context.Context, params reports.BriefingParams) (string, error) {
	m.startParams = params
	return m.startID, m.startErr
}

func (m *mockReportService) BriefingStatus(_ string) supervisor.Status {
	return m.status
}

func (m *mockReportService) RunInvestmentReport(_ context.Context, _ reports.InvestmentParams) (*reports.InvestmentResult, error) {
	return m.investResult, m.investErr
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRunBriefingHandler_Accepted(t *testing.T) {
	svc := &mockReportService{startID: "briefing_20250110"}
	handler := NewReportHandler(svc, common.GetLogger())

	req := httptest.NewRequest("POST", "/api/run/daily-briefing",
		strings.NewReader(`{"date": "2025-01-10"}`))
	rec := httptest.NewRecorder()
	handler.RunBriefingHandler(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "briefing_20250110", decodeBody(t, rec)["task_id"])
	assert.Equal(t, "2025-01-10", svc.startParams.StartDate)
	assert.Equal(t, "2025-01-10", svc.startParams.EndDate)
}

func TestRunBriefingHandler_DateRange(t *testing.T) {
	svc := &mockReportService{startID: "briefing_20250110_20250112"}
	handler := NewReportHandler(svc, common.GetLogger())

	req := httptest.NewRequest("POST", "/api/run/daily-briefing",
		strings.NewReader(`{"start_date": "2025-01-10", "end_date": "2025-01-12"}`))
	rec := httptest.NewRecorder()
	handler.RunBriefingHandler(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "2025-01-12", svc.startParams.EndDate)
}

func TestRunBriefingHandler_EmptyBodyDefaultsToToday(t *testing.T) {
	svc := &mockReportService{startID: "briefing_20250110"}
	handler := NewReportHandler(svc, common.GetLogger())

	req := httptest.NewRequest("POST", "/api/run/daily-briefing", nil)
	rec := httptest.NewRecorder()
	handler.RunBriefingHandler(rec, req)

	// The service fills in today when dates are absent.
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, svc.startParams.StartDate)
}

func TestRunBriefingHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"conflict", fmt.Errorf("%w: task briefing_20250110", supervisor.ErrConflict), http.StatusConflict},
		{"invalid dates", fmt.Errorf("%w: bad date", supervisor.ErrInvalidParameters), http.StatusBadRequest},
		{"missing credentials", fmt.Errorf("%w: no config", supervisor.ErrPrerequisiteMissing), http.StatusBadRequest},
		{"spawn failure", fmt.Errorf("%w: no such file", supervisor.ErrLaunchFailure), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockReportService{startID: "briefing_20250110", startErr: tt.err}
			handler := NewReportHandler(svc, common.GetLogger())

			req := httptest.NewRequest("POST", "/api/run/daily-briefing",
				strings.NewReader(`{"date": "2025-01-10"}`))
			rec := httptest.NewRecorder()
			handler.RunBriefingHandler(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRunBriefingHandler_ConflictIncludesTaskID(t *testing.T) {
	svc := &mockReportService{
		startID:  "briefing_20250110",
		startErr: fmt.Errorf("%w: task briefing_20250110", supervisor.ErrConflict),
	}
	handler := NewReportHandler(svc, common.GetLogger())

	req := httptest.NewRequest("POST", "/api/run/daily-briefing",
		strings.NewReader(`{"date": "2025-01-10"}`))
	rec := httptest.NewRecorder()
	handler.RunBriefingHandler(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "briefing_20250110", decodeBody(t, rec)["task_id"])
}

func TestRunBriefingHandler_RejectsGet(t *testing.T) {
	handler := NewReportHandler(&mockReportService{}, common.GetLogger())

	req := httptest.NewRequest("GET", "/api/run/daily-briefing", nil)
	rec := httptest.NewRecorder()
	handler.RunBriefingHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTaskStatusHandler(t *testing.T) {
	tests := []struct {
		name     string
		status   supervisor.Status
		wantCode int
		wantBody map[string]interface{}
	}{
		{
			name:     "running",
			status:   supervisor.Status{State: supervisor.StateRunning, ElapsedSeconds: 42},
			wantCode: http.StatusOK,
			wantBody: map[string]interface{}{"status": "running", "elapsed_seconds": float64(42)},
		},
		{
			name:     "complete",
			status:   supervisor.Status{State: supervisor.StateComplete, ArtifactURL: "/reports/briefing_20250110.html"},
			wantCode: http.StatusOK,
			wantBody: map[string]interface{}{"status": "complete", "artifact_url": "/reports/briefing_20250110.html"},
		},
		{
			name:     "error",
			status:   supervisor.Status{State: supervisor.StateError, Detail: "exit status 2; stderr: feed down"},
			wantCode: http.StatusOK,
			wantBody: map[string]interface{}{"status": "error", "detail": "exit status 2; stderr: feed down"},
		},
		{
			name:     "not found",
			status:   supervisor.Status{State: supervisor.StateNotFound},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewReportHandler(&mockReportService{status: tt.status}, common.GetLogger())

			req := httptest.NewRequest("GET", "/api/tasks/briefing_20250110", nil)
			rec := httptest.NewRecorder()
			handler.TaskStatusHandler(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != nil {
				body := decodeBody(t, rec)
				for key, want := range tt.wantBody {
					assert.Equal(t, want, body[key])
				}
			}
		})
	}
}

func TestTaskStatusHandler_MissingID(t *testing.T) {
	handler := NewReportHandler(&mockReportService{}, common.GetLogger())

	req := httptest.NewRequest("GET", "/api/tasks/", nil)
	rec := httptest.NewRecorder()
	handler.TaskStatusHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunInvestmentReportHandler_Success(t *testing.T) {
	svc := &mockReportService{
		investResult: &reports.InvestmentResult{ReportURL: "/investment_reports/600519.html"},
	}
	handler := NewReportHandler(svc, common.GetLogger())

	req := httptest.NewRequest("POST", "/api/run/investment-report",
		strings.NewReader(`{"ticker": "600519"}`))
	rec := httptest.NewRecorder()
	handler.RunInvestmentReportHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/investment_reports/600519.html", decodeBody(t, rec)["report_url"])
}

func TestRunInvestmentReportHandler_Failure(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"missing ticker", fmt.Errorf("%w: ticker is required", supervisor.ErrInvalidParameters), http.StatusBadRequest},
		{"pipeline failure", fmt.Errorf("%w: exit status 1", supervisor.ErrWorkerFailure), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewReportHandler(&mockReportService{investErr: tt.err}, common.GetLogger())

			req := httptest.NewRequest("POST", "/api/run/investment-report",
				strings.NewReader(`{"ticker": "600519"}`))
			rec := httptest.NewRecorder()
			handler.RunInvestmentReportHandler(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
