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
	"github.com/finbrief/finbrief/internal/interfaces"
	"github.com/finbrief/finbrief/internal/models"
	"github.com/finbrief/finbrief/internal/services/supervisor"
)

type mockConfigService struct {
	config *models.ReportConfig
	getErr error
	setErr error
}

func (m *mockConfigService) Get(_ context.Context) (*models.ReportConfig, error) {
	return m.config, m.getErr
}

func (m *mockConfigService) Set(_ context.Context, config *models.ReportConfig) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.config = config
	return nil
}

func TestConfigHandler_Get(t *testing.T) {
	svc := &mockConfigService{config: &models.ReportConfig{Ticker: "600519"}}
	handler := NewConfigHandler(svc, common.GetLogger())

	req := httptest.NewRequest("GET", "/api/config", nil)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.ReportConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "600519", got.Ticker)
}

func TestConfigHandler_GetNotStored(t *testing.T) {
	svc := &mockConfigService{getErr: interfaces.ErrConfigNotFound}
	handler := NewConfigHandler(svc, common.GetLogger())

	req := httptest.NewRequest("GET", "/api/config", nil)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfigHandler_Set(t *testing.T) {
	svc := &mockConfigService{}
	handler := NewConfigHandler(svc, common.GetLogger())

	body := `{"llm": {"provider": "claude"}, "dataSource": {"accessToken": "tok", "reportQueryUrl": "https://feeds.example.com"}, "ticker": "600519"}`
	req := httptest.NewRequest("POST", "/api/config", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.config)
	assert.Equal(t, "600519", svc.config.Ticker)
}

func TestConfigHandler_SetValidationFailure(t *testing.T) {
	svc := &mockConfigService{setErr: fmt.Errorf("%w: field Ticker failed required validation", supervisor.ErrInvalidParameters)}
	handler := NewConfigHandler(svc, common.GetLogger())

	req := httptest.NewRequest("POST", "/api/config", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfigHandler_RejectsDelete(t *testing.T) {
	handler := NewConfigHandler(&mockConfigService{}, common.GetLogger())

	req := httptest.NewRequest("DELETE", "/api/config", nil)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
