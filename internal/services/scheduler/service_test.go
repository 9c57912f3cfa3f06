package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbrief/finbrief/internal/common"
	"github.com/finbrief/finbrief/internal/models"
	"github.com/finbrief/finbrief/internal/services/reports"
)

type noopChecker struct{}

func (noopChecker) CheckCredentials(_ context.Context) (*models.ReportConfig, error) {
	return &models.ReportConfig{
		LLM: models.LLMSettings{Provider: "claude"},
		DataSource: models.DataSourceSettings{
			AccessToken:    "token-123",
			ReportQueryURL: "https://feeds.example.com/announcements",
		},
		Ticker: "600519",
	}, nil
}

func (noopChecker) SetTicker(_ context.Context, _, _ string) error { return nil }

func newTestService(t *testing.T, enabled bool, schedule string) *Service {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Reports.BriefingDir = t.TempDir()
	cfg.Scheduler.Enabled = enabled
	cfg.Scheduler.Schedule = schedule
	cfg.Pipeline.Timeout = time.Second

	reportService := reports.NewService(cfg, noopChecker{}, common.GetLogger())
	return NewService(cfg, reportService, common.GetLogger())
}

func TestService_DisabledStartsNothing(t *testing.T) {
	svc := newTestService(t, false, "")
	require.NoError(t, svc.Start())
	assert.Zero(t, svc.entryID)
}

func TestService_RejectsInvalidSchedule(t *testing.T) {
	svc := newTestService(t, true, "not a cron line")
	assert.Error(t, svc.Start())
}

func TestService_RejectsTooFrequentSchedule(t *testing.T) {
	svc := newTestService(t, true, "* * * * *")
	assert.Error(t, svc.Start())
}

func TestService_StartAndStop(t *testing.T) {
	svc := newTestService(t, true, "0 8 * * *")
	require.NoError(t, svc.Start())
	assert.NotZero(t, svc.entryID)
	svc.Stop()
}
