package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbrief/finbrief/internal/common"
	"github.com/finbrief/finbrief/internal/interfaces"
	"github.com/finbrief/finbrief/internal/models"
	"github.com/finbrief/finbrief/internal/services/supervisor"
)

// memoryStorage is an in-memory ReportConfigStorage for tests.
type memoryStorage struct {
	config *models.ReportConfig
}

func (m *memoryStorage) Get(_ context.Context) (*models.ReportConfig, error) {
	if m.config == nil {
		return nil, interfaces.ErrConfigNotFound
	}
	copied := *m.config
	return &copied, nil
}

func (m *memoryStorage) Set(_ context.Context, config *models.ReportConfig) error {
	copied := *config
	m.config = &copied
	return nil
}

func (m *memoryStorage) SetTicker(_ context.Context, ticker, userInfo string) error {
	if m.config == nil {
		return interfaces.ErrConfigNotFound
	}
	m.config.Ticker = ticker
	m.config.UserInfo = userInfo
	return nil
}

func validConfig() *models.ReportConfig {
	return &models.ReportConfig{
		LLM: models.LLMSettings{Provider: "claude"},
		DataSource: models.DataSourceSettings{
			AccessToken:    "token-123",
			ReportQueryURL: "https://feeds.example.com/announcements",
		},
		Ticker: "600519",
	}
}

func newTestService() (*Service, *memoryStorage) {
	storage := &memoryStorage{}
	return NewService(storage, common.GetLogger()), storage
}

func TestService_SetAndGet(t *testing.T) {
	svc, _ := newTestService()

	require.NoError(t, svc.Set(context.Background(), validConfig()))

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "600519", got.Ticker)
	assert.Equal(t, "claude", got.LLM.Provider)
}

func TestService_GetBeforeSet(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Get(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrConfigNotFound)
}

func TestService_SetRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.ReportConfig)
	}{
		{"missing ticker", func(c *models.ReportConfig) { c.Ticker = "" }},
		{"missing access token", func(c *models.ReportConfig) { c.DataSource.AccessToken = "" }},
		{"malformed query url", func(c *models.ReportConfig) { c.DataSource.ReportQueryURL = "not a url" }},
		{"unsupported provider", func(c *models.ReportConfig) { c.LLM.Provider = "gpt" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService()
			cfg := validConfig()
			tt.mutate(cfg)

			err := svc.Set(context.Background(), cfg)
			assert.ErrorIs(t, err, supervisor.ErrInvalidParameters)
		})
	}
}

func TestService_SetTicker(t *testing.T) {
	svc, storage := newTestService()
	require.NoError(t, svc.Set(context.Background(), validConfig()))

	require.NoError(t, svc.SetTicker(context.Background(), "000858", "growth investor"))

	assert.Equal(t, "000858", storage.config.Ticker)
	assert.Equal(t, "growth investor", storage.config.UserInfo)
	// Credentials survive a ticker update.
	assert.Equal(t, "token-123", storage.config.DataSource.AccessToken)
}

func TestService_SetTickerWithoutStoredConfig(t *testing.T) {
	svc, _ := newTestService()

	err := svc.SetTicker(context.Background(), "000858", "")
	assert.ErrorIs(t, err, supervisor.ErrPrerequisiteMissing)
}

func TestService_CheckCredentials(t *testing.T) {
	svc, storage := newTestService()

	_, err := svc.CheckCredentials(context.Background())
	assert.ErrorIs(t, err, supervisor.ErrPrerequisiteMissing)

	require.NoError(t, svc.Set(context.Background(), validConfig()))
	config, err := svc.CheckCredentials(context.Background())
	require.NoError(t, err)
	// The returned configuration is what the caller exports to spawned
	// processes, so it must carry the stored credentials.
	assert.Equal(t, "token-123", config.DataSource.AccessToken)

	storage.config.DataSource.AccessToken = ""
	_, err = svc.CheckCredentials(context.Background())
	assert.ErrorIs(t, err, supervisor.ErrPrerequisiteMissing)
}
