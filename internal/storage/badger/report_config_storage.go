package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/finbrief/finbrief/internal/interfaces"
	"github.com/finbrief/finbrief/internal/models"
)

// reportConfigKey is the single key under which the configuration is stored.
// The config API is a whole-document read/replace, so one record is enough.
const reportConfigKey = "report_config"

// storedReportConfig wraps the config with persistence metadata.
type storedReportConfig struct {
	Key       string              `badgerhold:"key"`
	Config    models.ReportConfig `json:"config"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// ReportConfigStorage implements the ReportConfigStorage interface for Badger
type ReportConfigStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewReportConfigStorage creates a new ReportConfigStorage instance
func NewReportConfigStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ReportConfigStorage {
	return &ReportConfigStorage{
		db:     db,
		logger: logger,
	}
}

// Get retrieves the stored report configuration
func (s *ReportConfigStorage) Get(ctx context.Context) (*models.ReportConfig, error) {
	var stored storedReportConfig
	err := s.db.Store().Get(reportConfigKey, &stored)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report config: %w", err)
	}

	config := stored.Config
	return &config, nil
}

// Set stores the full report configuration, replacing any prior value
func (s *ReportConfigStorage) Set(ctx context.Context, config *models.ReportConfig) error {
	if config == nil {
		return fmt.Errorf("report config cannot be nil")
	}

	stored := storedReportConfig{
		Key:       reportConfigKey,
		Config:    *config,
		UpdatedAt: time.Now(),
	}

	if err := s.db.Store().Upsert(reportConfigKey, &stored); err != nil {
		return fmt.Errorf("failed to store report config: %w", err)
	}

	s.logger.Info().Str("ticker", config.Ticker).Msg("Stored report configuration")
	return nil
}

// SetTicker updates the ticker and user info fields in place
func (s *ReportConfigStorage) SetTicker(ctx context.Context, ticker, userInfo string) error {
	config, err := s.Get(ctx)
	if err != nil {
		return err
	}

	config.Ticker = ticker
	config.UserInfo = userInfo

	return s.Set(ctx, config)
}
