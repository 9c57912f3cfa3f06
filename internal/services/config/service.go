package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/finbrief/finbrief/internal/interfaces"
	"github.com/finbrief/finbrief/internal/models"
	"github.com/finbrief/finbrief/internal/services/supervisor"
)

// Service manages the persisted report pipeline configuration.
type Service struct {
	storage  interfaces.ReportConfigStorage
	validate *validator.Validate
	logger   arbor.ILogger
}

func NewService(storage interfaces.ReportConfigStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage:  storage,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Get returns the stored configuration, or ErrConfigNotFound when none
// has been saved yet.
func (s *Service) Get(ctx context.Context) (*models.ReportConfig, error) {
	return s.storage.Get(ctx)
}

// Set validates and stores a full configuration, replacing the prior value.
func (s *Service) Set(ctx context.Context, config *models.ReportConfig) error {
	if config == nil {
		return fmt.Errorf("%w: configuration body is required", supervisor.ErrInvalidParameters)
	}
	if err := s.validate.Struct(config); err != nil {
		return fmt.Errorf("%w: %s", supervisor.ErrInvalidParameters, validationDetail(err))
	}

	if err := s.storage.Set(ctx, config); err != nil {
		return fmt.Errorf("failed to store report configuration: %w", err)
	}

	s.logger.Info().
		Str("ticker", config.Ticker).
		Str("provider", config.LLM.Provider).
		Msg("Report configuration updated")
	return nil
}

// SetTicker updates only the ticker and user info on the stored
// configuration. The rest of the configuration must already exist.
func (s *Service) SetTicker(ctx context.Context, ticker, userInfo string) error {
	if ticker == "" {
		return fmt.Errorf("%w: ticker is required", supervisor.ErrInvalidParameters)
	}
	if err := s.storage.SetTicker(ctx, ticker, userInfo); err != nil {
		if errors.Is(err, interfaces.ErrConfigNotFound) {
			return fmt.Errorf("%w: no report configuration stored", supervisor.ErrPrerequisiteMissing)
		}
		return fmt.Errorf("failed to update ticker: %w", err)
	}

	s.logger.Info().Str("ticker", ticker).Msg("Report ticker updated")
	return nil
}

// CheckCredentials verifies the announcement feed credentials are present
// and returns the stored configuration so the caller can hand it to the
// process it spawns. Briefing launches call this before spawning a worker so
// that a missing prerequisite surfaces immediately instead of as a failed
// task.
func (s *Service) CheckCredentials(ctx context.Context) (*models.ReportConfig, error) {
	config, err := s.storage.Get(ctx)
	if err != nil {
		if errors.Is(err, interfaces.ErrConfigNotFound) {
			return nil, fmt.Errorf("%w: no report configuration stored", supervisor.ErrPrerequisiteMissing)
		}
		return nil, fmt.Errorf("failed to load report configuration: %w", err)
	}
	if !config.HasCredentials() {
		return nil, fmt.Errorf("%w: announcement feed credentials are not configured", supervisor.ErrPrerequisiteMissing)
	}
	return config, nil
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return fmt.Sprintf("field %s failed %s validation", first.Field(), first.Tag())
	}
	return err.Error()
}
