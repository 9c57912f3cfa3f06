package app

import (
	"fmt"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/finbrief/finbrief/internal/common"
	"github.com/finbrief/finbrief/internal/handlers"
	"github.com/finbrief/finbrief/internal/interfaces"
	configsvc "github.com/finbrief/finbrief/internal/services/config"
	"github.com/finbrief/finbrief/internal/services/reports"
	"github.com/finbrief/finbrief/internal/services/scheduler"
	"github.com/finbrief/finbrief/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager

	ConfigService    *configsvc.Service
	ReportService    *reports.Service
	SchedulerService *scheduler.Service

	APIHandler    *handlers.APIHandler
	ReportHandler *handlers.ReportHandler
	ConfigHandler *handlers.ConfigHandler
}

// New wires the application: storage, services, handlers. The scheduler is
// created but not started; main starts it alongside the HTTP server.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	for _, dir := range cfg.ArtifactDirs() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
		}
	}

	storageManager, err := badger.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	configService := configsvc.NewService(storageManager.ReportConfigStorage(), logger)
	reportService := reports.NewService(cfg, configService, logger)
	schedulerService := scheduler.NewService(cfg, reportService, logger)

	return &App{
		Config:           cfg,
		Logger:           logger,
		StorageManager:   storageManager,
		ConfigService:    configService,
		ReportService:    reportService,
		SchedulerService: schedulerService,
		APIHandler:       handlers.NewAPIHandler(logger),
		ReportHandler:    handlers.NewReportHandler(reportService, logger),
		ConfigHandler:    handlers.NewConfigHandler(configService, logger),
	}, nil
}

// Close releases application resources.
func (a *App) Close() error {
	if a.SchedulerService != nil {
		a.SchedulerService.Stop()
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}
	return nil
}
