package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/finbrief/finbrief/internal/common"
	"github.com/finbrief/finbrief/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db           *BadgerDB
	reportConfig interfaces.ReportConfigStorage
	logger       arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:           db,
		reportConfig: NewReportConfigStorage(db, logger),
		logger:       logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// ReportConfigStorage returns the ReportConfig storage interface
func (m *Manager) ReportConfigStorage() interfaces.ReportConfigStorage {
	return m.reportConfig
}

// Close closes the underlying database
func (m *Manager) Close() error {
	return m.db.Close()
}
