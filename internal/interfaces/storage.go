package interfaces

import (
	"context"

	"github.com/finbrief/finbrief/internal/models"
)

// ReportConfigStorage - interface for report pipeline configuration persistence
type ReportConfigStorage interface {
	// Get returns the stored report configuration.
	// Returns ErrConfigNotFound when nothing has been stored yet.
	Get(ctx context.Context) (*models.ReportConfig, error)

	// Set stores the full report configuration, replacing any prior value.
	Set(ctx context.Context, config *models.ReportConfig) error

	// SetTicker updates only the ticker and user info fields, preserving the
	// rest of the stored configuration.
	SetTicker(ctx context.Context, ticker, userInfo string) error
}

// StorageManager provides access to all storage backends
type StorageManager interface {
	ReportConfigStorage() ReportConfigStorage
	Close() error
}
