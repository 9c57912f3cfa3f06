package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/finbrief/finbrief/internal/interfaces"
	"github.com/finbrief/finbrief/internal/models"
	"github.com/finbrief/finbrief/internal/services/supervisor"
)

// ConfigService is the slice of the config service the HTTP layer uses.
type ConfigService interface {
	Get(ctx context.Context) (*models.ReportConfig, error)
	Set(ctx context.Context, config *models.ReportConfig) error
}

// ConfigHandler serves the persisted report configuration.
type ConfigHandler struct {
	config ConfigService
	logger arbor.ILogger
}

func NewConfigHandler(configService ConfigService, logger arbor.ILogger) *ConfigHandler {
	return &ConfigHandler{
		config: configService,
		logger: logger,
	}
}

// Handle routes GET and POST on /api/config.
func (h *ConfigHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPost:
		h.set(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *ConfigHandler) get(w http.ResponseWriter, r *http.Request) {
	config, err := h.config.Get(r.Context())
	if err != nil {
		if errors.Is(err, interfaces.ErrConfigNotFound) {
			WriteError(w, http.StatusNotFound, "no report configuration stored")
			return
		}
		h.logger.Error().Err(err).Msg("Failed to load report configuration")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, config)
}

func (h *ConfigHandler) set(w http.ResponseWriter, r *http.Request) {
	var config models.ReportConfig
	if err := DecodeJSON(r, &config); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.config.Set(r.Context(), &config); err != nil {
		if errors.Is(err, supervisor.ErrInvalidParameters) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("Failed to store report configuration")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "success",
	})
}
