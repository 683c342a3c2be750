package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/open-teleop/dronecontrols/pkg/config"
	customlog "github.com/open-teleop/dronecontrols/pkg/log"
	"github.com/open-teleop/dronecontrols/services"
)

// SettingsHandler holds dependencies for the settings endpoints.
type SettingsHandler struct {
	settingsService services.SettingsService
	logger          customlog.Logger
}

// NewSettingsHandler creates a new handler for settings endpoints.
func NewSettingsHandler(settingsService services.SettingsService, logger customlog.Logger) *SettingsHandler {
	if settingsService == nil {
		panic("SettingsService cannot be nil in NewSettingsHandler")
	}
	if logger == nil {
		panic("Logger cannot be nil in NewSettingsHandler")
	}
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

// RegisterSettingsRoutes registers the settings endpoints with the Fiber app.
func RegisterSettingsRoutes(app *fiber.App, settingsService services.SettingsService, logger customlog.Logger) {
	h := NewSettingsHandler(settingsService, logger)

	group := app.Group("/api/v1/settings")
	group.Get("/", h.handleGetSettings)
	group.Put("/", h.handleUpdateSettings)

	logger.Infof("Registered drone settings API endpoints under /api/v1/settings")
}

// handleGetSettings returns the active settings as JSON, or as YAML when the
// client asks for it.
func (h *SettingsHandler) handleGetSettings(c *fiber.Ctx) error {
	if !wantsYAML(c.Get(fiber.HeaderAccept)) && c.Query("format") != "yaml" {
		return c.JSON(h.settingsService.GetSettings())
	}

	yamlData, err := h.settingsService.GetSettingsYAML()
	if err != nil {
		h.logger.Errorf("Failed to encode drone settings: %v", err)
		return errorJSON(c, http.StatusInternalServerError, fmt.Errorf("failed to retrieve settings: %w", err))
	}
	c.Set(fiber.HeaderContentType, "application/x-yaml")
	return c.Send(yamlData)
}

// handleUpdateSettings replaces the active settings. YAML bodies are merged
// over the defaults; JSON bodies are taken as a full settings document.
func (h *SettingsHandler) handleUpdateSettings(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return errorJSON(c, http.StatusBadRequest, errors.New("request body cannot be empty"))
	}

	var err error
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		settings := config.DefaultSettings()
		if err := json.Unmarshal(body, settings); err != nil {
			return errorJSON(c, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		}
		err = h.settingsService.UpdateSettings(settings)
	} else {
		err = h.settingsService.UpdateSettingsYAML(body)
	}

	if err != nil {
		h.logger.Errorf("Failed to update drone settings: %v", err)
		if errors.Is(err, config.ErrInvalidSettings) || errors.Is(err, config.ErrMalformedSettings) {
			return errorJSON(c, http.StatusBadRequest, err)
		}
		return errorJSON(c, http.StatusInternalServerError, err)
	}

	h.logger.Infof("Drone settings updated through the API")
	return c.JSON(h.settingsService.GetSettings())
}

func wantsYAML(accept string) bool {
	return strings.Contains(accept, "yaml")
}
