package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	"releasegate/config"

	"github.com/gin-gonic/gin"
)

// SettingsHandler handles settings-related endpoints
type SettingsHandler struct {
	cfg *config.Config
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(cfg *config.Config) *SettingsHandler {
	return &SettingsHandler{cfg: cfg}
}

// validateURL checks that an optional setting is an absolute http(s) URL
func validateURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	return nil
}

// GetSettings returns the stored settings, falling back to the running configuration
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	stored, err := config.LoadSettings(h.cfg.SettingsPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load settings",
			"details": err.Error(),
		})
		return
	}

	settings := h.cfg.Settings()
	if stored.ReferenceURL != "" {
		settings.ReferenceURL = stored.ReferenceURL
	}
	if stored.GatewayURL != "" {
		settings.GatewayURL = stored.GatewayURL
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings persists the user settings. They take effect on the next start.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var newSettings config.UserSettings
	if err := c.ShouldBindJSON(&newSettings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid settings format",
			"details": err.Error(),
		})
		return
	}

	for _, raw := range []string{newSettings.ReferenceURL, newSettings.GatewayURL} {
		if err := validateURL(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid URL",
				"details": err.Error(),
			})
			return
		}
	}

	if err := config.SaveSettings(h.cfg.SettingsPath, &newSettings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to save settings",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Settings updated successfully",
		"settings": newSettings,
	})
}
