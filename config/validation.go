package config

import (
	"fmt"
	"net/url"
	"time"
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of config validation.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ConfigValidationError is returned when config validation fails.
type ConfigValidationError struct {
	Errors []ValidationError
}

func (e *ConfigValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "config validation failed"
	}
	return "config validation failed: " + e.Errors[0].Field + ": " + e.Errors[0].Message
}

// Validate checks the config for invalid values.
func (c *Config) Validate() ValidationResult {
	var errors []ValidationError

	errors = append(errors, validateBackend(&c.Backend)...)
	errors = append(errors, validateDashboard(&c.Dashboard)...)
	errors = append(errors, validateNotifications(&c.Notifications)...)
	errors = append(errors, validateWeb(&c.Web)...)

	return ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

// Err returns a *ConfigValidationError when the config is invalid, nil otherwise.
func (c *Config) Err() error {
	result := c.Validate()
	if result.Valid {
		return nil
	}
	return &ConfigValidationError{Errors: result.Errors}
}

func validateBackend(b *BackendConfig) []ValidationError {
	var errors []ValidationError

	u, err := url.Parse(b.BaseURL)
	if b.BaseURL == "" || err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "backend.base_url",
			Message: "must be an absolute http(s) URL",
		})
	}

	if b.Timeout < 1*time.Second {
		errors = append(errors, ValidationError{
			Field:   "backend.timeout",
			Message: "must be at least 1 second",
		})
	}

	return errors
}

func validateDashboard(d *DashboardConfig) []ValidationError {
	var errors []ValidationError

	if d.RefreshInterval < 1*time.Second {
		errors = append(errors, ValidationError{
			Field:   "dashboard.refresh_interval",
			Message: "must be at least 1 second",
		})
	}

	if d.ExportReenableDelay < 0 {
		errors = append(errors, ValidationError{
			Field:   "dashboard.export_reenable_delay",
			Message: "must be non-negative",
		})
	}

	if d.Renderer != RendererTerminal && d.Renderer != RendererWeb {
		errors = append(errors, ValidationError{
			Field:   "dashboard.renderer",
			Message: fmt.Sprintf("must be %q or %q", RendererTerminal, RendererWeb),
		})
	}

	if d.ExchangeURLTemplate == "" {
		errors = append(errors, ValidationError{
			Field:   "dashboard.exchange_url_template",
			Message: "must not be empty",
		})
	}

	return errors
}

func validateNotifications(n *NotificationsConfig) []ValidationError {
	var errors []ValidationError

	if n.Backend != NotificationBackendFull && n.Backend != NotificationBackendNull {
		errors = append(errors, ValidationError{
			Field:   "notifications.backend",
			Message: fmt.Sprintf("must be %q or %q", NotificationBackendFull, NotificationBackendNull),
		})
	}

	if n.ToastTTL <= 0 {
		errors = append(errors, ValidationError{
			Field:   "notifications.toast_ttl",
			Message: "must be positive",
		})
	}

	if n.ToastFade < 0 {
		errors = append(errors, ValidationError{
			Field:   "notifications.toast_fade",
			Message: "must be non-negative",
		})
	}

	if n.SystemTTL < 0 {
		errors = append(errors, ValidationError{
			Field:   "notifications.system_ttl",
			Message: "must be non-negative",
		})
	}

	if n.ReconnectDelay <= 0 {
		errors = append(errors, ValidationError{
			Field:   "notifications.reconnect_delay",
			Message: "must be positive",
		})
	}

	switch n.Permission {
	case PermissionDefault, PermissionGranted, PermissionDenied:
	default:
		errors = append(errors, ValidationError{
			Field:   "notifications.permission",
			Message: "must be default, granted or denied",
		})
	}

	return errors
}

func validateWeb(w *WebConfig) []ValidationError {
	var errors []ValidationError

	if w.Port < 1 || w.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "web.port",
			Message: "must be between 1 and 65535",
		})
	}

	return errors
}
