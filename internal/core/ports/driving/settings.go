package driving

import "github.com/custodia-labs/marginalia/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates one setting by its config key, parsing value for its type.
	Set(key, value string) error

	// SetToken stores the remote bearer token.
	SetToken(token string) error

	// Keys lists the settable config keys in display order.
	Keys() []string

	// Validate checks the current settings.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
