package driving

import "github.com/custodia-labs/docgraph/internal/core/domain"

// SettingsService reads and writes application settings.
type SettingsService interface {
	// Get returns the current settings with defaults applied.
	Get() (*domain.AppSettings, error)

	// Save validates and persists settings. API keys are never written.
	Save(settings *domain.AppSettings) error

	// ConfigPath returns the configuration file location.
	ConfigPath() string
}
