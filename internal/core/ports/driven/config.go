package driven

// ConfigStore is a flat key-value store for application configuration.
// Keys use dot notation matching the file's sections, e.g. "retrieval.budget".
type ConfigStore interface {
	// Get retrieves a raw value.
	Get(key string) (any, bool)

	// GetString retrieves a string value, or "" when absent or mistyped.
	GetString(key string) string

	// GetInt retrieves an integer value, or 0 when absent or mistyped.
	GetInt(key string) int

	// GetFloat retrieves a numeric value as float64, or 0 when absent.
	GetFloat(key string) float64

	// Set stores a value and persists immediately.
	Set(key string, value any) error

	// Save persists the current configuration.
	Save() error

	// Path returns where the configuration is stored.
	Path() string
}
