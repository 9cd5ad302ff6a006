// Package constants provides shared constants used throughout the configurator codebase.
// This includes timeouts, limits, file permissions, and other configuration values
// that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for a single request to the platform API
	DefaultHTTPTimeout = 30 * time.Second

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// ShutdownTimeout bounds graceful shutdown after a failed command
	ShutdownTimeout = 5 * time.Second

	// RetryBackoff is the base backoff duration for retries
	RetryBackoff = 1 * time.Second

	// MaxRetryBackoff is the maximum backoff duration for retries
	MaxRetryBackoff = 30 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// MaxRetries is the maximum number of retry attempts for retryable queries
	MaxRetries = 3

	// DefaultPageSize is the page size requested from list queries
	DefaultPageSize = 100

	// MaxNameLength is the maximum allowed length for entity names
	MaxNameLength = 250
)

// Path constants
const (
	// DefaultDocumentPath is the default location of the desired-state document
	DefaultDocumentPath = "config.yml"

	// ConfigFileName is the base name of the optional CLI configuration file
	ConfigFileName = ".configurator"
)

// Environment variable names read by the CLI
const (
	// EnvURL holds the GraphQL endpoint of the platform
	EnvURL = "CONFIGURATOR_URL"

	// EnvToken holds the bearer token used against the platform
	EnvToken = "CONFIGURATOR_TOKEN"
)

// Format constants
const (
	// TimeFormatISO8601 is the ISO 8601 time format
	TimeFormatISO8601 = time.RFC3339
)

// EditorJSVersion is the version stamped into rich-text product descriptions
const EditorJSVersion = "2.24.3"
