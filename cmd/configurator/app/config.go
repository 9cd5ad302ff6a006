package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/configurator/pkg/constants"
	"github.com/agentstation/configurator/pkg/errors"
)

// Config holds the application configuration loaded from flags, the
// environment, .env files and the config file.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Platform
	URL     string
	Token   string
	Timeout time.Duration

	// DocumentPath is the desired-state YAML document.
	DocumentPath string

	// MetricsFile receives transport metrics in the prometheus text format
	// after each command when set.
	MetricsFile string

	// Logging
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration in order of precedence:
//  1. Command-line flags (applied later with UpdateFromFlags)
//  2. Environment variables (CONFIGURATOR_URL, CONFIGURATOR_TOKEN, ...)
//  3. .env and .env.local files
//  4. Config file (./.configurator.yaml or ~/.configurator.yaml)
//  5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix("configurator")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("config_path", constants.DefaultDocumentPath)
	v.SetDefault("timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(constants.ConfigFileName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicitly named file must exist; the search locations are optional.
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("config file", err.Error(), err)
		}
	}

	return &Config{
		ConfigFile:   v.ConfigFileUsed(),
		Format:       v.GetString("format"),
		URL:          v.GetString("url"),
		Token:        v.GetString("token"),
		Timeout:      v.GetDuration("timeout"),
		DocumentPath: v.GetString("config_path"),
		MetricsFile:  v.GetString("metrics_file"),
		LogLevel:     v.GetString("log_level"),
		LogFormat:    v.GetString("log_format"),
		LogOutput:    v.GetString("log_output"),
	}, nil
}

// Flags holds the values of the persistent root flags.
type Flags struct {
	Verbose  bool
	Quiet    bool
	NoColor  bool
	Format   string
	LogLevel string
	URL      string
	Token    string
	File     string
}

// UpdateFromFlags overrides config values with explicitly set flags.
func (c *Config) UpdateFromFlags(f Flags) {
	c.Verbose = f.Verbose
	c.Quiet = f.Quiet
	c.NoColor = f.NoColor
	if f.Format != "" {
		c.Format = f.Format
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	if f.URL != "" {
		c.URL = f.URL
	}
	if f.Token != "" {
		c.Token = f.Token
	}
	if f.File != "" {
		c.DocumentPath = f.File
	}
}

// RequirePlatform returns a ConfigError when the platform credentials are
// incomplete.
func (c *Config) RequirePlatform() error {
	switch {
	case c.URL == "":
		return errors.NewConfigError("url", "set --url or "+constants.EnvURL, nil)
	case c.Token == "":
		return errors.NewConfigError("token", "set --token or "+constants.EnvToken, errors.ErrAPIKeyRequired)
	}
	return nil
}

// loadEnvFiles loads .env then .env.local. Variables already set win.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}
