package config

import (
	"os"
	"strconv"

	"ttlearn/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Analysis AnalysisConfig
	Settings SettingsConfig
}

// DatabaseConfig holds run history store settings. An empty URL selects the
// embedded sqlite database at Fallback.
type DatabaseConfig struct {
	URL      string
	Fallback string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port      string
	AdminPort string
	GinMode   string
}

// AnalysisConfig holds default analysis parameters, overridable per request
type AnalysisConfig struct {
	Mode        string
	DataRoot    string
	TimelineDir string
	Outcome     string
	NTrials     int
}

// SettingsConfig holds the location of the persisted user settings file
type SettingsConfig struct {
	Path string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: loadDatabaseConfig(),
		Server:   loadServerConfig(),
		Analysis: loadAnalysisConfig(),
		Settings: loadSettingsConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:      getEnvOrDefault("DATABASE_URL", ""),
		Fallback: getEnvOrDefault("SQLITE_PATH", "ttlearn.db"),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:      getEnvOrDefault("PORT", "8080"),
		AdminPort: getEnvOrDefault("ADMIN_PORT", "9090"),
		GinMode:   getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Mode:        getEnvOrDefault("ANALYSIS_MODE", "timeline"),
		DataRoot:    getEnvOrDefault("DATA_ROOT", ""),
		TimelineDir: getEnvOrDefault("TIMELINE_DIR", ""),
		Outcome:     getEnvOrDefault("OUTCOME", "Win"),
		NTrials:     getEnvIntOrDefault("N_TRIALS", 10),
	}
}

func loadSettingsConfig() SettingsConfig {
	return SettingsConfig{
		Path: getEnvOrDefault("SETTINGS_PATH", ""),
	}
}

func validateConfig(config *Config) error {
	if config.Analysis.NTrials < 1 {
		return errors.ConfigInvalid("N_TRIALS must be at least 1")
	}
	if config.Server.Port == config.Server.AdminPort {
		return errors.ConfigInvalid("PORT and ADMIN_PORT must differ")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
