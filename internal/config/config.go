// Package config loads application configuration from .env files,
// environment variables, and an optional config file.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bookops/overload/internal/sierra"
	"github.com/bookops/overload/pkg/errors"
)

// Config holds the application configuration loaded from various sources.
type Config struct {
	// Sierra search backends
	BPLSolrTarget      string
	BPLSolrClientKey   string
	NYPLPlatformTarget string
	NYPLPlatformOAuth  string
	NYPLPlatformClient string
	NYPLPlatformSecret string
	RequestTimeout     time.Duration

	// Template storage
	TemplateDB string

	// Logging configuration
	LogLevel  string
	LogFormat string

	// Config file actually used, if any
	ConfigFile string
}

// Load reads configuration from all sources in order of precedence:
// 1. Environment variables
// 2. .env files
// 3. Config file (~/.overload.yaml)
// 4. Defaults
func Load() (*Config, error) {
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".overload")
	}
	_ = viper.ReadInConfig()

	config := &Config{
		BPLSolrTarget:      viper.GetString("BPL_SOLR_TARGET"),
		BPLSolrClientKey:   viper.GetString("BPL_SOLR_CLIENT"),
		NYPLPlatformTarget: viper.GetString("NYPL_PLATFORM_TARGET"),
		NYPLPlatformOAuth:  viper.GetString("NYPL_PLATFORM_OAUTH"),
		NYPLPlatformClient: viper.GetString("NYPL_PLATFORM_CLIENT"),
		NYPLPlatformSecret: viper.GetString("NYPL_PLATFORM_SECRET"),
		RequestTimeout:     viper.GetDuration("OVERLOAD_REQUEST_TIMEOUT"),
		TemplateDB:         viper.GetString("OVERLOAD_TEMPLATE_DB"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          getEnvOrDefault("LOG_FORMAT", "auto"),
		ConfigFile:         viper.ConfigFileUsed(),
	}

	if config.TemplateDB == "" {
		if home, err := os.UserHomeDir(); err == nil {
			config.TemplateDB = filepath.Join(home, ".overload", "templates.db")
		} else {
			config.TemplateDB = "templates.db"
		}
	}
	return config, nil
}

// Sierra builds the search backend settings from the loaded configuration.
func (c *Config) Sierra() sierra.Config {
	return sierra.Config{
		SolrEndpoint:     c.BPLSolrTarget,
		SolrClientKey:    c.BPLSolrClientKey,
		PlatformTarget:   c.NYPLPlatformTarget,
		PlatformOAuthURL: c.NYPLPlatformOAuth,
		PlatformClientID: c.NYPLPlatformClient,
		PlatformSecret:   c.NYPLPlatformSecret,
		Timeout:          c.RequestTimeout,
	}
}

// ValidateBPL checks that the BPL Solr settings are present.
func (c *Config) ValidateBPL() error {
	if c.BPLSolrTarget == "" || c.BPLSolrClientKey == "" {
		return errors.New("BPL_SOLR_TARGET and BPL_SOLR_CLIENT must be set")
	}
	return nil
}

// ValidateNYPL checks that the NYPL Platform settings are present.
func (c *Config) ValidateNYPL() error {
	if c.NYPLPlatformTarget == "" || c.NYPLPlatformOAuth == "" ||
		c.NYPLPlatformClient == "" || c.NYPLPlatformSecret == "" {
		return errors.New("NYPL_PLATFORM_TARGET, NYPL_PLATFORM_OAUTH, NYPL_PLATFORM_CLIENT and NYPL_PLATFORM_SECRET must be set")
	}
	return nil
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
