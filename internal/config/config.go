// Package config provides Viper-based configuration loading for the cultivation server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Narrator providers.
const (
	NarratorNone      = "none"
	NarratorAnthropic = "anthropic"
	NarratorGemini    = "gemini"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// StorageConfig selects the character store.
type StorageConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string `mapstructure:"driver"`
	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// ContentConfig locates the static catalogs.
type ContentConfig struct {
	// Dir holds the monster, tag, breakthrough, and spirit root YAML files.
	Dir string `mapstructure:"dir"`
}

// NarratorConfig selects the flavor-text generator.
type NarratorConfig struct {
	// Provider is "none", "anthropic", or "gemini".
	Provider  string        `mapstructure:"provider"`
	Model     string        `mapstructure:"model"`
	APIKey    string        `mapstructure:"api_key"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// CombatConfig holds the tunable combat constants.
type CombatConfig struct {
	BaseDodgeRate float64 `mapstructure:"base_dodge_rate"`
	BaseFleeRate  float64 `mapstructure:"base_flee_rate"`
}

// RandomConfig selects the random source.
type RandomConfig struct {
	// Seed makes every draw reproducible; 0 selects the crypto source.
	Seed int64 `mapstructure:"seed"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Content  ContentConfig  `mapstructure:"content"`
	Narrator NarratorConfig `mapstructure:"narrator"`
	Combat   CombatConfig   `mapstructure:"combat"`
	Random   RandomConfig   `mapstructure:"random"`
}

// Validate checks all configuration invariants. Database settings are only
// checked when the postgres driver is selected.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Storage.Driver == DriverPostgres {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Content.Dir == "" {
		errs = append(errs, "content.dir must not be empty")
	}
	if err := validateNarrator(c.Narrator); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCombat(c.Combat); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	switch s.Driver {
	case DriverPostgres:
		return nil
	case DriverSQLite:
		if s.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path must not be empty for the sqlite driver")
		}
		return nil
	default:
		return fmt.Errorf("storage.driver must be one of [postgres, sqlite], got %q", s.Driver)
	}
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateNarrator(n NarratorConfig) error {
	var errs []string
	switch n.Provider {
	case NarratorNone:
	case NarratorAnthropic, NarratorGemini:
		if n.APIKey == "" {
			errs = append(errs, fmt.Sprintf("narrator.api_key must not be empty for provider %q", n.Provider))
		}
		if n.Model == "" {
			errs = append(errs, "narrator.model must not be empty")
		}
	default:
		errs = append(errs, fmt.Sprintf("narrator.provider must be one of [none, anthropic, gemini], got %q", n.Provider))
	}
	if n.MaxTokens < 1 {
		errs = append(errs, fmt.Sprintf("narrator.max_tokens must be >= 1, got %d", n.MaxTokens))
	}
	if n.Timeout <= 0 {
		errs = append(errs, "narrator.timeout must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCombat(c CombatConfig) error {
	var errs []string
	if c.BaseDodgeRate < 0 || c.BaseDodgeRate > 1 {
		errs = append(errs, fmt.Sprintf("combat.base_dodge_rate must be in [0, 1], got %f", c.BaseDodgeRate))
	}
	if c.BaseFleeRate < 0 || c.BaseFleeRate > 1 {
		errs = append(errs, fmt.Sprintf("combat.base_flee_rate must be in [0, 1], got %f", c.BaseFleeRate))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadDefaults builds a Config from defaults and environment variables only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func LoadDefaults() (Config, error) {
	return LoadFromViper(newViper())
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// newViper returns a Viper instance with CULTIVATION_ environment overrides
// and every default registered.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("CULTIVATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", "cultivation.db")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "cultivation")
	v.SetDefault("database.password", "cultivation")
	v.SetDefault("database.name", "cultivation")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("content.dir", "content")

	v.SetDefault("narrator.provider", NarratorNone)
	v.SetDefault("narrator.model", "")
	v.SetDefault("narrator.api_key", "")
	v.SetDefault("narrator.max_tokens", 200)
	v.SetDefault("narrator.timeout", "10s")

	v.SetDefault("combat.base_dodge_rate", 0.05)
	v.SetDefault("combat.base_flee_rate", 0.3)

	v.SetDefault("random.seed", 0)
}
