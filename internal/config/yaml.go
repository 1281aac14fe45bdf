package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the top-level roster configuration file.
type YAMLConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
	Import    ImportConfig    `yaml:"import"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host                string   `yaml:"host"`
	Port                int      `yaml:"port"`
	CORSOrigins         []string `yaml:"cors_origins"`
	LoginRatePerMinute  int      `yaml:"login_rate_per_minute"`
	UploadRatePerMinute int      `yaml:"upload_rate_per_minute"`
	MaxUploadSize       string   `yaml:"max_upload_size"`
	ShutdownTimeout     string   `yaml:"shutdown_timeout"`
}

// DatabaseConfig selects the account store backend. An empty DSN with the
// sqlite driver uses roster.db in the data directory.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// AuthConfig controls token issuance and the development login.
type AuthConfig struct {
	JWTSecret    string         `yaml:"jwt_secret"`
	JWTExpiry    string         `yaml:"jwt_expiry"`
	RequireToken bool           `yaml:"require_token"`
	DevLogin     DevLoginConfig `yaml:"dev_login"`
}

// DevLoginConfig is a fixed credential pair that logs in as super admin
// without touching the store. Honored only when the server runs with --dev.
type DevLoginConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// BootstrapConfig describes the super-admin account created on first start.
type BootstrapConfig struct {
	AdminID  string `yaml:"admin_id"`
	Name     string `yaml:"name"`
	Rank     string `yaml:"rank"`
	Area     string `yaml:"area"`
	Password string `yaml:"password"`
}

// ImportConfig controls bulk admin import.
type ImportConfig struct {
	DefaultPassword string `yaml:"default_password"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadYAMLConfig reads and parses a YAML configuration file. Environment
// variables referenced as ${VAR_NAME} in the file are expanded before parsing.
func LoadYAMLConfig(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables: ${VAR_NAME}
	content := os.ExpandEnv(string(data))

	cfg := DefaultYAMLConfig()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// DefaultYAMLConfig returns a YAMLConfig pre-filled with sensible defaults.
func DefaultYAMLConfig() *YAMLConfig {
	return &YAMLConfig{
		Server: ServerConfig{
			Host:                "0.0.0.0",
			Port:                8081,
			CORSOrigins:         []string{"http://localhost:5173"},
			LoginRatePerMinute:  30,
			UploadRatePerMinute: 10,
			MaxUploadSize:       "10MB",
			ShutdownTimeout:     "30s",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
		},
		Auth: AuthConfig{
			JWTExpiry: "12h",
		},
		Bootstrap: BootstrapConfig{
			AdminID: "superadmin",
			Name:    "Super Admin",
			Rank:    "Super Admin",
			Area:    "Admin Panel",
		},
		Import: ImportConfig{
			DefaultPassword: "Admin@123456",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// WriteDefaultConfig writes the default configuration to a YAML file.
func WriteDefaultConfig(path string) error {
	cfg := DefaultYAMLConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
