package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Database drivers supported by the store.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// DatabaseConfig selects and addresses the relational store.
type DatabaseConfig struct {
	Driver   string `json:"driver" yaml:"driver" toml:"driver"`
	Host     string `json:"host" yaml:"host" toml:"host"`
	Port     int    `json:"port" yaml:"port" toml:"port"`
	User     string `json:"user" yaml:"user" toml:"user"`
	Password string `json:"password" yaml:"password" toml:"password"`
	DBName   string `json:"dbname" yaml:"dbname" toml:"dbname"`
	// Path is the SQLite file, ":memory:" for a throwaway database.
	Path string `json:"path" yaml:"path" toml:"path"`
}

type ServerConfig struct {
	Port                   int    `json:"port" yaml:"port" toml:"port"`
	FrontendURL            string `json:"frontend_url" yaml:"frontend_url" toml:"frontend_url"`
	PublicURL              string `json:"public_url" yaml:"public_url" toml:"public_url"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds" toml:"shutdown_timeout_seconds"`
	HeartbeatSeconds       int    `json:"heartbeat_seconds" yaml:"heartbeat_seconds" toml:"heartbeat_seconds"`
	ShowQR                 bool   `json:"show_qr" yaml:"show_qr" toml:"show_qr"`
}

type AuthConfig struct {
	SecretKey        string `json:"secret_key" yaml:"secret_key" toml:"secret_key"`
	TokenTTLMinutes  int    `json:"token_ttl_minutes" yaml:"token_ttl_minutes" toml:"token_ttl_minutes"`
	SeedDefaultUsers bool   `json:"seed_default_users" yaml:"seed_default_users" toml:"seed_default_users"`
}

type OCRConfig struct {
	APIKey         string `json:"api_key" yaml:"api_key" toml:"api_key"`
	Endpoint       string `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	Language       string `json:"language" yaml:"language" toml:"language"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
}

type StorageConfig struct {
	ImagePath   string `json:"image_path" yaml:"image_path" toml:"image_path"`
	MaxUploadMB int    `json:"max_upload_mb" yaml:"max_upload_mb" toml:"max_upload_mb"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level"`
	Format string `json:"format" yaml:"format" toml:"format"`
}

// Config is the complete application configuration.
type Config struct {
	Database DatabaseConfig `json:"database" yaml:"database" toml:"database"`
	Server   ServerConfig   `json:"server" yaml:"server" toml:"server"`
	Auth     AuthConfig     `json:"auth" yaml:"auth" toml:"auth"`
	OCR      OCRConfig      `json:"ocr" yaml:"ocr" toml:"ocr"`
	Storage  StorageConfig  `json:"storage" yaml:"storage" toml:"storage"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging" toml:"logging"`
}

const devSecret = "dev-secret-key-change-in-production-min32!"

// DefaultConfig returns a configuration that runs locally on SQLite.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Host:   "localhost",
			Port:   3306,
			DBName: "venue",
			Path:   "venue.db",
		},
		Server: ServerConfig{
			Port:                   8000,
			FrontendURL:            "*",
			ShutdownTimeoutSeconds: 10,
			HeartbeatSeconds:       30,
		},
		Auth: AuthConfig{
			SecretKey:        devSecret,
			TokenTTLMinutes:  480,
			SeedDefaultUsers: true,
		},
		OCR: OCRConfig{
			Endpoint:       "https://api.ocr.space/parse/image",
			Language:       "pol",
			TimeoutSeconds: 30,
		},
		Storage: StorageConfig{
			ImagePath:   "receipts.bolt",
			MaxUploadMB: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig reads the configuration file at filePath on top of the
// defaults, then applies .env and environment overrides. The format is
// chosen by extension (.json, .yaml/.yml, .toml). A missing file is not an
// error.
func LoadConfig(filePath string) (*Config, error) {
	cfg := DefaultConfig()

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", filePath, err)
		default:
			if err := decodeConfig(filePath, data, cfg); err != nil {
				return nil, err
			}
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeConfig(filePath string, data []byte, cfg *Config) error {
	var err error
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".json":
		err = json.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("decode config %s: %w", filePath, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.DBName, "DB_NAME")
	setString(&c.Database.Path, "DB_PATH")
	setString(&c.Auth.SecretKey, "SECRET_KEY")
	setString(&c.Server.FrontendURL, "FRONTEND_URL")
	setString(&c.Server.PublicURL, "PUBLIC_URL")
	setString(&c.OCR.APIKey, "OCR_API_KEY")
	setString(&c.OCR.Endpoint, "OCR_ENDPOINT")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Storage.ImagePath, "IMAGE_STORE_PATH")

	if err := setInt(&c.Database.Port, "DB_PORT"); err != nil {
		return err
	}
	return setInt(&c.Server.Port, "PORT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

// Validate checks that the configuration can start the server.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMySQL:
		if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
			return fmt.Errorf("database.host, database.user and database.dbname are required for mysql")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite3")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.HeartbeatSeconds <= 0 {
		return fmt.Errorf("server.heartbeat_seconds must be positive")
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("server.shutdown_timeout_seconds must be positive")
	}
	if len(c.Auth.SecretKey) < 32 {
		return fmt.Errorf("auth.secret_key must be at least 32 characters")
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		return fmt.Errorf("auth.token_ttl_minutes must be positive")
	}
	if c.Storage.ImagePath == "" {
		return fmt.Errorf("storage.image_path is required")
	}
	return nil
}

// UsesDevSecret reports whether the built-in development secret is active.
func (c *Config) UsesDevSecret() bool {
	return c.Auth.SecretKey == devSecret
}

// GetDSN returns the connection string for the configured driver. MySQL
// reports matched rather than changed rows so no-op updates are not misread
// as missing rows.
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == DriverSQLite {
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", c.Path)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true&clientFoundRows=true&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}
