package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.Auth.TokenTTLMinutes, cfg.Auth.TokenTTLMinutes)
	assert.Equal(t, "pol", cfg.OCR.Language)
	assert.Equal(t, 30, cfg.Server.HeartbeatSeconds)
}

func TestLoadConfigFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json", "config.json", `{"database":{"driver":"mysql","host":"db","port":3307,"user":"venue","password":"x","dbname":"club"},"server":{"port":9000}}`},
		{"yaml", "config.yaml", "database:\n  driver: mysql\n  host: db\n  port: 3307\n  user: venue\n  password: x\n  dbname: club\nserver:\n  port: 9000\n"},
		{"toml", "config.toml", "[database]\ndriver = \"mysql\"\nhost = \"db\"\nport = 3307\nuser = \"venue\"\npassword = \"x\"\ndbname = \"club\"\n\n[server]\nport = 9000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)

			assert.Equal(t, DriverMySQL, cfg.Database.Driver)
			assert.Equal(t, "db", cfg.Database.Host)
			assert.Equal(t, 3307, cfg.Database.Port)
			assert.Equal(t, 9000, cfg.Server.Port)
			// untouched sections keep their defaults
			assert.Equal(t, 480, cfg.Auth.TokenTTLMinutes)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestLoadConfigRejectsUnknownExtension(t *testing.T) {
	_, err := LoadConfig(writeFile(t, "config.ini", "port=1"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8123")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("SECRET_KEY", "0123456789abcdef0123456789abcdef-test")
	t.Setenv("OCR_API_KEY", "k123")
	t.Setenv("FRONTEND_URL", "https://club.example")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8123, cfg.Server.Port)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, "k123", cfg.OCR.APIKey)
	assert.Equal(t, "https://club.example", cfg.Server.FrontendURL)
	assert.False(t, cfg.UsesDevSecret())
}

func TestEnvOverrideBadPort(t *testing.T) {
	t.Setenv("PORT", "eighty")
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Auth.SecretKey = "short"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Database.Driver = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Database.Driver = DriverMySQL
	cfg.Database.User = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.HeartbeatSeconds = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.ShutdownTimeoutSeconds = 0
	assert.ErrorContains(t, cfg.Validate(), "shutdown_timeout_seconds")
}

func TestGetDSN(t *testing.T) {
	mysql := DatabaseConfig{Driver: DriverMySQL, User: "u", Password: "p", Host: "h", Port: 3306, DBName: "d"}
	assert.Equal(t, "u:p@tcp(h:3306)/d?parseTime=true&multiStatements=true&clientFoundRows=true&loc=UTC", mysql.GetDSN())

	sqlite := DatabaseConfig{Driver: DriverSQLite, Path: ":memory:"}
	assert.Equal(t, "file::memory:?_foreign_keys=on&_busy_timeout=5000", sqlite.GetDSN())
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("debug", "json")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = NewLogger("loud", "json")
	assert.Error(t, err)
	_, err = NewLogger("info", "xml")
	assert.Error(t, err)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "a_b_c_.jpg", SanitizePathComponent("a/b\\c:.jpg"))
	assert.Equal(t, "jpg", GetImageExtension("image/jpeg"))
	assert.Equal(t, "png", GetImageExtension("IMAGE/PNG"))
	assert.True(t, IsReceiptContentType("application/pdf"))
	assert.False(t, IsReceiptContentType("text/plain"))
}
