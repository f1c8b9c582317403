package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef-test"

// envMap turns a map into a getenv function.
func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, EnvDevelopment, cfg.Server.Environment)
	assert.Equal(t, int64(10<<20), cfg.Storage.MaxUploadBytes)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.False(t, cfg.Auth.GitHub.Enabled())

	err := cfg.Validate()
	require.Error(t, err, "defaults carry no JWT secret")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid", modify: func(c *Config) {}},
		{name: "short secret", modify: func(c *Config) { c.Auth.JWTSecret = "short" }, wantErr: "jwt_secret"},
		{name: "port zero", modify: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{name: "port too high", modify: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server.port"},
		{name: "unknown environment", modify: func(c *Config) { c.Server.Environment = "staging" }, wantErr: "server.environment"},
		{name: "missing db path", modify: func(c *Config) { c.Database.Path = "" }, wantErr: "DB_PATH"},
		{name: "bad log level", modify: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log.level"},
		{name: "bad log format", modify: func(c *Config) { c.Log.Format = "xml" }, wantErr: "log.format"},
		{name: "zero upload limit", modify: func(c *Config) { c.Storage.MaxUploadBytes = 0 }, wantErr: "MAX_UPLOAD_BYTES"},
		{name: "github without secret", modify: func(c *Config) {
			c.Auth.GitHub.ClientID = "id"
			c.Auth.GitHub.CallbackURL = "http://localhost/cb"
		}, wantErr: "GITHUB_CLIENT_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Auth.JWTSecret = testSecret
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = -1
	cfg.Database.Path = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "DB_PATH")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"PORT":             "9090",
		"APP_ENV":          "production",
		"DB_PATH":          "/var/lib/tj.db",
		"JWT_SECRET":       testSecret,
		"CORS_ORIGINS":     "https://a.example, https://b.example,",
		"UPLOAD_DIR":       "/srv/uploads",
		"MAX_UPLOAD_BYTES": "2048",
		"LOG_LEVEL":        "debug",
		"GITHUB_CLIENT_ID": "gh-id",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "/var/lib/tj.db", cfg.Database.Path)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "/srv/uploads", cfg.Storage.UploadDir)
	assert.Equal(t, int64(2048), cfg.Storage.MaxUploadBytes)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Auth.GitHub.Enabled())
}

func TestApplyEnv_BadNumbers(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"PORT":             "eighty",
		"MAX_UPLOAD_BYTES": "lots",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "MAX_UPLOAD_BYTES")
	assert.Equal(t, 8080, cfg.Server.Port, "bad values leave the field alone")
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7000
  shutdown_timeout: 5s
database:
  path: from-file.db
auth:
  jwt_secret: file-secret-long-enough
log:
  format: json
`), 0o600))

	cfg, err := Load(path, envMap(map[string]string{"DB_PATH": "from-env.db"}))
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "from-env.db", cfg.Database.Path, "env wins over the file")
	assert.Equal(t, "file-secret-long-enough", cfg.Auth.JWTSecret)
	assert.Equal(t, "uploads", cfg.Storage.UploadDir, "unset keys keep their default")
	assert.True(t, cfg.JSONLogs())
}

func TestLoadFromFile_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  prot: 7000\n"), 0o600))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSlogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := LogConfig{Level: in}.SlogLevel()
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestJSONLogs(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.JSONLogs())

	cfg.Server.Environment = EnvProduction
	assert.True(t, cfg.JSONLogs())

	cfg.Log.Format = "text"
	assert.False(t, cfg.JSONLogs())
}
