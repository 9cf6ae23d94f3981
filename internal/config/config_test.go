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

// allConfigKeys lists every GATEKEEP_ env var that Load() reads.
var allConfigKeys = []string{
	envConfigFile,
	envListenAddr,
	envDBPath,
	envSecretKey,
	envJWTKey,
	envJWTIssuer,
	envJWTAudience,
	envTokenTTL,
	envHasher,
	envCORSOrigins,
	envTrustProxy,
	envLogLevel,
	envLogFormat,
}

const (
	testSecretHex = "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"
	testJWTKey    = "0123456789abcdef0123456789abcdef"
)

// isolateConfigEnv saves and unsets all GATEKEEP_ env vars so tests don't
// inherit values from the host environment (e.g. a running dev server).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

// setRequired sets the two mandatory keys.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv(envSecretKey, testSecretHex)
	t.Setenv(envJWTKey, testJWTKey)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "gatekeep.db", cfg.DBPath)
	assert.Len(t, cfg.SecretKey, 32)
	assert.Equal(t, []byte(testJWTKey), cfg.JWTKey)
	assert.Equal(t, "gatekeep", cfg.JWTIssuer)
	assert.Equal(t, "gatekeep", cfg.JWTAudience)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "sha256", cfg.Hasher)
	assert.Equal(t, []string{"http://localhost:4200"}, cfg.CORSOrigins)
	assert.False(t, cfg.TrustProxy)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	t.Setenv(envListenAddr, "0.0.0.0:9090")
	t.Setenv(envDBPath, "/tmp/test.db")
	t.Setenv(envJWTIssuer, "issuer-x")
	t.Setenv(envJWTAudience, "aud-x")
	t.Setenv(envTokenTTL, "15m")
	t.Setenv(envHasher, "Argon2id")
	t.Setenv(envCORSOrigins, " https://a.example , ,https://b.example")
	t.Setenv(envTrustProxy, "true")
	t.Setenv(envLogLevel, "debug")
	t.Setenv(envLogFormat, "JSON")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "issuer-x", cfg.JWTIssuer)
	assert.Equal(t, "aud-x", cfg.JWTAudience)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "argon2id", cfg.Hasher)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.TrustProxy)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_FileThenEnv(t *testing.T) {
	isolateConfigEnv(t)

	path := filepath.Join(t.TempDir(), "gatekeep.yaml")
	yaml := `
listen_addr: "0.0.0.0:7000"
db_path: /var/lib/gatekeep.db
secret_key: ` + testSecretHex + `
jwt:
  key: ` + testJWTKey + `
  issuer: file-issuer
  token_ttl: 1h
hasher: bcrypt
cors_origins:
  - https://app.example
trust_proxy: true
log:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv(envConfigFile, path)
	t.Setenv(envListenAddr, "127.0.0.1:7001")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7001", cfg.ListenAddr, "env wins over file")
	assert.Equal(t, "/var/lib/gatekeep.db", cfg.DBPath)
	assert.Equal(t, "file-issuer", cfg.JWTIssuer)
	assert.Equal(t, "gatekeep", cfg.JWTAudience, "unset file values keep defaults")
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, "bcrypt", cfg.Hasher)
	assert.Equal(t, []string{"https://app.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.TrustProxy)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestLoad_FileErrors(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)

	t.Run("missing file", func(t *testing.T) {
		t.Setenv(envConfigFile, filepath.Join(t.TempDir(), "absent.yaml"))
		cfg, err := Load()
		assert.Nil(t, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading config file")
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("jwt: [unclosed"), 0o600))
		t.Setenv(envConfigFile, path)
		cfg, err := Load()
		assert.Nil(t, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing config file")
	})
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantKey string
	}{
		{name: "secret key absent", key: envSecretKey, value: "", wantKey: envSecretKey},
		{name: "secret key too short", key: envSecretKey, value: "deadbeef", wantKey: envSecretKey},
		{name: "secret key not hex", key: envSecretKey, value: "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz", wantKey: envSecretKey},
		{name: "jwt key absent", key: envJWTKey, value: "", wantKey: envJWTKey},
		{name: "jwt key too short", key: envJWTKey, value: "short", wantKey: envJWTKey},
		{name: "ttl not a duration", key: envTokenTTL, value: "soon", wantKey: envTokenTTL},
		{name: "ttl negative", key: envTokenTTL, value: "-5m", wantKey: envTokenTTL},
		{name: "unknown hasher", key: envHasher, value: "md5", wantKey: envHasher},
		{name: "bad trust proxy", key: envTrustProxy, value: "maybe", wantKey: envTrustProxy},
		{name: "bad log level", key: envLogLevel, value: "loud", wantKey: envLogLevel},
		{name: "bad log format", key: envLogFormat, value: "xml", wantKey: envLogFormat},
		{name: "empty issuer", key: envJWTIssuer, value: "", wantKey: envJWTIssuer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfigEnv(t)
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantKey)
		})
	}
}
