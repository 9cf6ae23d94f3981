// Package config loads application configuration from an optional YAML file
// overlaid by environment variables.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// minJWTKeyLen is the shortest HMAC signing key accepted for HS256.
const minJWTKeyLen = 32

// Hashers lists the supported credential hashing schemes.
var Hashers = []string{"sha256", "argon2id", "bcrypt"}

// Config holds the validated application configuration. It is built once at
// startup and passed by value or pointer to the components that need it;
// nothing mutates it afterwards.
type Config struct {
	ListenAddr string
	DBPath     string

	// SecretKey is the AES-256 key protecting site secrets at rest.
	SecretKey []byte

	JWTKey      []byte
	JWTIssuer   string
	JWTAudience string
	TokenTTL    time.Duration

	Hasher      string
	CORSOrigins []string
	TrustProxy  bool

	LogLevel  slog.Level
	LogFormat string
}

// fileConfig mirrors the YAML layout of the optional config file.
type fileConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	DBPath     string `yaml:"db_path"`
	SecretKey  string `yaml:"secret_key"`
	JWT        struct {
		Key      string `yaml:"key"`
		Issuer   string `yaml:"issuer"`
		Audience string `yaml:"audience"`
		TokenTTL string `yaml:"token_ttl"`
	} `yaml:"jwt"`
	Hasher      string   `yaml:"hasher"`
	CORSOrigins []string `yaml:"cors_origins"`
	TrustProxy  *bool    `yaml:"trust_proxy"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Environment variable names, each overriding the matching file setting.
const (
	envConfigFile  = "GATEKEEP_CONFIG_FILE"
	envListenAddr  = "GATEKEEP_LISTEN_ADDR"
	envDBPath      = "GATEKEEP_DB_PATH"
	envSecretKey   = "GATEKEEP_SECRET_KEY"
	envJWTKey      = "GATEKEEP_JWT_KEY"
	envJWTIssuer   = "GATEKEEP_JWT_ISSUER"
	envJWTAudience = "GATEKEEP_JWT_AUDIENCE"
	envTokenTTL    = "GATEKEEP_TOKEN_TTL"
	envHasher      = "GATEKEEP_HASHER"
	envCORSOrigins = "GATEKEEP_CORS_ORIGINS"
	envTrustProxy  = "GATEKEEP_TRUST_PROXY"
	envLogLevel    = "GATEKEEP_LOG_LEVEL"
	envLogFormat   = "GATEKEEP_LOG_FORMAT"
)

// settings holds raw values keyed by environment variable name while the
// defaults, file and environment layers are merged.
type settings map[string]string

func defaults() settings {
	return settings{
		envListenAddr:  "127.0.0.1:8080",
		envDBPath:      "gatekeep.db",
		envJWTIssuer:   "gatekeep",
		envJWTAudience: "gatekeep",
		envTokenTTL:    "30m",
		envHasher:      "sha256",
		envCORSOrigins: "http://localhost:4200",
		envTrustProxy:  "false",
		envLogLevel:    "info",
		envLogFormat:   "text",
	}
}

// Load builds the Config. If GATEKEEP_CONFIG_FILE names a YAML file it is
// read first; GATEKEEP_* environment variables then override individual
// settings. GATEKEEP_SECRET_KEY (64 hex chars) and GATEKEEP_JWT_KEY (at
// least 32 bytes) are required; everything else has a default.
func Load() (*Config, error) {
	s := defaults()

	if path, ok := os.LookupEnv(envConfigFile); ok && path != "" {
		if err := s.overlayFile(path); err != nil {
			return nil, err
		}
	}

	for _, key := range []string{
		envListenAddr, envDBPath, envSecretKey, envJWTKey, envJWTIssuer, envJWTAudience,
		envTokenTTL, envHasher, envCORSOrigins, envTrustProxy, envLogLevel, envLogFormat,
	} {
		if v, ok := os.LookupEnv(key); ok {
			s[key] = v
		}
	}

	return s.parse()
}

func (s settings) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	set := func(key, v string) {
		if v != "" {
			s[key] = v
		}
	}
	set(envListenAddr, fc.ListenAddr)
	set(envDBPath, fc.DBPath)
	set(envSecretKey, fc.SecretKey)
	set(envJWTKey, fc.JWT.Key)
	set(envJWTIssuer, fc.JWT.Issuer)
	set(envJWTAudience, fc.JWT.Audience)
	set(envTokenTTL, fc.JWT.TokenTTL)
	set(envHasher, fc.Hasher)
	set(envCORSOrigins, strings.Join(fc.CORSOrigins, ","))
	set(envLogLevel, fc.Log.Level)
	set(envLogFormat, fc.Log.Format)
	if fc.TrustProxy != nil {
		s[envTrustProxy] = strconv.FormatBool(*fc.TrustProxy)
	}

	return nil
}

func (s settings) parse() (*Config, error) {
	cfg := &Config{
		ListenAddr:  s[envListenAddr],
		DBPath:      s[envDBPath],
		JWTIssuer:   s[envJWTIssuer],
		JWTAudience: s[envJWTAudience],
		Hasher:      strings.ToLower(strings.TrimSpace(s[envHasher])),
		LogFormat:   strings.ToLower(strings.TrimSpace(s[envLogFormat])),
	}

	secretHex := s[envSecretKey]
	if secretHex == "" {
		return nil, fmt.Errorf("%s is required (64 hex characters)", envSecretKey)
	}
	key, err := hex.DecodeString(secretHex)
	if err != nil {
		return nil, fmt.Errorf("%s must be hex-encoded: %w", envSecretKey, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%s must be 64 hex characters (32 bytes), got %d bytes", envSecretKey, len(key))
	}
	cfg.SecretKey = key

	jwtKey := s[envJWTKey]
	if jwtKey == "" {
		return nil, fmt.Errorf("%s is required", envJWTKey)
	}
	if len(jwtKey) < minJWTKeyLen {
		return nil, fmt.Errorf("%s must be at least %d bytes, got %d", envJWTKey, minJWTKeyLen, len(jwtKey))
	}
	cfg.JWTKey = []byte(jwtKey)

	if cfg.JWTIssuer == "" || cfg.JWTAudience == "" {
		return nil, fmt.Errorf("%s and %s must not be empty", envJWTIssuer, envJWTAudience)
	}

	ttl, err := time.ParseDuration(s[envTokenTTL])
	if err != nil {
		return nil, fmt.Errorf("%s has invalid duration %q: %w", envTokenTTL, s[envTokenTTL], err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %s", envTokenTTL, ttl)
	}
	cfg.TokenTTL = ttl

	if !slices.Contains(Hashers, cfg.Hasher) {
		return nil, fmt.Errorf("%s must be one of %s, got %q", envHasher, strings.Join(Hashers, ", "), cfg.Hasher)
	}

	cfg.CORSOrigins = []string{}
	for _, origin := range strings.Split(s[envCORSOrigins], ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	trust, err := strconv.ParseBool(s[envTrustProxy])
	if err != nil {
		return nil, fmt.Errorf("%s has invalid boolean %q: %w", envTrustProxy, s[envTrustProxy], err)
	}
	cfg.TrustProxy = trust

	if err := cfg.LogLevel.UnmarshalText([]byte(s[envLogLevel])); err != nil {
		return nil, fmt.Errorf("%s: %w", envLogLevel, err)
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, errors.New(envLogFormat + " must be text or json")
	}

	return cfg, nil
}
