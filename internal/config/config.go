package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultAPIURL is the hosted CyberGuard API.
const DefaultAPIURL = "https://cybergaurdapi.onrender.com/api"

// Token store backends.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds application level configuration. Values come from an optional
// YAML file and are overridden by environment variables.
type Config struct {
	APIBaseURL     string        `yaml:"api_url"`
	TokenStore     string        `yaml:"token_store"`
	TokenFile      string        `yaml:"token_file"`
	RedisAddr      string        `yaml:"redis_addr"`
	RedisPass      string        `yaml:"redis_password"`
	RedisDB        int           `yaml:"redis_db"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	SyncInterval   time.Duration `yaml:"sync_interval"`
	Debug          bool          `yaml:"debug"`

	// Stub API settings.
	ServerPort   string `yaml:"server_port"`
	JWTSecret    string `yaml:"jwt_secret"`
	RefreshStore string `yaml:"refresh_store"`
}

// Load builds Config from the YAML file named by CYBERGUARD_CONFIG (or
// ~/.cyberguard/config.yaml when present) and the environment.
func Load() (*Config, error) {
	cfg := defaults()

	path, explicit := configPath()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	cfg.APIBaseURL = getEnv("CYBERGUARD_API_URL", cfg.APIBaseURL)
	cfg.TokenStore = getEnv("CYBERGUARD_TOKEN_STORE", cfg.TokenStore)
	cfg.TokenFile = getEnv("CYBERGUARD_TOKEN_FILE", cfg.TokenFile)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPass = getEnv("REDIS_PASSWORD", cfg.RedisPass)
	cfg.RedisDB = getEnvInt("REDIS_DB", cfg.RedisDB)
	cfg.RequestTimeout = getEnvSeconds("CYBERGUARD_TIMEOUT_SECONDS", cfg.RequestTimeout)
	cfg.SyncInterval = getEnvSeconds("CYBERGUARD_SYNC_SECONDS", cfg.SyncInterval)
	cfg.Debug = getEnv("CYBERGUARD_DEBUG", strconv.FormatBool(cfg.Debug)) == "true"
	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.RefreshStore = getEnv("STUBAPI_REFRESH_STORE", cfg.RefreshStore)

	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		APIBaseURL:     DefaultAPIURL,
		TokenStore:     StoreFile,
		TokenFile:      defaultTokenFile(),
		RedisAddr:      "localhost:6379",
		RequestTimeout: 30 * time.Second,
		SyncInterval:   10 * time.Second,
		ServerPort:     "8080",
		JWTSecret:      "change-me",
		RefreshStore:   StoreMemory,
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return errors.New("api url is required")
	}
	switch c.TokenStore {
	case StoreFile, StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("unknown token store %q", c.TokenStore)
	}
	if c.TokenStore == StoreFile && c.TokenFile == "" {
		return errors.New("token file path is required for the file token store")
	}
	switch c.RefreshStore {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("unknown refresh store %q", c.RefreshStore)
	}
	if c.RequestTimeout < 0 || c.SyncInterval < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}

func configPath() (string, bool) {
	if p := os.Getenv("CYBERGUARD_CONFIG"); p != "" {
		return p, true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(home, ".cyberguard", "config.yaml"), false
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cyberguard", "session.json")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvSeconds(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			return time.Duration(parsed) * time.Second
		}
	}
	return def
}
