package config

import (
	"context"
	"fmt"
	"os"
)

// LoadProfile returns a baseline configuration for a named deployment profile.
// Environment variables still override the profile values.
func LoadProfile(name string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Profile = name

	switch name {
	case "development":
		cfg.Environment = EnvDevelopment
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "text"
	case "testing":
		cfg.Environment = EnvTesting
		cfg.Storage.Adapter = "memory"
		cfg.Logging.Level = "warn"
	case "staging":
		cfg.Environment = EnvStaging
		cfg.Storage.Adapter = "file"
		cfg.Sync.Enabled = true
	case "production":
		cfg.Environment = EnvProduction
		cfg.Storage.Adapter = "file"
		cfg.Sync.Enabled = true
		cfg.Security.EnableRateLimit = true
	default:
		return nil, fmt.Errorf("unknown profile: %s", name)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for profile %s: %w", name, err)
	}

	return cfg, nil
}

// SecretStore abstracts where secrets (DSNs, passwords) come from.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	GetWithDefault(ctx context.Context, key, def string) string
}

// EnvironmentSecretStore reads secrets from process environment variables.
type EnvironmentSecretStore struct{}

func NewEnvironmentSecretStore() *EnvironmentSecretStore {
	return &EnvironmentSecretStore{}
}

func (s *EnvironmentSecretStore) Get(_ context.Context, key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("secret %s not found in environment", key)
	}
	return value, nil
}

func (s *EnvironmentSecretStore) GetWithDefault(ctx context.Context, key, def string) string {
	value, err := s.Get(ctx, key)
	if err != nil {
		return def
	}
	return value
}

var _ SecretStore = (*EnvironmentSecretStore)(nil)

// LoadSecretsFromEnv fills secret-bearing fields from the environment so they
// never have to live in config files.
func (c *Config) LoadSecretsFromEnv(ctx context.Context) error {
	store := NewEnvironmentSecretStore()
	c.Storage.SQL.DSN = store.GetWithDefault(ctx, "GESUSHELL_SQL_DSN", c.Storage.SQL.DSN)
	c.Sync.Redis.Password = store.GetWithDefault(ctx, "GESUSHELL_REDIS_PASSWORD", c.Sync.Redis.Password)
	return nil
}
