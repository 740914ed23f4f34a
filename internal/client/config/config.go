package config

import (
	"fmt"
	"time"
)

// Config holds runtime settings for the orgkeeper CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - DatabasePath: file of the local SQLite store.
//   - PageSize: resources requested per page during sync.
//   - AllowConcurrentPageFetch / MaxConcurrentPages: parallel page fetching.
//   - FoldersEnabled: sync the folder tree.
//   - MetadataEnabled: accept resources with encrypted metadata (v5 types).
//   - TokenRefreshSkew: refresh the access token this long before it expires.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ServerEndpointAddr       string        `validate:"required,hostname_port"`
	OnlineCheckInterval      time.Duration `validate:"gt=0"`
	DatabasePath             string        `validate:"required"`
	PageSize                 int           `validate:"min=1,max=1000"`
	AllowConcurrentPageFetch bool
	MaxConcurrentPages       int           `validate:"min=1,max=32"`
	FoldersEnabled           bool
	MetadataEnabled          bool
	TokenRefreshSkew         time.Duration `validate:"gte=0"`
	LogLevel                 string        `validate:"oneof=debug info warn error"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabasePath = "orgkeeper.db"
	c.PageSize = 100
	c.AllowConcurrentPageFetch = false
	c.MaxConcurrentPages = 4
	c.FoldersEnabled = true
	c.MetadataEnabled = false
	c.TokenRefreshSkew = 30 * time.Second
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones. The result is validated.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg, defaultEnvFile); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
