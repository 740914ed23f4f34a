package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// Environment variables read by parseEnv.
const (
	EnvServerAddr          = "ORGKEEPER_SERVER_ADDR"
	EnvOnlineCheckInterval = "ORGKEEPER_ONLINE_CHECK_INTERVAL"
	EnvDatabasePath        = "ORGKEEPER_DB_PATH"
	EnvPageSize            = "ORGKEEPER_PAGE_SIZE"
	EnvConcurrentPages     = "ORGKEEPER_CONCURRENT_PAGES"
	EnvMaxConcurrentPages  = "ORGKEEPER_MAX_CONCURRENT_PAGES"
	EnvFolders             = "ORGKEEPER_FOLDERS"
	EnvMetadata            = "ORGKEEPER_METADATA"
	EnvTokenRefreshSkew    = "ORGKEEPER_TOKEN_REFRESH_SKEW"
	EnvLogLevel            = "ORGKEEPER_LOG_LEVEL"
)

// parseEnv loads envFile into the process environment if it exists, without
// overriding variables that are already set, then overlays cfg with every
// ORGKEEPER_* variable present.
func parseEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	boolean := func(key string, dst *bool) error {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}
	duration := func(key string, dst *time.Duration) error {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str(EnvServerAddr, &cfg.ServerEndpointAddr)
	str(EnvDatabasePath, &cfg.DatabasePath)
	str(EnvLogLevel, &cfg.LogLevel)

	return errors.Join(
		duration(EnvOnlineCheckInterval, &cfg.OnlineCheckInterval),
		integer(EnvPageSize, &cfg.PageSize),
		boolean(EnvConcurrentPages, &cfg.AllowConcurrentPageFetch),
		integer(EnvMaxConcurrentPages, &cfg.MaxConcurrentPages),
		boolean(EnvFolders, &cfg.FoldersEnabled),
		boolean(EnvMetadata, &cfg.MetadataEnabled),
		duration(EnvTokenRefreshSkew, &cfg.TokenRefreshSkew),
	)
}
