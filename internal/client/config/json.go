package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/orgkeeper/internal/flagx"
	"github.com/dmitrijs2005/orgkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Optional
// fields are pointers so an absent key leaves the current value alone.
type JsonConfig struct {
	ServerEndpointAddr       string          `json:"server_endpoint_addr"`
	OnlineCheckInterval      *timex.Duration `json:"online_check_interval"`
	DatabasePath             string          `json:"database_path"`
	PageSize                 int             `json:"page_size"`
	AllowConcurrentPageFetch *bool           `json:"allow_concurrent_page_fetch"`
	MaxConcurrentPages       int             `json:"max_concurrent_pages"`
	FoldersEnabled           *bool           `json:"folders_enabled"`
	MetadataEnabled          *bool           `json:"metadata_enabled"`
	TokenRefreshSkew         *timex.Duration `json:"token_refresh_skew"`
	LogLevel                 string          `json:"log_level"`
}

// parseJson overlays cfg with values from the JSON file named by -c or
// -config. Without either flag it does nothing.
func parseJson(cfg *Config) error {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])
	if jsonConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return err
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.PageSize != 0 {
		cfg.PageSize = jc.PageSize
	}
	if jc.AllowConcurrentPageFetch != nil {
		cfg.AllowConcurrentPageFetch = *jc.AllowConcurrentPageFetch
	}
	if jc.MaxConcurrentPages != 0 {
		cfg.MaxConcurrentPages = jc.MaxConcurrentPages
	}
	if jc.FoldersEnabled != nil {
		cfg.FoldersEnabled = *jc.FoldersEnabled
	}
	if jc.MetadataEnabled != nil {
		cfg.MetadataEnabled = *jc.MetadataEnabled
	}
	if jc.TokenRefreshSkew != nil {
		cfg.TokenRefreshSkew = jc.TokenRefreshSkew.Duration
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	return nil
}
