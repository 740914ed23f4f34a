// Package config loads runtime configuration for the orgkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. ORGKEEPER_* environment variables, optionally read from a .env file
//     in the working directory. Variables already set in the process win
//     over the file.
//  4. Command-line flags, which override everything else.
//
// The merged result is checked with Validate before LoadConfig returns it.
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "3s"
// or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "database_path": "orgkeeper.db",
//	  "page_size": 100,
//	  "allow_concurrent_page_fetch": true,
//	  "max_concurrent_pages": 4,
//	  "folders_enabled": true,
//	  "metadata_enabled": false,
//	  "token_refresh_skew": "30s",
//	  "log_level": "info"
//	}
package config
