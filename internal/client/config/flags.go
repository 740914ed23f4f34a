package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/orgkeeper/internal/flagx"
)

var knownFlags = flagx.Set{
	Names: []string{"a", "i", "d", "p", "max-pages", "l"},
	Bools: []string{"concurrent", "folders", "metadata"},
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string      address and port of the backend server
//	-i int         online check interval in seconds
//	-d string      path of the local database
//	-p int         resources per page
//	-concurrent    fetch resource pages concurrently
//	-max-pages int maximum pages in flight
//	-folders       sync folders
//	-metadata      accept encrypted metadata
//	-l string      log level
//
// Boolean flags take their value after '=' (-folders=false). The function
// filters os.Args to only include the flags it knows about, using
// knownFlags, to avoid interference with other components.
func parseFlags(cfg *Config) error {
	args := knownFlags.Filter(os.Args[1:])

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database file")
	fs.IntVar(&cfg.PageSize, "p", cfg.PageSize, "resources per page")
	fs.BoolVar(&cfg.AllowConcurrentPageFetch, "concurrent", cfg.AllowConcurrentPageFetch, "fetch pages concurrently")
	fs.IntVar(&cfg.MaxConcurrentPages, "max-pages", cfg.MaxConcurrentPages, "maximum pages in flight")
	fs.BoolVar(&cfg.FoldersEnabled, "folders", cfg.FoldersEnabled, "sync folders")
	fs.BoolVar(&cfg.MetadataEnabled, "metadata", cfg.MetadataEnabled, "accept encrypted metadata")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
		}
	})
	return nil
}
