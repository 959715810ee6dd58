package config

import (
	"time"

	"github.com/spf13/cobra"
)

// Flags holds the command-line overrides. Only flags the user actually set
// replace file or environment values.
type Flags struct {
	ConfigPath          string
	ServerBaseURL       string
	DatabasePath        string
	LogLevel            string
	OnlineCheckInterval time.Duration
	ProbeTargets        []string
	AttachmentsBackend  string

	cmd *cobra.Command
}

// RegisterFlags adds the persistent flags to cmd.
//
//	-c, --config string            config file (YAML, JSON or TOML)
//	-s, --server string            server base URL
//	    --db string                local database file
//	    --log-level string         debug, info, warn or error
//	-i, --check-interval duration  online check interval for watch
//	    --probe strings            connectivity probe targets
//	    --attachments string       attachment backend: gateway, presigned or s3
func RegisterFlags(cmd *cobra.Command) *Flags {
	f := &Flags{cmd: cmd}
	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.ConfigPath, "config", "c", "", "config file (YAML, JSON or TOML)")
	pf.StringVarP(&f.ServerBaseURL, "server", "s", "", "server base URL")
	pf.StringVar(&f.DatabasePath, "db", "", "local database file")
	pf.StringVar(&f.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.DurationVarP(&f.OnlineCheckInterval, "check-interval", "i", 0, "online check interval")
	pf.StringSliceVar(&f.ProbeTargets, "probe", nil, "connectivity probe targets (http(s):// or grpc://)")
	pf.StringVar(&f.AttachmentsBackend, "attachments", "", "attachment backend: gateway, presigned or s3")
	return f
}

func (f *Flags) changed(name string) bool {
	return f.cmd != nil && f.cmd.PersistentFlags().Changed(name)
}

func (f *Flags) apply(cfg *Config) {
	if f.changed("server") {
		cfg.ServerBaseURL = f.ServerBaseURL
	}
	if f.changed("db") {
		cfg.DatabasePath = f.DatabasePath
	}
	if f.changed("log-level") {
		cfg.LogLevel = f.LogLevel
	}
	if f.changed("check-interval") {
		cfg.OnlineCheckInterval = f.OnlineCheckInterval
	}
	if f.changed("probe") {
		cfg.ProbeTargets = f.ProbeTargets
	}
	if f.changed("attachments") {
		cfg.Attachments.Backend = f.AttachmentsBackend
	}
}
