package config

import (
	"fmt"
	"net/url"
	"time"
)

const (
	BackendGateway   = "gateway"
	BackendS3        = "s3"
	BackendPresigned = "presigned"
)

// Config holds runtime settings for the fieldsync client.
//
// Durations accept Go duration strings ("10s", "2m") in both the YAML file
// and the environment.
type Config struct {
	ServerBaseURL       string            `yaml:"server_base_url"       env:"FIELDSYNC_SERVER_URL"`
	DatabasePath        string            `yaml:"database_path"         env:"FIELDSYNC_DATABASE"`
	LogLevel            string            `yaml:"log_level"             env:"FIELDSYNC_LOG_LEVEL"`
	OnlineCheckInterval time.Duration     `yaml:"online_check_interval" env:"FIELDSYNC_ONLINE_CHECK_INTERVAL"`
	ProbeTargets        []string          `yaml:"probe_targets"         env:"FIELDSYNC_PROBE_TARGETS" env-separator:","`
	ProbeTimeout        time.Duration     `yaml:"probe_timeout"         env:"FIELDSYNC_PROBE_TIMEOUT"`
	DebounceInterval    time.Duration     `yaml:"debounce_interval"     env:"FIELDSYNC_DEBOUNCE_INTERVAL"`
	RequestTimeout      time.Duration     `yaml:"request_timeout"       env:"FIELDSYNC_REQUEST_TIMEOUT"`
	UploadTimeout       time.Duration     `yaml:"upload_timeout"        env:"FIELDSYNC_UPLOAD_TIMEOUT"`
	Attachments         AttachmentsConfig `yaml:"attachments"`
}

// AttachmentsConfig selects where attachment files are uploaded.
type AttachmentsConfig struct {
	Backend     string `yaml:"backend"       env:"FIELDSYNC_ATTACHMENTS_BACKEND"`
	S3Bucket    string `yaml:"s3_bucket"     env:"FIELDSYNC_S3_BUCKET"`
	S3Region    string `yaml:"s3_region"     env:"FIELDSYNC_S3_REGION"`
	S3Endpoint  string `yaml:"s3_endpoint"   env:"FIELDSYNC_S3_ENDPOINT"`
	S3Prefix    string `yaml:"s3_prefix"     env:"FIELDSYNC_S3_PREFIX"`
	S3AccessKey string `yaml:"s3_access_key" env:"FIELDSYNC_S3_ACCESS_KEY"`
	S3SecretKey string `yaml:"s3_secret_key" env:"FIELDSYNC_S3_SECRET_KEY"`
}

// LoadDefaults populates c with sensible defaults. An empty ProbeTargets
// means the built-in public hosts.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.DatabasePath = "fieldsync.db"
	c.LogLevel = "info"
	c.OnlineCheckInterval = 30 * time.Second
	c.ProbeTargets = nil
	c.ProbeTimeout = 5 * time.Second
	c.DebounceInterval = 10 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.UploadTimeout = 60 * time.Second
	c.Attachments = AttachmentsConfig{Backend: BackendGateway, S3Region: "us-east-1"}
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server_base_url %q must be an absolute http(s) URL", c.ServerBaseURL)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is empty")
	}
	for name, d := range map[string]time.Duration{
		"online_check_interval": c.OnlineCheckInterval,
		"probe_timeout":         c.ProbeTimeout,
		"request_timeout":       c.RequestTimeout,
		"upload_timeout":        c.UploadTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.DebounceInterval < 0 {
		return fmt.Errorf("debounce_interval must not be negative")
	}
	switch c.Attachments.Backend {
	case BackendGateway, BackendPresigned:
	case BackendS3:
		if c.Attachments.S3Bucket == "" {
			return fmt.Errorf("attachments.s3_bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown attachments backend %q", c.Attachments.Backend)
	}
	return nil
}
