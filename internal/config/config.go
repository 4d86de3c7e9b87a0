// Package config holds CLI and service settings. Values are layered:
// defaults, then a config file, then REMYXAI_* environment variables, then
// command-line flags (applied by the caller).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/remyxai/remyxai-cli/internal/common/fsutil"
)

// Config holds runtime parameters for the CLI and the local control API.
type Config struct {
	// Inference defaults. An empty ServerURL resolves to the model's Ready deployment.
	ServerURL    string   `json:"server_url" yaml:"server_url" toml:"server_url" env:"SERVER_URL"`
	ModelVersion string   `json:"model_version" yaml:"model_version" toml:"model_version" env:"MODEL_VERSION"`
	InferTimeout Duration `json:"infer_timeout" yaml:"infer_timeout" toml:"infer_timeout" env:"INFER_TIMEOUT"`

	// Deployment controller.
	ReadyTimeout     Duration `json:"ready_timeout" yaml:"ready_timeout" toml:"ready_timeout" env:"READY_TIMEOUT"`
	ProbeInterval    Duration `json:"probe_interval" yaml:"probe_interval" toml:"probe_interval" env:"PROBE_INTERVAL"`
	ProbeMaxInterval Duration `json:"probe_max_interval" yaml:"probe_max_interval" toml:"probe_max_interval" env:"PROBE_MAX_INTERVAL"`
	ProbeTimeout     Duration `json:"probe_timeout" yaml:"probe_timeout" toml:"probe_timeout" env:"PROBE_TIMEOUT"`

	// Compose backend.
	DeployDir   string   `json:"deploy_dir" yaml:"deploy_dir" toml:"deploy_dir" env:"DEPLOY_DIR"`
	ComposeBin  string   `json:"compose_bin" yaml:"compose_bin" toml:"compose_bin" env:"COMPOSE_BIN"`
	StopTimeout Duration `json:"stop_timeout" yaml:"stop_timeout" toml:"stop_timeout" env:"STOP_TIMEOUT"`
	GPU         bool     `json:"gpu" yaml:"gpu" toml:"gpu" env:"GPU"`

	// Remote API. The key is never read from files.
	APIBaseURL string `json:"api_base_url" yaml:"api_base_url" toml:"api_base_url" env:"API_BASE_URL"`
	APIKey     string `json:"-" yaml:"-" toml:"-" env:"API_KEY"`

	// PackageSource is "remyx" or an s3://bucket/prefix URL.
	PackageSource string   `json:"package_source" yaml:"package_source" toml:"package_source" env:"PACKAGE_SOURCE"`
	S3            S3Config `json:"s3" yaml:"s3" toml:"s3" envPrefix:"S3_"`

	// ModelKinds pins model kinds locally, e.g. {"my-llm": "generate"}.
	ModelKinds map[string]string `json:"model_kinds" yaml:"model_kinds" toml:"model_kinds" env:"MODEL_KINDS"`

	// Local control API.
	Addr        string   `json:"addr" yaml:"addr" toml:"addr" env:"ADDR"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins" env:"CORS_ORIGINS"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format" env:"LOG_FORMAT"`
}

// S3Config locates an S3-compatible endpoint for package downloads.
type S3Config struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint" toml:"endpoint" env:"ENDPOINT"`
	AccessKey string `json:"access_key" yaml:"access_key" toml:"access_key" env:"ACCESS_KEY"`
	SecretKey string `json:"-" yaml:"-" toml:"-" env:"SECRET_KEY"`
	UseSSL    bool   `json:"use_ssl" yaml:"use_ssl" toml:"use_ssl" env:"USE_SSL"`
	Region    string `json:"region" yaml:"region" toml:"region" env:"REGION"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ModelVersion:     "1",
		InferTimeout:     Duration(60 * time.Second),
		ReadyTimeout:     Duration(2 * time.Minute),
		ProbeInterval:    Duration(500 * time.Millisecond),
		ProbeMaxInterval: Duration(10 * time.Second),
		ProbeTimeout:     Duration(2 * time.Second),
		DeployDir:        "~/.remyxai/deployments",
		ComposeBin:       "docker",
		StopTimeout:      Duration(30 * time.Second),
		GPU:              true,
		APIBaseURL:       "https://engine.remyx.ai/api/v1.0/",
		PackageSource:    "remyx",
		Addr:             "127.0.0.1:8080",
		LogLevel:         "info",
		LogFormat:        "console",
	}
}

// Normalize expands paths and checks values that would fail later in
// less obvious ways.
func (c *Config) Normalize() error {
	dir, err := fsutil.ExpandHome(c.DeployDir)
	if err != nil {
		return err
	}
	c.DeployDir = dir
	if c.InferTimeout <= 0 {
		return fmt.Errorf("infer_timeout must be positive, got %s", c.InferTimeout)
	}
	if c.ReadyTimeout <= 0 {
		return fmt.Errorf("ready_timeout must be positive, got %s", c.ReadyTimeout)
	}
	if c.PackageSource != "remyx" && !strings.HasPrefix(c.PackageSource, "s3://") {
		return fmt.Errorf("package_source must be \"remyx\" or an s3:// URL, got %q", c.PackageSource)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// Duration is a time.Duration written as "90s" or "2m" in files and env.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	*d = Duration(v)
	return nil
}
