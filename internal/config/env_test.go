package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrecedence(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "server_url: from-file:8000\nmodel_version: \"2\"\n")
	t.Setenv("REMYXAI_SERVER_URL", "from-env:8000")
	t.Setenv("REMYXAI_API_KEY", "k")
	t.Setenv("REMYXAI_READY_TIMEOUT", "90s")
	t.Setenv("REMYXAI_S3_ENDPOINT", "minio:9000")
	t.Setenv("REMYXAI_MODEL_KINDS", "a:generate,b:classify")
	t.Setenv("HOME", d)

	cfg, err := Resolve(p)
	require.NoError(t, err)
	assert.Equal(t, "from-env:8000", cfg.ServerURL)
	assert.Equal(t, "2", cfg.ModelVersion)
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, 90*time.Second, cfg.ReadyTimeout.Std())
	assert.Equal(t, "minio:9000", cfg.S3.Endpoint)
	assert.Equal(t, map[string]string{"a": "generate", "b": "classify"}, cfg.ModelKinds)
	assert.Equal(t, filepath.Join(d, ".remyxai/deployments"), cfg.DeployDir)
}

func TestResolveDotenv(t *testing.T) {
	d := t.TempDir()
	dot := writeTempFile(t, d, ".env", "REMYXAI_COMPOSE_BIN=podman\nREMYXAI_STOP_TIMEOUT=9s\n")
	// Register restores, then clear so the dotenv file can set the variable.
	t.Setenv("REMYXAI_COMPOSE_BIN", "")
	require.NoError(t, os.Unsetenv("REMYXAI_COMPOSE_BIN"))
	t.Setenv("REMYXAI_STOP_TIMEOUT", "5s")

	cfg := Default()
	require.NoError(t, LoadEnv(&cfg, dot, filepath.Join(d, "missing.env")))
	assert.Equal(t, "podman", cfg.ComposeBin)
	// the process environment wins over the dotenv file
	assert.Equal(t, 5*time.Second, cfg.StopTimeout.Std())
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"timeout": func(c *Config) { c.InferTimeout = 0 },
		"ready":   func(c *Config) { c.ReadyTimeout = -1 },
		"source":  func(c *Config) { c.PackageSource = "ftp://x" },
		"format":  func(c *Config) { c.LogFormat = "xml" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		assert.Error(t, cfg.Normalize(), name)
	}
	cfg := Default()
	cfg.PackageSource = "s3://bucket/prefix"
	assert.NoError(t, cfg.Normalize())
}
