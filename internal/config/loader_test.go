package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "server_url: triton:9000\nready_timeout: 5m\ngpu: false\nmodel_kinds:\n  my-llm: generate\ns3:\n  endpoint: minio:9000\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "triton:9000" || cfg.ReadyTimeout.Std() != 5*time.Minute || cfg.GPU || cfg.ModelKinds["my-llm"] != "generate" || cfg.S3.Endpoint != "minio:9000" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	// untouched keys keep defaults
	if cfg.ModelVersion != "1" || cfg.InferTimeout.Std() != time.Minute || cfg.ComposeBin != "docker" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"model_version":"3","infer_timeout":"15s","package_source":"s3://models/pkgs","cors_origins":["http://localhost:3000"]}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ModelVersion != "3" || cfg.InferTimeout.Std() != 15*time.Second || cfg.PackageSource != "s3://models/pkgs" || len(cfg.CORSOrigins) != 1 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "deploy_dir=\"/srv/remyx\"\nprobe_interval=\"250ms\"\naddr=\":8081\"\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DeployDir != "/srv/remyx" || cfg.ProbeInterval.Std() != 250*time.Millisecond || cfg.Addr != ":8081" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadIgnoresAPIKeyInFile(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "api_key: leaked\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "" {
		t.Fatalf("api key read from file")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	cases := map[string]string{
		"cfg.txt":  "not supported",
		"bad.yaml": "server_url: x\n: broken\n",
		"bad.json": `{ "server_url": "x", "deploy_dir": }`,
		"bad.toml": "server_url=x\ndeploy_dir\n",
		"dur.yaml": "infer_timeout: soon\n",
	}
	for name, content := range cases {
		p := writeTempFile(t, d, name, content)
		if _, err := Load(p); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := Load("/definitely/not/a/real/file-12345.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent file")
	}
}
