package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug not parsed")
	}
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Pipeline.DefaultScope != 3 {
		t.Errorf("default scope = %d", cfg.Pipeline.DefaultScope)
	}
	if cfg.Pipeline.PatchOutputDir == "" {
		t.Error("patch output dir not defaulted")
	}
	if len(cfg.Watch.Extensions) == 0 {
		t.Error("watch extensions not defaulted")
	}
}

func TestLoadExplicitValuesWin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `server:
  host: 0.0.0.0
  port: 9090
pipeline:
  default_scope: 5
  patch_output_dir: /data/patched
watch:
  enabled: true
  extensions: [".pdf"]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9090 {
		t.Errorf("server = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Pipeline.DefaultScope != 5 {
		t.Errorf("default scope = %d", cfg.Pipeline.DefaultScope)
	}
	if cfg.Pipeline.PatchOutputDir != "/data/patched" {
		t.Errorf("patch output dir = %s", cfg.Pipeline.PatchOutputDir)
	}
	if !cfg.Watch.Enabled || len(cfg.Watch.Extensions) != 1 {
		t.Errorf("watch = %+v", cfg.Watch)
	}
}

func TestLoadExpandsRelativeOutputDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("pipeline:\n  patch_output_dir: ./patched\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "patched")
	if cfg.Pipeline.PatchOutputDir != want {
		t.Errorf("patch output dir = %s, want %s", cfg.Pipeline.PatchOutputDir, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing config accepted")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("invalid yaml accepted")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := &Config{Debug: true}
	ApplyDefaults(cfg)
	cfg.Server.Port = 9999
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.Debug || loaded.Server.Port != 9999 {
		t.Errorf("round trip = %+v", loaded)
	}
}
