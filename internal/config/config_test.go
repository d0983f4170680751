package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"telemetry_map/core-go/internal/projection"
	"telemetry_map/core-go/internal/viewport"
)

func TestLoad_defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8081" {
		t.Fatalf("expected :8081, got %q", cfg.HTTPAddr)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected info, got %q", cfg.LogLevel)
	}
	if got := cfg.ViewportConstants(); got != viewport.DefaultConstants() {
		t.Fatalf("expected default viewport constants, got %+v", got)
	}
	if cfg.Render.Throttle != time.Second {
		t.Fatalf("expected 1s throttle, got %s", cfg.Render.Throttle)
	}
	if cfg.Render.VisibleCap != 16 {
		t.Fatalf("expected cap 16, got %d", cfg.Render.VisibleCap)
	}

	tiers := cfg.Tiers()
	for _, w := range []float64{1920, 1000, 600, 450, 300} {
		if got, want := tiers.VerticalAdjustment(w), projection.DefaultTiers().VerticalAdjustment(w); got != want {
			t.Fatalf("width %v: expected adjustment %v, got %v", w, want, got)
		}
	}
}

func TestLoad_envOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RENDER_THROTTLE", "250ms")
	t.Setenv("RENDER_VISIBLE_CAP", "8")
	t.Setenv("LAYOUT_MIN_WIDTH", "1024")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9000" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected addr/level: %q %q", cfg.HTTPAddr, cfg.LogLevel)
	}
	if cfg.Render.Throttle != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %s", cfg.Render.Throttle)
	}
	if cfg.Render.VisibleCap != 8 {
		t.Fatalf("expected 8, got %d", cfg.Render.VisibleCap)
	}
	if cfg.Layout.MinWidth != 1024 {
		t.Fatalf("expected min width 1024, got %v", cfg.Layout.MinWidth)
	}

	opts := cfg.DashboardOptions()
	if opts.Throttle != 250*time.Millisecond || opts.VisibleCap != 8 || opts.Viewport.MinWidth != 1024 {
		t.Fatalf("dashboard options do not follow config: %+v", opts)
	}
}

func TestLoad_yamlFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "core-go.yaml")
	body := `
layout:
  header_height: 100
  vertical_tiers:
    - min_screen_width: 400
      adjust: 10
    - min_screen_width: 1000
      adjust: 30
  vertical_fallback: 5
sessions:
  idle_timeout: 2m
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Layout.HeaderHeight != 100 {
		t.Fatalf("expected header 100, got %v", cfg.Layout.HeaderHeight)
	}
	if cfg.Sessions.IdleTimeout != 2*time.Minute {
		t.Fatalf("expected 2m idle timeout, got %s", cfg.Sessions.IdleTimeout)
	}
	if cfg.Layout.MapRatio != viewport.DefaultMapRatio {
		t.Fatalf("unset keys keep their defaults, got ratio %v", cfg.Layout.MapRatio)
	}

	tiers := cfg.Tiers()
	cases := map[float64]float64{1200: 30, 1000: 10, 500: 10, 400: 5}
	for width, want := range cases {
		if got := tiers.VerticalAdjustment(width); got != want {
			t.Fatalf("width %v: expected %v, got %v", width, want, got)
		}
	}
}

func TestLoad_missingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoadFile_explicitPathWins(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "env.yaml")
	flagPath := filepath.Join(dir, "flag.yaml")
	if err := os.WriteFile(envPath, []byte("layout:\n  header_height: 10\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(flagPath, []byte("layout:\n  header_height: 70\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", envPath)

	cfg, err := LoadFile(flagPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Layout.HeaderHeight != 70 {
		t.Fatalf("expected header 70 from the explicit file, got %v", cfg.Layout.HeaderHeight)
	}

	cfg, err = LoadFile("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Layout.HeaderHeight != 10 {
		t.Fatalf("expected header 10 from CONFIG_FILE, got %v", cfg.Layout.HeaderHeight)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LAYOUT_MAP_RATIO", "0")
	t.Setenv("RENDER_VISIBLE_CAP", "-1")

	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error")
	}
}
