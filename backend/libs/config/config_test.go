package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	HTTP struct {
		Port string `yaml:"port"`
	} `yaml:"http"`
	Pipeline struct {
		PeakThreshold float64       `yaml:"peakThreshold" env:"TEST_PEAK_THRESHOLD"`
		HorizonDays   int           `yaml:"horizonDays" env:"TEST_HORIZON_DAYS"`
		Timeout       time.Duration `yaml:"timeout" env:"TEST_TIMEOUT"`
	} `yaml:"pipeline"`
	Origins []string `env:"TEST_ORIGINS"`
	Ignored string   `env:"-"`
}

func TestLoadConfigYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := "http:\n  port: \"9000\"\npipeline:\n  peakThreshold: 2.5\n  horizonDays: 3\n"
	if err := os.WriteFile(path, []byte(yamlBody), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TEST_HORIZON_DAYS", "5")
	t.Setenv("TEST_TIMEOUT", "1500ms")
	t.Setenv("TEST_ORIGINS", "a.example, b.example,,")

	var cfg testConfig
	if err := LoadConfig(&cfg); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.HTTP.Port != "9000" {
		t.Fatalf("expected port from yaml, got %q", cfg.HTTP.Port)
	}
	if cfg.Pipeline.PeakThreshold != 2.5 {
		t.Fatalf("expected peak threshold 2.5, got %v", cfg.Pipeline.PeakThreshold)
	}
	if cfg.Pipeline.HorizonDays != 5 {
		t.Fatalf("expected env to override horizon days, got %d", cfg.Pipeline.HorizonDays)
	}
	if cfg.Pipeline.Timeout != 1500*time.Millisecond {
		t.Fatalf("unexpected timeout %s", cfg.Pipeline.Timeout)
	}
	if len(cfg.Origins) != 2 || cfg.Origins[1] != "b.example" {
		t.Fatalf("unexpected origins %v", cfg.Origins)
	}
}

func TestLoadConfigRejectsBadValue(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TEST_HORIZON_DAYS", "seven")

	var cfg testConfig
	if err := LoadConfig(&cfg); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadConfigRequiresStructPointer(t *testing.T) {
	var cfg testConfig
	if err := LoadConfig(cfg); err == nil {
		t.Fatalf("expected error for non-pointer target")
	}
	if err := LoadConfig(nil); err == nil {
		t.Fatalf("expected error for nil target")
	}
}
