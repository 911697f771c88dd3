package config

import (
	"flag"
	"testing"
)

func TestLoad_DefaultsWithNoOverrides(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := Load(fs, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MainPort != 8080 || cfg.HealthPort != 8081 {
		t.Fatalf("expected default ports, got %+v", cfg)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("MAIN_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := Load(fs, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MainPort != 9090 {
		t.Errorf("expected MAIN_PORT env to set port, got %d", cfg.MainPort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected LOG_LEVEL env to apply, got %q", cfg.LogLevel)
	}
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	t.Setenv("MAIN_PORT", "9090")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := Load(fs, []string{"-port", "7070"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MainPort != 7070 {
		t.Errorf("expected flag to win over env, got %d", cfg.MainPort)
	}
}
