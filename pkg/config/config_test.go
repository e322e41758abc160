package config

import (
	"os"
	"testing"
)

func TestLoadFlagsOverrideEnv(t *testing.T) {
	os.Setenv("SERVER_URL", "0.0.0.0:9999")
	os.Setenv("DATABASE_URL", "postgres://env")
	defer os.Unsetenv("SERVER_URL")
	defer os.Unsetenv("DATABASE_URL")

	cfg, err := Load(Flags{DatabaseURL: "postgres://flag"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.URL != "0.0.0.0:9999" {
		t.Fatalf("expected env value to survive when flag is empty, got %q", cfg.Server.URL)
	}
	if cfg.Database.URL != "postgres://flag" {
		t.Fatalf("expected flag to win over env, got %q", cfg.Database.URL)
	}
}

func TestPublicWebSocketScheme(t *testing.T) {
	cfg := &Config{}
	if got := cfg.PublicWebSocketScheme(); got != "wss" {
		t.Fatalf("expected wss by default, got %q", got)
	}
	cfg.Server.ForceInsecureWS = true
	if got := cfg.PublicWebSocketScheme(); got != "ws" {
		t.Fatalf("expected ws when forced insecure, got %q", got)
	}
}
