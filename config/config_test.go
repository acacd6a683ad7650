package config

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %q", cfg.LogLevel)
	}
	if cfg.UsersCollection != "AspNetUsers" || cfg.RolesCollection != "AspNetRoles" {
		t.Errorf("unexpected default collection names: %q, %q", cfg.UsersCollection, cfg.RolesCollection)
	}
	if cfg.ConnectionString == "" {
		t.Error("expected a default connection string")
	}
}

func TestConnectionStringFromEnvWithoutLoadConfig(t *testing.T) {
	t.Setenv("CONNECTION_STRINGS_REPORTING", "mongodb://localhost:27017/reporting")

	got, ok := ConnectionString("reporting")
	if !ok {
		t.Fatal("expected the env-configured name to resolve")
	}
	if got != "mongodb://localhost:27017/reporting" {
		t.Errorf("unexpected connection string %q", got)
	}
}

func TestConnectionStringUnknown(t *testing.T) {
	if _, ok := ConnectionString("definitely-not-configured"); ok {
		t.Error("expected an unknown name to report false")
	}
}
