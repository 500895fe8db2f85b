package config

import "testing"

func TestValidateRequiresSecretOutsideDev(t *testing.T) {
	cfg := &Config{Env: "production", ImportMaxBodyMB: 16}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing AUTH_SECRET in production")
	}

	cfg.AuthSecret = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateAllowsDevWithoutSecret(t *testing.T) {
	cfg := &Config{Env: "development", ImportMaxBodyMB: 16}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsBadBodyLimit(t *testing.T) {
	cfg := &Config{Env: "development", ImportMaxBodyMB: 0}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero IMPORT_MAX_BODY_MB")
	}
}

func TestIsDev(t *testing.T) {
	if !(&Config{Env: "development"}).IsDev() {
		t.Error("expected development env to be dev")
	}
	if (&Config{Env: "production"}).IsDev() {
		t.Error("expected production env not to be dev")
	}
}
