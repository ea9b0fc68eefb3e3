package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loom.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
provider: openai
model: gpt-5.2
max_rounds: 10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != "openai" || cfg.Model != "gpt-5.2" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.MaxRounds != 10 {
		t.Errorf("expected max_rounds 10, got %d", cfg.MaxRounds)
	}
	// Untouched fields keep their defaults.
	if cfg.CommandTimeoutMs != Default().CommandTimeoutMs {
		t.Errorf("default command timeout lost: %d", cfg.CommandTimeoutMs)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("LOOM_TEST_MODEL", "claude-sonnet-4-5")
	path := writeConfig(t, `
model: ${LOOM_TEST_MODEL}
endpoint: ${LOOM_TEST_ENDPOINT:-http://localhost:11434}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model != "claude-sonnet-4-5" {
		t.Errorf("env var not expanded: %q", cfg.Model)
	}
	if cfg.Endpoint != "http://localhost:11434" {
		t.Errorf("default value not applied: %q", cfg.Endpoint)
	}
}

func TestLoadUnresolvedVariable(t *testing.T) {
	path := writeConfig(t, `model: ${LOOM_DEFINITELY_UNSET_VAR}`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected an error for an unresolved variable")
	}
	if !strings.Contains(err.Error(), "LOOM_DEFINITELY_UNSET_VAR") {
		t.Errorf("error does not name the variable: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}

	bad := Default()
	bad.Provider = ""
	bad.MaxRounds = 0
	err := bad.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"provider", "max_rounds"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestResolveCredential(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	key, err := ResolveCredential("anthropic")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "sk-test" {
		t.Errorf("unexpected key %q", key)
	}
}

func TestResolveCredentialMissing(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := ResolveCredential("openai")
	if err == nil {
		t.Fatal("expected an error for a missing credential")
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("error does not name the variable: %v", err)
	}
}

func TestResolveCredentialLocalProvider(t *testing.T) {
	key, err := ResolveCredential("ollama")
	if err != nil {
		t.Fatalf("ollama must not require a credential: %v", err)
	}
	if key != "" {
		t.Errorf("expected an empty key, got %q", key)
	}
}

func TestResolveCredentialUnknownProvider(t *testing.T) {
	if _, err := ResolveCredential("mystery"); err == nil {
		t.Fatal("expected an error for an unknown provider")
	}
}
