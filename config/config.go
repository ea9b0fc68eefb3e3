// Package config loads loom's YAML configuration with environment variable
// expansion, and resolves the provider credential at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is loom's startup configuration.
type Config struct {
	Provider         string `yaml:"provider"`
	Model            string `yaml:"model"`
	Endpoint         string `yaml:"endpoint,omitempty"` // alternate service endpoint (ollama only)
	MaxRounds        int    `yaml:"max_rounds"`
	MaxTokens        int    `yaml:"max_tokens,omitempty"`
	CommandTimeoutMs int    `yaml:"command_timeout_ms"`
	MaxTimeoutMs     int    `yaml:"max_timeout_ms"`
	WorkingDir       string `yaml:"working_dir,omitempty"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Provider:         "anthropic",
		Model:            "claude-opus-4-6",
		MaxRounds:        6,
		CommandTimeoutMs: 10000,  // 10 seconds
		MaxTimeoutMs:     600000, // 10 minutes
	}
}

// envPattern matches ${VAR} and ${VAR:-default} expressions.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// Load reads a YAML configuration file, expands environment variables, and
// merges the result over Default().
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	expanded, err := expandEnv(raw)
	if err != nil {
		return nil, fmt.Errorf("config: expanding variables in %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// expandEnv replaces ${VAR} and ${VAR:-default} patterns in raw YAML bytes.
// Returns an error listing all unresolved variables (no default, no env
// value).
func expandEnv(raw []byte) ([]byte, error) {
	var errs []error

	result := envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		subs := envPattern.FindSubmatch(match)
		name := string(subs[1])
		hasDefault := len(subs) > 2 && subs[2] != nil
		defaultVal := ""
		if hasDefault {
			defaultVal = string(subs[2])
		}

		value, ok := os.LookupEnv(name)
		if ok {
			return []byte(value)
		}

		if hasDefault {
			return []byte(defaultVal)
		}

		errs = append(errs, fmt.Errorf("unresolved variable: %s", name))
		return match
	})

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return result, nil
}

// Validate checks a configuration for structural problems.
func (c *Config) Validate() error {
	var errs []error
	if c.Provider == "" {
		errs = append(errs, errors.New("provider must not be empty"))
	}
	if c.Model == "" {
		errs = append(errs, errors.New("model must not be empty"))
	}
	if c.MaxRounds <= 0 {
		errs = append(errs, errors.New("max_rounds must be positive"))
	}
	if c.CommandTimeoutMs <= 0 {
		errs = append(errs, errors.New("command_timeout_ms must be positive"))
	}
	if c.MaxTimeoutMs < c.CommandTimeoutMs {
		errs = append(errs, errors.New("max_timeout_ms must be at least command_timeout_ms"))
	}
	return errors.Join(errs...)
}

// credentialEnvVars maps providers to the environment variable holding their
// credential.
var credentialEnvVars = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"groq":      "GROQ_API_KEY",
	"mistral":   "MISTRAL_API_KEY",
}

// providersWithoutCredential run locally and need no key.
var providersWithoutCredential = map[string]bool{
	"ollama": true,
}

// CredentialEnvVar returns the environment variable name for a provider's
// credential, or "" if the provider needs none.
func CredentialEnvVar(provider string) string {
	return credentialEnvVars[provider]
}

// ResolveCredential reads the provider credential from the environment. A
// missing credential for a provider that requires one is a fatal startup
// condition for the caller.
func ResolveCredential(provider string) (string, error) {
	if providersWithoutCredential[provider] {
		return "", nil
	}
	envVar, ok := credentialEnvVars[provider]
	if !ok {
		return "", fmt.Errorf("config: unknown provider %q", provider)
	}
	key := os.Getenv(envVar)
	if key == "" {
		return "", fmt.Errorf("config: %s is not set; it is required for provider %q", envVar, provider)
	}
	return key, nil
}
