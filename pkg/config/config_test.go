package config

import (
	"os"
	"path/filepath"
	"testing"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})
	return tmpDir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Version != "test-version" {
		t.Errorf("expected Version=test-version, got %s", cfg.Version)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default Port=8080, got %s", cfg.Port)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("expected default provider openai, got %s", cfg.LLM.Provider)
	}
	if cfg.Pipeline.MaxRows != 1000 {
		t.Errorf("expected default MaxRows=1000, got %d", cfg.Pipeline.MaxRows)
	}
	if cfg.Pipeline.ExemplarK != 3 {
		t.Errorf("expected default ExemplarK=3, got %d", cfg.Pipeline.ExemplarK)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	tmpDir := chdirTemp(t)

	yamlContent := `
port: "3443"
env: "test"
llm:
  model: "yaml-model"
pipeline:
  max_rows: 500
`
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("PORT", "4443")
	t.Setenv("LLM_MODEL", "env-model")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "4443" {
		t.Errorf("expected Port=4443 (from env), got %s", cfg.Port)
	}
	if cfg.LLM.Model != "env-model" {
		t.Errorf("expected Model=env-model (from env), got %s", cfg.LLM.Model)
	}
	if cfg.Env != "test" {
		t.Errorf("expected Env=test (from yaml), got %s", cfg.Env)
	}
	if cfg.Pipeline.MaxRows != 500 {
		t.Errorf("expected MaxRows=500 (from yaml), got %d", cfg.Pipeline.MaxRows)
	}
}

func TestLoad_SecretsNeverFromYAML(t *testing.T) {
	tmpDir := chdirTemp(t)

	yamlContent := `
llm:
  api_key: "from-yaml"
`
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.LLM.APIKey != "" {
		t.Errorf("API key must not be readable from yaml, got %q", cfg.LLM.APIKey)
	}

	t.Setenv("LLM_API_KEY", "from-env")
	cfg, err = Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.LLM.APIKey != "from-env" {
		t.Errorf("expected API key from env, got %q", cfg.LLM.APIKey)
	}
}

func TestLoad_Validation(t *testing.T) {
	chdirTemp(t)

	t.Setenv("PIPELINE_MAX_ROWS", "0")
	if _, err := Load("test-version"); err == nil {
		t.Error("expected error for non-positive max_rows")
	}

	t.Setenv("PIPELINE_MAX_ROWS", "100")
	t.Setenv("LLM_PROVIDER", "cohere")
	if _, err := Load("test-version"); err == nil {
		t.Error("expected error for unsupported provider")
	}
}
