package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvCompassURL, EnvCompassToken, EnvCohereAPIKey, EnvIndexName} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Retrieve.Limit != 8 {
		t.Errorf("expected Limit=8, got %d", cfg.Retrieve.Limit)
	}
	if cfg.Select.TopN != 3 {
		t.Errorf("expected TopN=3, got %d", cfg.Select.TopN)
	}
	if cfg.Select.Strategy != "passthrough" {
		t.Errorf("expected passthrough strategy, got %s", cfg.Select.Strategy)
	}
	if cfg.Chat.Temperature != 0.3 {
		t.Errorf("expected Temperature=0.3, got %f", cfg.Chat.Temperature)
	}
	if cfg.Chat.Model != "command-r-08-2024" {
		t.Errorf("expected command-r-08-2024, got %s", cfg.Chat.Model)
	}
	if cfg.Search.IndexName != "childrens_hospital_index" {
		t.Errorf("unexpected default index: %s", cfg.Search.IndexName)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.Search.URL != "http://compass-api-stg-compass:8080" {
		t.Errorf("expected default URL, got %s", cfg.Search.URL)
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "medrag.yaml")

	content := `
search:
  index_name: medical_literature_chunks
  timeout: 5s
retrieve:
  limit: 12
select:
  top_n: 4
  strategy: mmr
augment:
  rules:
    - keyword: dosage
      suffix: " Focus on dosing only."
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Search.IndexName != "medical_literature_chunks" {
		t.Errorf("expected index from file, got %s", cfg.Search.IndexName)
	}
	if cfg.Search.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", cfg.Search.Timeout)
	}
	if cfg.Retrieve.Limit != 12 {
		t.Errorf("expected Limit=12, got %d", cfg.Retrieve.Limit)
	}
	if cfg.Select.TopN != 4 || cfg.Select.Strategy != "mmr" {
		t.Errorf("unexpected select config: %+v", cfg.Select)
	}
	if len(cfg.Augment.Rules) != 1 || cfg.Augment.Rules[0].Keyword != "dosage" {
		t.Errorf("unexpected augment rules: %+v", cfg.Augment.Rules)
	}
	// Untouched sections keep their defaults.
	if cfg.Chat.Temperature != 0.3 {
		t.Errorf("expected default temperature, got %f", cfg.Chat.Temperature)
	}
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvCompassToken, "env-token")
	t.Setenv(EnvCohereAPIKey, "env-key")
	t.Setenv(EnvIndexName, "env_index")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "medrag.yaml")
	content := `
search:
  index_name: file_index
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Search.IndexName != "file_index" {
		t.Errorf("config file should win over environment, got %s", cfg.Search.IndexName)
	}
	if cfg.Search.Token != "env-token" {
		t.Errorf("environment should fill unset token, got %q", cfg.Search.Token)
	}
	if cfg.Chat.APIKey != "env-key" {
		t.Errorf("environment should fill unset api key, got %q", cfg.Chat.APIKey)
	}
}

func TestLoadFromDir(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".medrag"), 0755); err != nil {
		t.Fatal(err)
	}

	content := `
select:
  top_n: 5
`
	if err := os.WriteFile(filepath.Join(tmpDir, ".medrag", "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Select.TopN != 5 {
		t.Errorf("expected TopN=5, got %d", cfg.Select.TopN)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if !strings.Contains(err.Error(), EnvCompassToken) || !strings.Contains(err.Error(), EnvCohereAPIKey) {
		t.Errorf("expected both credentials reported, got %v", err)
	}

	cfg.Search.Token = "t"
	cfg.Chat.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.Select.Strategy = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "medrag.yaml")

	cfg := DefaultConfig()
	cfg.Select.TopN = 7
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Select.TopN != 7 {
		t.Errorf("expected TopN=7, got %d", loaded.Select.TopN)
	}
	if loaded.Search.Timeout != cfg.Search.Timeout {
		t.Errorf("expected timeout %s, got %s", cfg.Search.Timeout, loaded.Search.Timeout)
	}
}

func TestHistoryDBPath(t *testing.T) {
	cfg := DefaultConfig()
	path := cfg.HistoryDBPath("/home/user/project")
	expected := filepath.Join("/home/user/project", ".medrag", "history.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}

	cfg.History.Path = "/tmp/custom.db"
	if got := cfg.HistoryDBPath("/ignored"); got != "/tmp/custom.db" {
		t.Errorf("expected explicit path, got %s", got)
	}
}
