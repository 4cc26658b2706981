package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "valkey", Addrs: []string{"localhost:6379"}},
		Provider: ProviderConfig{APIKey: "test-key"},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "memcached"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.Provider.APIKey = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestValidate_NonPositiveDepartmentQuota(t *testing.T) {
	cfg := validConfig()
	cfg.Limits.DepartmentQuotas = map[string]int{"physics": 0}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for non-positive department quota")
	}

	expected := "limits.department_quotas.physics must be positive, got 0"
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.Driver != "valkey" {
		t.Errorf("expected Driver='valkey', got %q", cfg.Database.Driver)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Provider.EmbeddingModel != "text-embedding-ada-002" {
		t.Errorf("expected default embedding model, got %q", cfg.Provider.EmbeddingModel)
	}
	if cfg.Provider.GenerationModel != "gpt-4o" {
		t.Errorf("expected default generation model, got %q", cfg.Provider.GenerationModel)
	}
	if cfg.Provider.MaxTokens != 1500 {
		t.Errorf("expected MaxTokens=1500, got %d", cfg.Provider.MaxTokens)
	}
	if cfg.Provider.Concurrency != 5 {
		t.Errorf("expected Concurrency=5, got %d", cfg.Provider.Concurrency)
	}
	if cfg.Storage.KeyPrefix != "courserec:" {
		t.Errorf("expected KeyPrefix='courserec:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{Driver: "redis", ReadinessTimeout: 15},
		Provider: ProviderConfig{EmbeddingModel: "text-embedding-3-small", MaxTokens: 300, Concurrency: 2},
		Storage:  StorageConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Database.Driver != "redis" {
		t.Errorf("expected Driver='redis', got %q", cfg.Database.Driver)
	}
	if cfg.Provider.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("expected EmbeddingModel preserved, got %q", cfg.Provider.EmbeddingModel)
	}
	if cfg.Provider.Concurrency != 2 {
		t.Errorf("expected Concurrency=2, got %d", cfg.Provider.Concurrency)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	raw := `
http:
  port: 8080
database:
  addrs: ["${COURSEREC_TEST_DB_ADDR:-localhost:6379}"]
provider:
  api_key: "${COURSEREC_TEST_API_KEY}"
limits:
  department_quotas:
    physics: 150
`
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config", "test.yaml"), []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("COURSEREC_TEST_API_KEY", "sk-test")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Provider.APIKey != "sk-test" {
		t.Errorf("api_key = %q, want sk-test", cfg.Provider.APIKey)
	}
	if len(cfg.Database.Addrs) != 1 || cfg.Database.Addrs[0] != "localhost:6379" {
		t.Errorf("addrs = %v", cfg.Database.Addrs)
	}
	if cfg.Limits.DepartmentQuotas["physics"] != 150 {
		t.Errorf("department quota = %d, want 150", cfg.Limits.DepartmentQuotas["physics"])
	}
	if cfg.Provider.GenerationModel != "gpt-4o" {
		t.Errorf("defaults not applied: generation model = %q", cfg.Provider.GenerationModel)
	}
}
