package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Temporal.Address == "" || cfg.Temporal.TaskQueue == "" {
		t.Fatalf("temporal defaults missing: %+v", cfg.Temporal)
	}
	if len(cfg.Domains) == 0 {
		t.Fatalf("expected at least one default domain")
	}

	d := cfg.Domains[0]
	if d.MinRelevanceScore != 0.7 || d.MaxArticlesToCreate != 3 || d.LookbackDays != 7 {
		t.Fatalf("unexpected default domain thresholds: %+v", d)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("TEMPORAL_ADDRESS", "temporal.test:7233")
	t.Setenv("SERPER_API_KEY", "serper-env-key")
	t.Setenv("OPENAI_API_KEY", "openai-env-key")

	cfg := Load()

	if cfg.Temporal.Address != "temporal.test:7233" {
		t.Fatalf("temporal address override not applied: %s", cfg.Temporal.Address)
	}
	if cfg.Providers.Serper.APIKey != "serper-env-key" {
		t.Fatalf("serper key override not applied")
	}
	if cfg.Assessor.APIKey != "openai-env-key" {
		t.Fatalf("assessor key override not applied")
	}
}

func TestLoadMergesYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
temporal:
  taskQueue: custom-queue
assessor:
  model: gpt-4o
  maxRunCost: 2.5
domains:
  - id: relocation
    keywords: [relocation, visa]
    minRelevanceScore: 0.8
    maxArticlesToCreate: 5
    lookbackDays: 3
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("NEWS_GENERATOR_CONFIG", path)

	cfg := Load()

	if cfg.Temporal.TaskQueue != "custom-queue" {
		t.Fatalf("task queue not merged: %s", cfg.Temporal.TaskQueue)
	}
	if cfg.Assessor.Model != "gpt-4o" || cfg.Assessor.MaxRunCost != 2.5 {
		t.Fatalf("assessor not merged: %+v", cfg.Assessor)
	}
	// File values win, untouched defaults survive.
	if cfg.Assessor.Endpoint == "" || cfg.Assessor.BatchSize != 10 {
		t.Fatalf("assessor defaults lost: %+v", cfg.Assessor)
	}

	d, ok := cfg.Domain("relocation")
	if !ok {
		t.Fatalf("domain relocation not found")
	}
	if d.MinRelevanceScore != 0.8 || d.MaxArticlesToCreate != 5 || d.LookbackDays != 3 {
		t.Fatalf("unexpected domain config: %+v", d)
	}
	if _, ok := cfg.Domain("placement"); ok {
		t.Fatalf("file domains should replace defaults")
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := Config{Timezone: "Not/AZone"}
	cfg.bindTimezone()
	if cfg.Location().String() != "UTC" {
		t.Fatalf("unknown timezone should fall back to UTC, got %s", cfg.Location())
	}
}
