package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"seopilot/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "seopilot")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "seopilot.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Mapping.Strategy != config.StrategyMeta {
		t.Fatalf("unexpected strategy: %q", cfg.Mapping.Strategy)
	}
	if !cfg.Mapping.AutoBackfill {
		t.Fatal("expected auto backfill enabled by default")
	}
	if cfg.Matching.ConfidenceThreshold != 0.35 {
		t.Fatalf("unexpected threshold: %v", cfg.Matching.ConfidenceThreshold)
	}
	if cfg.Batch.Size != 150 || cfg.Batch.IntervalSeconds != 120 {
		t.Fatalf("unexpected batch defaults: %+v", cfg.Batch)
	}
	if len(cfg.Safety.SoftReplace) != 6 {
		t.Fatalf("expected six soft replacements, got %d", len(cfg.Safety.SoftReplace))
	}
	if first := cfg.Safety.SoftReplace[0]; first.From != "cam girl" || first.To != "live creator" {
		t.Fatalf("soft replacement order changed: %+v", first)
	}
}

func TestLoadCustomConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.toml")
	content := `
[paths]
data_dir = "~/data"

[mapping]
strategy = " SLUG "
auto_backfill = false

[matching]
confidence_threshold = 0.5

[post_types]
titles = ["Video", "video", " clip "]

[safety]
hard_block_pattern = "  forbidden  "

[[safety.soft_replace]]
from = "foo"
to = "bar"

[[safety.soft_replace]]
from = "  "
to = "ignored"

[batch]
size = 20
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "data") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Mapping.Strategy != config.StrategySlug {
		t.Fatalf("unexpected strategy: %q", cfg.Mapping.Strategy)
	}
	if cfg.Mapping.AutoBackfill {
		t.Fatal("expected auto backfill disabled")
	}
	if got := strings.Join(cfg.PostTypes.Titles, ","); got != "video,clip" {
		t.Fatalf("unexpected titles post types: %q", got)
	}
	if cfg.Safety.HardBlockPattern != "forbidden" {
		t.Fatalf("unexpected hard block pattern: %q", cfg.Safety.HardBlockPattern)
	}
	if len(cfg.Safety.SoftReplace) != 1 || cfg.Safety.SoftReplace[0].From != "foo" {
		t.Fatalf("expected configured soft replacements to replace defaults, got %+v", cfg.Safety.SoftReplace)
	}
	if cfg.ClampedBatchSize() != 20 {
		t.Fatalf("unexpected batch size: %d", cfg.ClampedBatchSize())
	}
}

func TestValidateRejectsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"threshold", func(c *config.Config) { c.Matching.ConfidenceThreshold = 1.5 }, "matching.confidence_threshold"},
		{"batch too small", func(c *config.Config) { c.Batch.Size = 5 }, "batch.size"},
		{"batch too large", func(c *config.Config) { c.Batch.Size = 5000 }, "batch.size"},
		{"strategy", func(c *config.Config) { c.Mapping.Strategy = "guess" }, "mapping.strategy"},
		{"fallback pool", func(c *config.Config) { c.Matching.FallbackPool = 10 }, "matching.fallback_pool"},
		{"model source", func(c *config.Config) { c.Output.ModelH2Source = "both" }, "output.model_h2_source"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"interval", func(c *config.Config) { c.Batch.IntervalSeconds = 0 }, "batch.interval_seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.DataDir = t.TempDir()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateAcceptsMalformedHardBlockPattern(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Safety.HardBlockPattern = "(unclosed"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("malformed pattern should not fail validation: %v", err)
	}
}

func TestConfigurationErrorUnwraps(t *testing.T) {
	err := error(&config.ConfigurationError{Setting: "post_types.titles"})
	if !errors.Is(err, config.ErrConfiguration) {
		t.Fatal("expected ConfigurationError to match ErrConfiguration")
	}
	if err.Error() != "post_types.titles is not configured" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestCreateSampleLoads(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	path := filepath.Join(tempHome, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if len(cfg.Safety.SoftReplace) != 6 {
		t.Fatalf("sample should carry the default soft replacements, got %d", len(cfg.Safety.SoftReplace))
	}
}
