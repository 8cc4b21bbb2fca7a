package testsupport

import (
	"path/filepath"
	"testing"

	"seopilot/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Batch.Size = config.MinBatchSize

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBatchSize overrides batch.size.
func WithBatchSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Batch.Size = size
	}
}

// WithStrategy overrides mapping.strategy.
func WithStrategy(strategy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Mapping.Strategy = strategy
	}
}

// WithAutoBackfill toggles fuzzy resolution.
func WithAutoBackfill(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Mapping.AutoBackfill = enabled
	}
}

// WithThreshold overrides matching.confidence_threshold.
func WithThreshold(threshold float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.ConfidenceThreshold = threshold
	}
}

// WithIndex toggles the full-text candidate path.
func WithIndex(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.UseIndex = enabled
	}
}

// WithHardBlock sets safety.hard_block_pattern.
func WithHardBlock(pattern string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Safety.HardBlockPattern = pattern
	}
}

// WithSoftReplace replaces the soft replacement table.
func WithSoftReplace(pairs ...config.SoftReplacement) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Safety.SoftReplace = pairs
	}
}

// WithOutput overrides the output section.
func WithOutput(output config.Output) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output = output
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
