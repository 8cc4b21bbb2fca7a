package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Values outside their range fail
// here instead of being coerced later.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMapping(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateMapping() error {
	switch c.Mapping.Strategy {
	case StrategyMeta, StrategySlug:
	default:
		return fmt.Errorf("mapping.strategy must be %q or %q, got %q", StrategyMeta, StrategySlug, c.Mapping.Strategy)
	}
	for key, value := range map[string]string{
		"mapping.video_id_meta_key": c.Mapping.VideoIDMetaKey,
		"mapping.page_id_meta_key":  c.Mapping.PageIDMetaKey,
	} {
		if strings.ContainsAny(value, " \t\n") {
			return fmt.Errorf("%s must not contain whitespace", key)
		}
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.ConfidenceThreshold < 0 || c.Matching.ConfidenceThreshold > 1 {
		return errors.New("matching.confidence_threshold must be between 0 and 1")
	}
	if err := ensurePositiveMap(map[string]int{
		"matching.candidate_limit": c.Matching.CandidateLimit,
		"matching.fallback_pool":   c.Matching.FallbackPool,
	}); err != nil {
		return err
	}
	if c.Matching.FallbackPool < MinFallbackPool {
		return fmt.Errorf("matching.fallback_pool must be at least %d", MinFallbackPool)
	}
	return nil
}

func (c *Config) validateOutput() error {
	switch c.Output.ModelH2Source {
	case ModelH2Trait, ModelH2NoTrait:
		return nil
	default:
		return fmt.Errorf("output.model_h2_source must be %q or %q, got %q", ModelH2Trait, ModelH2NoTrait, c.Output.ModelH2Source)
	}
}

func (c *Config) validateBatch() error {
	if c.Batch.Size < MinBatchSize || c.Batch.Size > MaxBatchSize {
		return fmt.Errorf("batch.size must be between %d and %d", MinBatchSize, MaxBatchSize)
	}
	if c.Batch.IntervalSeconds <= 0 {
		return errors.New("batch.interval_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	if !validLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	for component, level := range c.Logging.ComponentLevels {
		if !validLevel(level) {
			return fmt.Errorf("logging.component_levels.%s %q is not a known level", component, level)
		}
	}
	if c.Logging.DiagnosticsCap <= 0 {
		return errors.New("logging.diagnostics_cap must be positive")
	}
	return nil
}

func validLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
