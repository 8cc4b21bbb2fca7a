package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMapping()
	c.normalizePostTypes()
	c.normalizeOutput()
	c.normalizeSafety()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMapping() {
	c.Mapping.Strategy = strings.ToLower(strings.TrimSpace(c.Mapping.Strategy))
	if c.Mapping.Strategy == "" {
		c.Mapping.Strategy = StrategyMeta
	}
	c.Mapping.VideoIDMetaKey = strings.TrimSpace(c.Mapping.VideoIDMetaKey)
	c.Mapping.PageIDMetaKey = strings.TrimSpace(c.Mapping.PageIDMetaKey)
}

func (c *Config) normalizePostTypes() {
	c.PostTypes.Titles = normalizeList(c.PostTypes.Titles)
	c.PostTypes.VideoH2 = normalizeList(c.PostTypes.VideoH2)
	c.PostTypes.Model = normalizeList(c.PostTypes.Model)
}

func (c *Config) normalizeOutput() {
	source := strings.ToLower(strings.TrimSpace(c.Output.ModelH2Source))
	source = strings.ReplaceAll(source, "-", "_")
	if source == "" {
		source = ModelH2NoTrait
	}
	c.Output.ModelH2Source = source
}

func (c *Config) normalizeSafety() {
	c.Safety.HardBlockPattern = strings.TrimSpace(c.Safety.HardBlockPattern)
	filtered := c.Safety.SoftReplace[:0]
	for _, rule := range c.Safety.SoftReplace {
		rule.From = strings.TrimSpace(rule.From)
		if rule.From == "" {
			continue
		}
		filtered = append(filtered, rule)
	}
	c.Safety.SoftReplace = filtered
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.ComponentLevels == nil {
		c.Logging.ComponentLevels = map[string]string{}
		return
	}
	normalized := make(map[string]string, len(c.Logging.ComponentLevels))
	for component, level := range c.Logging.ComponentLevels {
		key := strings.ToLower(strings.TrimSpace(component))
		if key == "" {
			continue
		}
		normalized[key] = strings.ToLower(strings.TrimSpace(level))
	}
	c.Logging.ComponentLevels = normalized
}

// normalizeList trims, lowercases, and de-duplicates while keeping order.
func normalizeList(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
