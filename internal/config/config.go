package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Mapping controls how content records are linked to reference rows.
type Mapping struct {
	// Strategy is "meta" (authoritative meta, fuzzy assist, slug last) or
	// "slug" (authoritative meta, slug, fuzzy last).
	Strategy       string `toml:"strategy"`
	VideoIDMetaKey string `toml:"video_id_meta_key"`
	PageIDMetaKey  string `toml:"page_id_meta_key"`
	// AutoBackfill enables fuzzy resolution and the write-back of its result.
	AutoBackfill bool `toml:"auto_backfill"`
}

// Matching tunes candidate retrieval and the confidence cut-off.
type Matching struct {
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	CandidateLimit      int     `toml:"candidate_limit"`
	FallbackPool        int     `toml:"fallback_pool"`
	UseIndex            bool    `toml:"use_index"`
}

// PostTypes lists the content record types each batch pass walks.
type PostTypes struct {
	Titles  []string `toml:"titles"`
	VideoH2 []string `toml:"video_h2"`
	Model   []string `toml:"model"`
}

// Output controls which fields are written back.
type Output struct {
	ModelH2Source string `toml:"model_h2_source"`
	WriteRankMath bool   `toml:"write_rankmath"`
	UpdateTitle   bool   `toml:"update_title"`
}

// SoftReplacement is one ordered whole-word substitution.
type SoftReplacement struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

// Safety configures the text filter applied before any write-back.
type Safety struct {
	// HardBlockPattern is a bare RE2 pattern body; matching is always case-insensitive.
	HardBlockPattern string            `toml:"hard_block_pattern"`
	SoftReplace      []SoftReplacement `toml:"soft_replace"`
}

// Batch contains scheduler sizing and timing.
type Batch struct {
	Size            int `toml:"size"`
	IntervalSeconds int `toml:"interval_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format          string            `toml:"format"`
	Level           string            `toml:"level"`
	DiagnosticsCap  int               `toml:"diagnostics_cap"`
	ComponentLevels map[string]string `toml:"component_levels"`
}

// Config encapsulates all configuration values for seopilot.
//
// Configuration sections by subsystem:
//   - Paths: database and log directories
//   - Mapping: authoritative meta keys and the resolution strategy
//   - Matching: fuzzy candidate retrieval and confidence threshold
//   - PostTypes: content record types walked by each batch pass
//   - Output: which metadata and body fields are written
//   - Safety: soft replacement table and hard-block pattern
//   - Batch: page size and periodic tick interval
//   - Logging: log format, level, and diagnostics retention
type Config struct {
	Paths     Paths     `toml:"paths"`
	Mapping   Mapping   `toml:"mapping"`
	Matching  Matching  `toml:"matching"`
	PostTypes PostTypes `toml:"post_types"`
	Output    Output    `toml:"output"`
	Safety    Safety    `toml:"safety"`
	Batch     Batch     `toml:"batch"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// Arrays of tables replace the defaults instead of appending to them.
		cfg.Safety.SoftReplace = nil
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		if cfg.Safety.SoftReplace == nil {
			cfg.Safety.SoftReplace = defaultSoftReplace()
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("seopilot.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "seopilot.db")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "seopilot.lock")
}

// PIDPath returns the daemon pid file.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.DataDir, "seopilot.pid")
}

// MetaKeyFor returns the mapping meta key for a mapping kind ("video" or "page").
func (c *Config) MetaKeyFor(kind string) string {
	if kind == KindVideo {
		return c.Mapping.VideoIDMetaKey
	}
	return c.Mapping.PageIDMetaKey
}

// ClampedBatchSize returns Batch.Size bounded to the supported range.
func (c *Config) ClampedBatchSize() int {
	size := c.Batch.Size
	if size < MinBatchSize {
		return MinBatchSize
	}
	if size > MaxBatchSize {
		return MaxBatchSize
	}
	return size
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
