package preflight

import (
	"context"

	"seopilot/internal/config"
	"seopilot/internal/reference"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Database is the store surface the checks inspect.
type Database interface {
	Ping(ctx context.Context) error
	FullTextAvailable() bool
	CountReferences(ctx context.Context) (map[reference.Category]int, error)
}

// RunAll executes every check for cfg. A nil db skips the database checks.
func RunAll(ctx context.Context, cfg *config.Config, db Database) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckMappingKeys(cfg),
		CheckHardBlockPattern(cfg.Safety.HardBlockPattern),
	}
	if db == nil {
		return results
	}
	results = append(results, CheckDatabase(ctx, db))
	results = append(results, CheckFullTextIndex(cfg, db))
	results = append(results, CheckReferenceData(ctx, cfg, db))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
