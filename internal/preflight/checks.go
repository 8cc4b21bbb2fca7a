package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"seopilot/internal/config"
	"seopilot/internal/reference"
	"seopilot/internal/safety"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckMappingKeys reports missing meta key settings. Without them only slug
// resolution can run.
func CheckMappingKeys(cfg *config.Config) Result {
	const name = "Mapping keys"
	var missing []string
	if strings.TrimSpace(cfg.Mapping.VideoIDMetaKey) == "" {
		missing = append(missing, "video_id_meta_key")
	}
	if strings.TrimSpace(cfg.Mapping.PageIDMetaKey) == "" {
		missing = append(missing, "page_id_meta_key")
	}
	if len(missing) > 0 {
		return Result{Name: name, Detail: "missing " + strings.Join(missing, ", ")}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s, %s (%s strategy)", cfg.Mapping.VideoIDMetaKey, cfg.Mapping.PageIDMetaKey, cfg.Mapping.Strategy)}
}

// CheckHardBlockPattern compiles the hard-block pattern. An invalid pattern
// fails the check; the filter itself passes text through until it is fixed.
func CheckHardBlockPattern(pattern string) Result {
	const name = "Hard block pattern"
	if strings.TrimSpace(pattern) == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if _, err := safety.CompilePattern(pattern); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("invalid, not enforced (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: "Valid"}
}

// CheckDatabase pings the store.
func CheckDatabase(ctx context.Context, db Database) Result {
	const name = "Database"
	if err := db.Ping(ctx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckFullTextIndex reports whether indexed candidate search is in use.
// A missing index is not a failure; candidates then come from the scan path.
func CheckFullTextIndex(cfg *config.Config, db Database) Result {
	const name = "Candidate index"
	switch {
	case !cfg.Matching.UseIndex:
		return Result{Name: name, Passed: true, Detail: "Disabled (scan only)"}
	case db.FullTextAvailable():
		return Result{Name: name, Passed: true, Detail: "FTS5 available"}
	default:
		return Result{Name: name, Passed: true, Detail: "FTS5 unavailable (scan fallback)"}
	}
}

// CheckReferenceData fails when a category a pass reads has no rows.
func CheckReferenceData(ctx context.Context, cfg *config.Config, db Database) Result {
	const name = "Reference data"
	counts, err := db.CountReferences(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("count failed (%v)", err)}
	}
	needed := []reference.Category{
		reference.CategoryTitles,
		reference.CategoryPageVideo,
		reference.ModelCategory(cfg.Output.ModelH2Source),
	}
	var empty, parts []string
	for _, category := range needed {
		n := counts[category]
		parts = append(parts, fmt.Sprintf("%s=%d", category, n))
		if n == 0 {
			empty = append(empty, string(category))
		}
	}
	if len(empty) > 0 {
		return Result{Name: name, Detail: "no rows for " + strings.Join(empty, ", ")}
	}
	return Result{Name: name, Passed: true, Detail: strings.Join(parts, " ")}
}
