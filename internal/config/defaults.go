package config

const (
	defaultConfigPath          = "~/.config/seopilot/config.toml"
	defaultDataDir             = "~/.local/share/seopilot"
	defaultLogDir              = "~/.local/share/seopilot/logs"
	defaultVideoIDMetaKey      = "_tmw_video_id"
	defaultPageIDMetaKey       = "_tmw_page_id"
	defaultConfidenceThreshold = 0.35
	defaultCandidateLimit      = 10
	defaultFallbackPool        = 25
	defaultBatchSize           = 150
	defaultBatchInterval       = 120
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultDiagnosticsCap      = 2000
)

// Mapping strategies.
const (
	StrategyMeta = "meta"
	StrategySlug = "slug"
)

// Mapping kinds select the meta key and the numeric id prefix.
const (
	KindVideo = "video"
	KindPage  = "page"
)

// Model H2 sources.
const (
	ModelH2Trait   = "trait"
	ModelH2NoTrait = "no_trait"
)

// Batch size bounds.
const (
	MinBatchSize = 10
	MaxBatchSize = 1000
)

// MinFallbackPool is the smallest linear-scan candidate pool.
const MinFallbackPool = 25

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Mapping: Mapping{
			Strategy:       StrategyMeta,
			VideoIDMetaKey: defaultVideoIDMetaKey,
			PageIDMetaKey:  defaultPageIDMetaKey,
			AutoBackfill:   true,
		},
		Matching: Matching{
			ConfidenceThreshold: defaultConfidenceThreshold,
			CandidateLimit:      defaultCandidateLimit,
			FallbackPool:        defaultFallbackPool,
			UseIndex:            true,
		},
		PostTypes: PostTypes{
			Titles:  []string{"video"},
			VideoH2: []string{"video_page"},
			Model:   []string{"model"},
		},
		Output: Output{
			ModelH2Source: ModelH2NoTrait,
			WriteRankMath: true,
			UpdateTitle:   false,
		},
		Safety: Safety{
			SoftReplace: defaultSoftReplace(),
		},
		Batch: Batch{
			Size:            defaultBatchSize,
			IntervalSeconds: defaultBatchInterval,
		},
		Logging: Logging{
			Format:          defaultLogFormat,
			Level:           defaultLogLevel,
			DiagnosticsCap:  defaultDiagnosticsCap,
			ComponentLevels: map[string]string{},
		},
	}
}

func defaultSoftReplace() []SoftReplacement {
	return []SoftReplacement{
		{From: "cam girl", To: "live creator"},
		{From: "cam", To: "stream"},
		{From: "webcam", To: "live stream"},
		{From: "adult", To: "live"},
		{From: "private", To: "1-on-1"},
		{From: "after dark", To: "late night"},
	}
}
