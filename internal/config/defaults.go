package config

const (
	defaultDataDir    = "~/.local/share/vaultmig/data"
	defaultLogDir     = "~/.local/share/vaultmig/logs"
	defaultReportDir  = "~/.local/share/vaultmig/reports"
	defaultCacheFile  = "~/.cache/vaultmig/reference_cache.json"
	defaultLogFormat  = "console"
	defaultLogLevel   = "info"
	defaultWorkers    = 4
	defaultGoLiveDate = ""
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			ReportDir: defaultReportDir,
			CacheFile: defaultCacheFile,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Migration: Migration{
			Workers:    defaultWorkers,
			GoLiveDate: defaultGoLiveDate,
		},
		Rules: Rules{
			// Deliberately minimal; the production vocabularies are owned
			// by the operators and belong in the config file.
			TestKeywords:      []string{"test"},
			PreferredVersions: []string{"ORIG", "ORIGINAL"},
			AllowedExtensions: []string{"mp4", "mpg", "mpeg", "wmv", "avi"},
		},
	}
}
