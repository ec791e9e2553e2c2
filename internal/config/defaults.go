package config

const (
	defaultStateDir  = "~/.local/share/vusb"
	defaultLogDir    = "~/.local/share/vusb/logs"
	defaultExportDir = "~/.local/share/vusb/exports"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultReportMaxPerCategory = 10
	defaultHistoryKeepRuns      = 50
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
			ExportDir: defaultExportDir,
		},
		Scan: Scan{
			DriveCheck: true,
		},
		Report: Report{
			MaxPerCategory: defaultReportMaxPerCategory,
		},
		History: History{
			Enabled:  true,
			KeepRuns: defaultHistoryKeepRuns,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
