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

	"github.com/jadnhm/volvo-usb-verifier/internal/rules"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
	ExportDir string `toml:"export_dir"`
}

// Scan contains scan execution settings.
type Scan struct {
	// Workers bounds the audio audit pool; zero uses one worker per CPU.
	Workers int `toml:"workers"`
	// DriveCheck toggles the filesystem/partition advisory probe.
	DriveCheck bool `toml:"drive_check"`
}

// Rules contains overrides for the device limit table. Zero values keep
// the published 2012 XC70 limits.
type Rules struct {
	MaxTotalFiles     int `toml:"max_total_files"`
	MaxRootFolders    int `toml:"max_root_folders"`
	MaxFilesPerFolder int `toml:"max_files_per_folder"`
	MaxNestingDepth   int `toml:"max_nesting_depth"`
	MaxPathLength     int `toml:"max_path_length"`
	MaxFilenameLength int `toml:"max_filename_length"`

	ForbiddenBitrateKbps int   `toml:"forbidden_bitrate_kbps"`
	MinBitrateKbps       int   `toml:"min_bitrate_kbps"`
	MaxBitrateKbps       int   `toml:"max_bitrate_kbps"`
	ValidSampleRates     []int `toml:"valid_sample_rates"`

	MaxArtworkBytes  int    `toml:"max_artwork_bytes"`
	UnsafeCharacters string `toml:"unsafe_characters"`
	ClusterSizeKiB   int    `toml:"cluster_size_kib"`
}

// Report contains console report settings.
type Report struct {
	// MaxPerCategory caps findings printed per category; the CSV export is
	// always complete.
	MaxPerCategory int `toml:"max_per_category"`
}

// History contains scan history settings.
type History struct {
	Enabled bool `toml:"enabled"`
	// KeepRuns bounds how many runs 'vusb history prune' retains.
	KeepRuns int `toml:"keep_runs"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for vusb.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Scan    Scan    `toml:"scan"`
	Rules   Rules   `toml:"rules"`
	Report  Report  `toml:"report"`
	History History `toml:"history"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vusb/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
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

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
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

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vusb.toml")
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

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.Paths.ExportDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryDBPath is where the scan history database lives.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath is the advisory lock guarding the shared state directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "vusb.lock")
}

// RuleSet builds the effective device limit table: published defaults with
// any configured overrides applied.
func (c *Config) RuleSet() rules.Set {
	set := rules.Default()
	r := c.Rules
	if r.MaxTotalFiles > 0 {
		set.MaxTotalFiles = r.MaxTotalFiles
	}
	if r.MaxRootFolders > 0 {
		set.MaxRootFolders = r.MaxRootFolders
	}
	if r.MaxFilesPerFolder > 0 {
		set.MaxFilesPerFolder = r.MaxFilesPerFolder
	}
	if r.MaxNestingDepth > 0 {
		set.MaxNestingDepth = r.MaxNestingDepth
	}
	if r.MaxPathLength > 0 {
		set.MaxPathLength = r.MaxPathLength
	}
	if r.MaxFilenameLength > 0 {
		set.MaxFilenameLength = r.MaxFilenameLength
	}
	if r.ForbiddenBitrateKbps > 0 {
		set.ForbiddenBitrateKbps = r.ForbiddenBitrateKbps
	}
	if r.MinBitrateKbps > 0 {
		set.MinBitrateKbps = r.MinBitrateKbps
	}
	if r.MaxBitrateKbps > 0 {
		set.MaxBitrateKbps = r.MaxBitrateKbps
	}
	if len(r.ValidSampleRates) > 0 {
		set.ValidSampleRates = append([]int(nil), r.ValidSampleRates...)
	}
	if r.MaxArtworkBytes > 0 {
		set.MaxArtworkBytes = r.MaxArtworkBytes
	}
	if r.UnsafeCharacters != "" {
		set.UnsafeCharacters = r.UnsafeCharacters
	}
	if r.ClusterSizeKiB > 0 {
		set.ClusterSizeBytes = int64(r.ClusterSizeKiB) * 1024
	}
	return set
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
