package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateRules(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.Workers < 0 {
		return errors.New("scan.workers must not be negative")
	}
	return nil
}

func (c *Config) validateRules() error {
	r := c.Rules
	for name, value := range map[string]int{
		"rules.max_total_files":        r.MaxTotalFiles,
		"rules.max_root_folders":       r.MaxRootFolders,
		"rules.max_files_per_folder":   r.MaxFilesPerFolder,
		"rules.max_nesting_depth":      r.MaxNestingDepth,
		"rules.max_path_length":        r.MaxPathLength,
		"rules.max_filename_length":    r.MaxFilenameLength,
		"rules.forbidden_bitrate_kbps": r.ForbiddenBitrateKbps,
		"rules.min_bitrate_kbps":       r.MinBitrateKbps,
		"rules.max_bitrate_kbps":       r.MaxBitrateKbps,
		"rules.max_artwork_bytes":      r.MaxArtworkBytes,
		"rules.cluster_size_kib":       r.ClusterSizeKiB,
	} {
		if value < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}

	set := c.RuleSet()
	if set.MinBitrateKbps > set.MaxBitrateKbps {
		return errors.New("rules.min_bitrate_kbps must not exceed rules.max_bitrate_kbps")
	}
	for _, rate := range r.ValidSampleRates {
		if rate <= 0 {
			return errors.New("rules.valid_sample_rates entries must be positive")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
