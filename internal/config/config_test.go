package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("missing file reported as existing")
	}
	if cfg.Report.MaxPerCategory != defaultReportMaxPerCategory {
		t.Fatalf("MaxPerCategory = %d", cfg.Report.MaxPerCategory)
	}
	if !cfg.Scan.DriveCheck || !cfg.History.Enabled {
		t.Fatalf("defaults = %+v", cfg)
	}
	if !filepath.IsAbs(cfg.Paths.StateDir) {
		t.Fatalf("StateDir %q not expanded", cfg.Paths.StateDir)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
[scan]
workers = 3
drive_check = false

[rules]
max_path_length = 80
forbidden_bitrate_kbps = 96
valid_sample_rates = [44100]

[logging]
format = "json"
level = "debug"
`)

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Scan.Workers != 3 || cfg.Scan.DriveCheck {
		t.Fatalf("scan = %+v", cfg.Scan)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}

	set := cfg.RuleSet()
	if set.MaxPathLength != 80 {
		t.Fatalf("MaxPathLength = %d, want 80", set.MaxPathLength)
	}
	if set.ForbiddenBitrateKbps != 96 {
		t.Fatalf("ForbiddenBitrateKbps = %d, want 96", set.ForbiddenBitrateKbps)
	}
	if len(set.ValidSampleRates) != 1 || set.ValidSampleRates[0] != 44100 {
		t.Fatalf("ValidSampleRates = %v", set.ValidSampleRates)
	}
	// Untouched limits keep the published defaults.
	if set.MaxTotalFiles != 15000 || set.MaxFilesPerFolder != 254 {
		t.Fatalf("defaults leaked: %+v", set)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"negative workers": "[scan]\nworkers = -1\n",
		"bad log format":   "[logging]\nformat = \"xml\"\n",
		"bad log level":    "[logging]\nlevel = \"loud\"\n",
		"inverted bitrate": "[rules]\nmin_bitrate_kbps = 320\nmax_bitrate_kbps = 128\n",
		"bad sample rate":  "[rules]\nvalid_sample_rates = [0]\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, _, err := Load(writeConfig(t, content)); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := ExpandPath("~/music")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "music") {
		t.Fatalf("got %q", got)
	}
}

func TestCreateSampleRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[rules]") {
		t.Fatalf("sample missing rules section:\n%s", data)
	}

	// The sample must load cleanly with every key commented out.
	if _, _, _, err := Load(path); err != nil {
		t.Fatalf("Load(sample): %v", err)
	}
}

func TestHistoryDBPathUnderStateDir(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got := cfg.HistoryDBPath(); filepath.Dir(got) != cfg.Paths.StateDir {
		t.Fatalf("HistoryDBPath = %q, want under %q", got, cfg.Paths.StateDir)
	}
}
