package rules

import "testing"

func TestDefaultLimits(t *testing.T) {
	set := Default()
	if set.MaxTotalFiles != 15000 {
		t.Fatalf("unexpected max total files: %d", set.MaxTotalFiles)
	}
	if set.MaxPathLength != 60 || set.MaxFilenameLength != 64 {
		t.Fatalf("unexpected length limits: path=%d filename=%d", set.MaxPathLength, set.MaxFilenameLength)
	}
	if set.ForbiddenBitrateKbps != 144 {
		t.Fatalf("unexpected forbidden bitrate: %d", set.ForbiddenBitrateKbps)
	}
}

func TestExtensionClassification(t *testing.T) {
	set := Default()

	for _, ext := range []string{".mp3", ".MP3", "m4b", ".Wma"} {
		if !set.Supported(ext) {
			t.Errorf("expected %q to be supported", ext)
		}
	}
	for _, ext := range []string{".flac", ".OGG", "wav"} {
		if !set.Unsupported(ext) {
			t.Errorf("expected %q to be unsupported", ext)
		}
	}
	if set.Supported(".txt") || set.Unsupported(".txt") {
		t.Fatalf("non-audio extension should be in neither set")
	}
}

func TestSampleRates(t *testing.T) {
	set := Default()
	if !set.ValidSampleRate(44100) {
		t.Fatalf("44100 should be valid")
	}
	if set.ValidSampleRate(22050) {
		t.Fatalf("22050 should be invalid")
	}
}

func TestUnsafeRune(t *testing.T) {
	set := Default()
	if !set.UnsafeRune('é') {
		t.Fatalf("expected é to be unsafe")
	}
	if set.UnsafeRune('e') {
		t.Fatalf("plain ascii must be safe")
	}
}

func TestOverrides(t *testing.T) {
	set := Default()
	set.MaxPathLength = 10
	set.SupportedExtensions = []string{".mp3"}

	if set.MaxPathLength != 10 {
		t.Fatalf("override did not stick")
	}
	if set.Supported(".wma") {
		t.Fatalf("override should drop wma support")
	}
	// Default() must be unaffected by caller mutation.
	if !Default().Supported(".wma") {
		t.Fatalf("Default must return a fresh set")
	}
}
