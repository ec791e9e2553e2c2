package audit

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/jadnhm/volvo-usb-verifier/internal/finding"
	"github.com/jadnhm/volvo-usb-verifier/internal/probe"
	"github.com/jadnhm/volvo-usb-verifier/internal/rules"
	"github.com/jadnhm/volvo-usb-verifier/internal/structure"
	"github.com/jadnhm/volvo-usb-verifier/internal/testsupport"
)

func entry(rel string) structure.FileEntry {
	return structure.FileEntry{Path: "/drive/" + rel, RelPath: rel, Ext: strings.ToLower(filepath.Ext(rel))}
}

func tagVersion(major, minor int) *probe.TagVersion {
	return &probe.TagVersion{Major: major, Minor: minor}
}

func TestEvaluateCompliantFile(t *testing.T) {
	md := probe.Metadata{
		BitrateKbps:  128,
		SampleRateHz: 44100,
		Mode:         probe.EncodingConstant,
		TagVersion:   tagVersion(2, 3),
	}
	if got := Evaluate(entry("a.mp3"), md, rules.Default()); len(got) != 0 {
		t.Fatalf("findings = %v, want none", got)
	}
}

func TestEvaluateForbiddenBitrate(t *testing.T) {
	md := probe.Metadata{BitrateKbps: 144, SampleRateHz: 44100, TagVersion: tagVersion(2, 3)}
	got := Evaluate(entry("a.mp3"), md, rules.Default())
	if len(got) != 1 {
		t.Fatalf("findings = %d, want 1", len(got))
	}
	f := got[0]
	if f.Category != finding.CategoryBitrate || f.Severity != finding.SeverityError {
		t.Fatalf("got %s/%s, want Bitrate/error", f.Category, f.Severity)
	}
	if f.Measured != 144 {
		t.Fatalf("measured = %d, want 144", f.Measured)
	}
}

func TestEvaluateBitrateRange(t *testing.T) {
	set := rules.Default()
	cases := []struct {
		name    string
		kbps    int
		wantSev finding.Severity
		wantAny bool
	}{
		{"at minimum", set.MinBitrateKbps, 0, false},
		{"at maximum", set.MaxBitrateKbps, 0, false},
		{"below minimum", set.MinBitrateKbps - 8, finding.SeverityWarning, true},
		{"above maximum", set.MaxBitrateKbps + 64, finding.SeverityWarning, true},
		{"unknown", 0, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			md := probe.Metadata{BitrateKbps: tc.kbps, SampleRateHz: 44100, TagVersion: tagVersion(2, 3)}
			got := Evaluate(entry("a.mp3"), md, set)
			if !tc.wantAny {
				if len(got) != 0 {
					t.Fatalf("findings = %v, want none", got)
				}
				return
			}
			if len(got) != 1 || got[0].Category != finding.CategoryBitrate || got[0].Severity != tc.wantSev {
				t.Fatalf("findings = %v, want one %s bitrate finding", got, tc.wantSev)
			}
		})
	}
}

func TestEvaluateSampleRate(t *testing.T) {
	md := probe.Metadata{BitrateKbps: 128, SampleRateHz: 22050, TagVersion: tagVersion(2, 3)}
	got := Evaluate(entry("a.mp3"), md, rules.Default())
	if len(got) != 1 || got[0].Category != finding.CategorySampleRate {
		t.Fatalf("findings = %v, want one sample rate warning", got)
	}
	if got[0].Severity != finding.SeverityWarning {
		t.Fatalf("severity = %s, want warning", got[0].Severity)
	}
}

func TestEvaluateVariableBitrate(t *testing.T) {
	md := probe.Metadata{BitrateKbps: 192, SampleRateHz: 44100, Mode: probe.EncodingVariable, TagVersion: tagVersion(2, 3)}
	got := Evaluate(entry("a.mp3"), md, rules.Default())
	if len(got) != 1 || got[0].Category != finding.CategoryEncoding {
		t.Fatalf("findings = %v, want one encoding warning", got)
	}
}

func TestEvaluateTagVersions(t *testing.T) {
	cases := []struct {
		name    string
		md      probe.Metadata
		wantN   int
		wantMsg string
	}{
		{"v2.3 preferred", probe.Metadata{TagVersion: tagVersion(2, 3)}, 0, ""},
		{"v1 preferred", probe.Metadata{TagVersion: tagVersion(1, 0)}, 0, ""},
		{"v2.4 recommendation", probe.Metadata{TagVersion: tagVersion(2, 4)}, 1, "ID3v2.4"},
		{"v2.2 unusual", probe.Metadata{TagVersion: tagVersion(2, 2)}, 1, "unusual"},
		{"missing tag", probe.Metadata{TagMissing: true}, 1, "no ID3 tag"},
		{"tagless container", probe.Metadata{}, 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.md.BitrateKbps = 128
			tc.md.SampleRateHz = 44100
			got := Evaluate(entry("a.mp3"), tc.md, rules.Default())
			if len(got) != tc.wantN {
				t.Fatalf("findings = %v, want %d", got, tc.wantN)
			}
			if tc.wantN == 0 {
				return
			}
			if got[0].Category != finding.CategoryTagVersion || got[0].Severity != finding.SeverityWarning {
				t.Fatalf("got %s/%s, want ID3 Tags/warning", got[0].Category, got[0].Severity)
			}
			if !strings.Contains(got[0].Message, tc.wantMsg) {
				t.Fatalf("message %q missing %q", got[0].Message, tc.wantMsg)
			}
		})
	}
}

func TestEvaluateArtworkThreshold(t *testing.T) {
	set := rules.Default()
	at := probe.Metadata{BitrateKbps: 128, SampleRateHz: 44100, TagVersion: tagVersion(2, 3), ArtworkBytes: set.MaxArtworkBytes}
	if got := Evaluate(entry("a.mp3"), at, set); len(got) != 0 {
		t.Fatalf("at threshold: findings = %v, want none", got)
	}
	over := at
	over.ArtworkBytes++
	got := Evaluate(entry("a.mp3"), over, set)
	if len(got) != 1 || got[0].Category != finding.CategoryAlbumArt || got[0].Severity != finding.SeverityWarning {
		t.Fatalf("over threshold: findings = %v, want one album art warning", got)
	}
}

func TestEvaluateDRM(t *testing.T) {
	md := probe.Metadata{BitrateKbps: 128, SampleRateHz: 44100, DRM: true}
	got := Evaluate(entry("a.m4p"), md, rules.Default())
	if len(got) != 1 || got[0].Category != finding.CategoryDRM || got[0].Severity != finding.SeverityError {
		t.Fatalf("findings = %v, want one DRM error", got)
	}
}

func TestFileConvertsProbeFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.mp3")
	testsupport.WriteBytes(t, path, []byte("not an mpeg stream"))

	got := File(structure.FileEntry{Path: path, RelPath: "broken.mp3", Ext: ".mp3"}, rules.Default())
	if len(got) != 1 {
		t.Fatalf("findings = %v, want one read error", got)
	}
	if got[0].Category != finding.CategoryReadError || got[0].Severity != finding.SeverityError {
		t.Fatalf("got %s/%s, want Read Error/error", got[0].Category, got[0].Severity)
	}
	if got[0].Path != "broken.mp3" {
		t.Fatalf("path = %q, want broken.mp3", got[0].Path)
	}
}

func TestFileConvertsOversizedContainerClaim(t *testing.T) {
	// ASF header whose only sub-object declares a near-max 64-bit size.
	data := make([]byte, 0, 54)
	data = append(data,
		0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11,
		0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C)
	data = append(data, 54, 0, 0, 0, 0, 0, 0, 0) // header object size
	data = append(data, 1, 0, 0, 0)              // object count
	data = append(data, 0x01, 0x02)              // reserved
	data = append(data, make([]byte, 16)...)     // sub-object GUID
	data = append(data, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)

	path := filepath.Join(t.TempDir(), "huge.wma")
	testsupport.WriteBytes(t, path, data)

	got := File(structure.FileEntry{Path: path, RelPath: "huge.wma", Ext: ".wma"}, rules.Default())
	if len(got) != 1 {
		t.Fatalf("findings = %v, want one read error", got)
	}
	if got[0].Category != finding.CategoryReadError || got[0].Severity != finding.SeverityError {
		t.Fatalf("got %s/%s, want Read Error/error", got[0].Category, got[0].Severity)
	}
}

func TestFileAuditsRealBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.mp3")
	testsupport.WriteMP3(t, path, testsupport.MP3Options{
		ID3Minor:    3,
		FrameHeader: testsupport.MP3FrameHeader144Kbps,
		Frames:      4,
	})

	got := File(structure.FileEntry{Path: path, RelPath: "track.mp3", Ext: ".mp3"}, rules.Default())
	var bitrate, sampleRate bool
	for _, f := range got {
		switch f.Category {
		case finding.CategoryBitrate:
			bitrate = f.Severity == finding.SeverityError && f.Measured == 144
		case finding.CategorySampleRate:
			sampleRate = true
		}
	}
	if !bitrate {
		t.Fatalf("findings = %v, want a 144 kbps bitrate error", got)
	}
	// MPEG-2 frames carry a 22.05 kHz rate, outside the accepted set.
	if !sampleRate {
		t.Fatalf("findings = %v, want a sample rate warning", got)
	}
}
