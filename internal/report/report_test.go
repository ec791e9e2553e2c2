package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jadnhm/volvo-usb-verifier/internal/finding"
	"github.com/jadnhm/volvo-usb-verifier/internal/verify"
)

func sampleResult() *verify.Result {
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return &verify.Result{
		RunID:            "11111111-2222-3333-4444-555555555555",
		Root:             "/mnt/usb",
		StartedAt:        start,
		FinishedAt:       start.Add(3 * time.Second),
		TotalAudioFiles:  3,
		TotalFolders:     2,
		RootFolders:      1,
		MaxDepth:         2,
		MaxFilesInFolder: 2,
		ExtensionCounts:  map[string]int{".mp3": 2, ".wma": 1},
		Findings: []finding.Finding{
			{Path: ".", Category: finding.CategoryStructureCount, Severity: finding.SeverityInfo, Message: "total audio files: 3 (max 15000)"},
			{Path: "a/long.mp3", Category: finding.CategoryPathLength, Severity: finding.SeverityError, Message: "path is 61 characters (limit 60)"},
			{Path: "a/vbr.mp3", Category: finding.CategoryEncoding, Severity: finding.SeverityWarning, Message: "variable bitrate encoding"},
		},
	}
}

func TestRenderSections(t *testing.T) {
	out := Render(sampleResult(), Options{})

	for _, want := range []string{
		"Scan report for /mnt/usb",
		"Passed checks",
		"ok  total audio files: 3 (max 15000)",
		"Warnings (1)",
		"Errors (1)",
		"a/long.mp3: path is 61 characters (limit 60)",
		"NOT COMPLIANT - 1 error(s)",
		".mp3",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderCompliantVerdict(t *testing.T) {
	res := sampleResult()
	res.Findings = []finding.Finding{
		{Path: ".", Category: finding.CategoryStructureCount, Severity: finding.SeverityInfo, Message: "all good"},
	}
	out := Render(res, Options{})
	if !strings.Contains(out, "Verdict: COMPLIANT") {
		t.Fatalf("expected a compliant verdict:\n%s", out)
	}
}

func TestRenderCapsPerCategory(t *testing.T) {
	res := sampleResult()
	res.Findings = nil
	for i := 0; i < 7; i++ {
		res.Findings = append(res.Findings, finding.Finding{
			Path:     "f.mp3",
			Category: finding.CategoryBitrate,
			Severity: finding.SeverityError,
			Message:  "bitrate 144 kbps is not playable",
		})
	}

	out := Render(res, Options{MaxPerCategory: 3})
	if got := strings.Count(out, "bitrate 144 kbps"); got != 3 {
		t.Fatalf("printed %d rows, want 3", got)
	}
	if !strings.Contains(out, "... and 4 more") {
		t.Fatalf("missing held-back note:\n%s", out)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	findings := []finding.Finding{
		{Path: "a/b.mp3", Category: finding.CategoryTagVersion, Severity: finding.SeverityWarning, Message: "ID3v2.4 tag; older head unit firmware reads v2.3 more reliably"},
		{Path: `odd,"name".mp3`, Category: finding.CategoryInvalidCharacters, Severity: finding.SeverityWarning, Message: "characters may not display"},
	}
	if err := WriteCSV(&buf, findings); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3:\n%s", len(lines), buf.String())
	}
	if lines[0] != "file_path,issue_type,severity,description" {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "ID3 Tags,warning") {
		t.Fatalf("row = %q", lines[1])
	}
	// Commas and quotes in paths must survive the round trip.
	if !strings.Contains(lines[2], `"odd,""name"".mp3"`) {
		t.Fatalf("row = %q", lines[2])
	}
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exports", "defects.csv")

	written, err := ExportCSV(path, nil)
	if err != nil {
		t.Fatalf("ExportCSV(empty): %v", err)
	}
	if written {
		t.Fatal("empty finding list produced a file")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file, stat err = %v", err)
	}

	written, err = ExportCSV(path, []finding.Finding{
		{Path: "x.mp3", Category: finding.CategoryDRM, Severity: finding.SeverityError, Message: "copy-protected content"},
	})
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if !written {
		t.Fatal("expected the file to be written")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "x.mp3,DRM,error,copy-protected content") {
		t.Fatalf("export content:\n%s", data)
	}
}
