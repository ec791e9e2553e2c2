package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jadnhm/volvo-usb-verifier/internal/finding"
)

// csvHeader is the fixer wire format; column order is load-bearing for the
// downstream consumer.
var csvHeader = []string{"file_path", "issue_type", "severity", "description"}

// WriteCSV streams every finding to w, one row each, header first.
func WriteCSV(w io.Writer, findings []finding.Finding) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, f := range findings {
		row := []string{f.Path, string(f.Category), f.Severity.String(), f.Message}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes the findings to path, creating parent directories. An
// empty finding list writes nothing and reports false; the downstream fixer
// treats a missing file as "nothing to fix".
func ExportCSV(path string, findings []finding.Finding) (bool, error) {
	if len(findings) == 0 {
		return false, nil
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("ensure export directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return false, fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, findings); err != nil {
		return false, err
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("close export file: %w", err)
	}
	return true, nil
}
