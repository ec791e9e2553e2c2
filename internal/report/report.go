package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jadnhm/volvo-usb-verifier/internal/finding"
	"github.com/jadnhm/volvo-usb-verifier/internal/verify"
)

// Options shapes the console report.
type Options struct {
	// MaxPerCategory caps how many findings one category may print in the
	// warning and error sections. Zero selects the default of 10. The CSV
	// export is never capped.
	MaxPerCategory int
}

const defaultMaxPerCategory = 10

// Render builds the full console report for one scan result.
func Render(res *verify.Result, opts Options) string {
	limit := opts.MaxPerCategory
	if limit <= 0 {
		limit = defaultMaxPerCategory
	}

	info, warnings, errors := finding.Partition(res.Findings)

	var b strings.Builder
	fmt.Fprintf(&b, "Scan report for %s\n", res.Root)
	fmt.Fprintf(&b, "run %s finished in %s\n\n", res.RunID, res.Duration().Round(time.Millisecond))

	b.WriteString(summaryTable(res, len(warnings), len(errors)))
	b.WriteString("\n")

	if len(res.ExtensionCounts) > 0 {
		b.WriteString("\nAudio files by format\n")
		b.WriteString(extensionTable(res.ExtensionCounts))
		b.WriteString("\n")
	}

	if len(info) > 0 {
		b.WriteString("\nPassed checks\n")
		for _, f := range info {
			fmt.Fprintf(&b, "  ok  %s\n", f.Message)
		}
	}

	writeSection(&b, "Warnings", warnings, limit)
	writeSection(&b, "Errors", errors, limit)

	b.WriteString("\n")
	if len(errors) == 0 {
		b.WriteString("Verdict: COMPLIANT - the head unit should accept this drive\n")
	} else {
		fmt.Fprintf(&b, "Verdict: NOT COMPLIANT - %d error(s) must be fixed\n", len(errors))
	}
	return b.String()
}

// writeSection prints findings grouped by category in first-seen order,
// capping each category and noting how many rows were held back.
func writeSection(b *strings.Builder, title string, findings []finding.Finding, limit int) {
	if len(findings) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s (%d)\n", title, len(findings))

	var order []finding.Category
	grouped := make(map[finding.Category][]finding.Finding)
	for _, f := range findings {
		if _, ok := grouped[f.Category]; !ok {
			order = append(order, f.Category)
		}
		grouped[f.Category] = append(grouped[f.Category], f)
	}

	for _, cat := range order {
		group := grouped[cat]
		fmt.Fprintf(b, "  %s:\n", cat)
		shown := group
		if len(shown) > limit {
			shown = shown[:limit]
		}
		for _, f := range shown {
			if f.Path == "" || f.Path == "." {
				fmt.Fprintf(b, "    - %s\n", f.Message)
				continue
			}
			fmt.Fprintf(b, "    - %s: %s\n", f.Path, f.Message)
		}
		if hidden := len(group) - len(shown); hidden > 0 {
			fmt.Fprintf(b, "    ... and %d more (see the CSV export)\n", hidden)
		}
	}
}

func summaryTable(res *verify.Result, warnings, errors int) string {
	rows := [][]string{
		{"Audio files", fmt.Sprintf("%d", res.TotalAudioFiles)},
		{"Folders", fmt.Sprintf("%d", res.TotalFolders)},
		{"Root folders", fmt.Sprintf("%d", res.RootFolders)},
		{"Max nesting depth", fmt.Sprintf("%d", res.MaxDepth)},
		{"Max files in one folder", fmt.Sprintf("%d", res.MaxFilesInFolder)},
		{"Warnings", fmt.Sprintf("%d", warnings)},
		{"Errors", fmt.Sprintf("%d", errors)},
	}
	return Table([]string{"Metric", "Value"}, rows, 1)
}

func extensionTable(counts map[string]int) string {
	exts := make([]string, 0, len(counts))
	for ext := range counts {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	rows := make([][]string, 0, len(exts))
	for _, ext := range exts {
		rows = append(rows, []string{ext, fmt.Sprintf("%d", counts[ext])})
	}
	return Table([]string{"Extension", "Files"}, rows, 1)
}

// Table renders rows in the shared rounded style. rightAlign lists the
// zero-based columns to right-align (numeric columns).
func Table(headers []string, rows [][]string, rightAlign ...int) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	rightAligned := make(map[int]bool, len(rightAlign))
	for _, idx := range rightAlign {
		rightAligned[idx] = true
	}
	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if rightAligned[i] {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}
