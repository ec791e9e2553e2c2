// Package finding defines the immutable facts a verification run produces.
//
// A Finding ties one detected condition (pass confirmation, advisory, or
// violation) to a subject path and a severity. The Category strings double as
// the issue_type values in the CSV export, so the downstream fixer can group
// rows without a translation table. Changing a Category value is a wire
// format change.
package finding

// Severity ranks a finding. Error findings make a scan non-compliant;
// warnings are advisories; info findings confirm passed checks.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the export spelling of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Category identifies what kind of condition a finding reports. The values
// are the issue_type strings consumed by the fixer.
type Category string

const (
	CategoryPathLength        Category = "Path Length"
	CategoryFilenameLength    Category = "Filename Length"
	CategoryInvalidCharacters Category = "Invalid Characters"
	CategoryUnsupportedFormat Category = "Unsupported Format"
	CategoryBitrate           Category = "Bitrate"
	CategorySampleRate        Category = "Sample Rate"
	CategoryEncoding          Category = "Encoding"
	CategoryTagVersion        Category = "ID3 Tags"
	CategoryAlbumArt          Category = "Album Art"
	CategoryDRM               Category = "DRM"
	CategoryReadError         Category = "Read Error"
	CategoryStructureCount    Category = "Structure"
	CategoryFilesystem        Category = "Filesystem"
)

// Finding is one detected fact. Findings are values; nothing downstream
// mutates them.
type Finding struct {
	// Path is relative to the scan root. Aggregate findings use "." for the
	// root itself.
	Path     string
	Category Category
	Severity Severity
	Message  string

	// Measured and Limit carry the observed value and the rule it was
	// compared against for numeric checks. Zero means not applicable.
	Measured int64
	Limit    int64
}

// Passed reports whether the sequence contains no error-severity finding.
// It is always recomputed from the sequence, never cached.
func Passed(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return false
		}
	}
	return true
}

// CountBySeverity tallies the sequence per severity.
func CountBySeverity(findings []Finding) map[Severity]int {
	counts := make(map[Severity]int, 3)
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}

// Partition splits the sequence into info, warning, and error groups while
// preserving relative order inside each group.
func Partition(findings []Finding) (info, warnings, errors []Finding) {
	for _, f := range findings {
		switch f.Severity {
		case SeverityError:
			errors = append(errors, f)
		case SeverityWarning:
			warnings = append(warnings, f)
		default:
			info = append(info, f)
		}
	}
	return info, warnings, errors
}
