package drive

import (
	"fmt"

	"github.com/jadnhm/volvo-usb-verifier/internal/finding"
	"github.com/jadnhm/volvo-usb-verifier/internal/rules"
)

// deviceInfo is what the platform layer could learn about the device
// holding the scan root. Empty strings and zeros mean "unknown".
type deviceInfo struct {
	FilesystemType  string
	ClusterBytes    int64
	PartitionScheme string
}

// Probe evaluates the device the root lives on against the head unit's
// media requirements. It is used as the verify.DriveProbe hook.
func Probe(root string, set rules.Set) []finding.Finding {
	info, err := probeDevice(root)
	if err != nil {
		return []finding.Finding{{
			Path:     ".",
			Category: finding.CategoryFilesystem,
			Severity: finding.SeverityWarning,
			Message:  fmt.Sprintf("drive inspection unavailable: %v", err),
		}}
	}
	return evaluateDevice(info, set)
}

func evaluateDevice(info deviceInfo, set rules.Set) []finding.Finding {
	var out []finding.Finding

	switch info.FilesystemType {
	case "vfat", "fat", "fat32", "msdos":
		out = append(out, finding.Finding{
			Path:     ".",
			Category: finding.CategoryFilesystem,
			Severity: finding.SeverityInfo,
			Message:  "FAT filesystem detected",
		})
	case "":
		out = append(out, finding.Finding{
			Path:     ".",
			Category: finding.CategoryFilesystem,
			Severity: finding.SeverityWarning,
			Message:  "filesystem type could not be determined; the head unit requires FAT32",
		})
	default:
		out = append(out, finding.Finding{
			Path:     ".",
			Category: finding.CategoryFilesystem,
			Severity: finding.SeverityError,
			Message:  fmt.Sprintf("filesystem is %s; the head unit requires FAT32", info.FilesystemType),
		})
	}

	if info.ClusterBytes > 0 && info.ClusterBytes != set.ClusterSizeBytes {
		out = append(out, finding.Finding{
			Path:     ".",
			Category: finding.CategoryFilesystem,
			Severity: finding.SeverityWarning,
			Message: fmt.Sprintf("allocation unit is %d bytes; %d bytes is recommended for large libraries",
				info.ClusterBytes, set.ClusterSizeBytes),
			Measured: info.ClusterBytes,
			Limit:    set.ClusterSizeBytes,
		})
	}

	switch info.PartitionScheme {
	case "dos", "mbr":
		out = append(out, finding.Finding{
			Path:     ".",
			Category: finding.CategoryFilesystem,
			Severity: finding.SeverityInfo,
			Message:  "MBR partition table detected",
		})
	case "gpt":
		out = append(out, finding.Finding{
			Path:     ".",
			Category: finding.CategoryFilesystem,
			Severity: finding.SeverityError,
			Message:  "GPT partition table; the head unit only reads MBR drives",
		})
	case "":
		// Unpartitioned media or no udev data; nothing to report.
	}

	return out
}
