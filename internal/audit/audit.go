package audit

import (
	"fmt"

	"github.com/jadnhm/volvo-usb-verifier/internal/finding"
	"github.com/jadnhm/volvo-usb-verifier/internal/probe"
	"github.com/jadnhm/volvo-usb-verifier/internal/rules"
	"github.com/jadnhm/volvo-usb-verifier/internal/structure"
)

// File probes one supported audio file and evaluates it. Probe failures
// become a single read-error finding; File itself never fails.
func File(entry structure.FileEntry, set rules.Set) []finding.Finding {
	md, err := probeFile(entry.Path)
	if err != nil {
		return []finding.Finding{{
			Path:     entry.RelPath,
			Category: finding.CategoryReadError,
			Severity: finding.SeverityError,
			Message:  fmt.Sprintf("cannot parse audio data: %v", err),
		}}
	}
	return Evaluate(entry, md, set)
}

// probeFile contains parser faults: a panic on malformed input surfaces as
// an error like any other probe failure instead of killing a scan worker.
func probeFile(path string) (md probe.Metadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser fault: %v", r)
		}
	}()
	return probe.File(path)
}

// Evaluate applies the rule table to already-probed metadata. Zero-valued
// optional fields mean the container did not expose the measurement and
// produce no finding.
func Evaluate(entry structure.FileEntry, md probe.Metadata, set rules.Set) []finding.Finding {
	var out []finding.Finding

	if md.BitrateKbps != 0 {
		switch {
		case md.BitrateKbps == set.ForbiddenBitrateKbps:
			out = append(out, finding.Finding{
				Path:     entry.RelPath,
				Category: finding.CategoryBitrate,
				Severity: finding.SeverityError,
				Message:  fmt.Sprintf("bitrate %d kbps is not playable", md.BitrateKbps),
				Measured: int64(md.BitrateKbps),
				Limit:    int64(set.ForbiddenBitrateKbps),
			})
		case md.BitrateKbps < set.MinBitrateKbps:
			out = append(out, finding.Finding{
				Path:     entry.RelPath,
				Category: finding.CategoryBitrate,
				Severity: finding.SeverityWarning,
				Message:  fmt.Sprintf("bitrate %d kbps is below %d kbps", md.BitrateKbps, set.MinBitrateKbps),
				Measured: int64(md.BitrateKbps),
				Limit:    int64(set.MinBitrateKbps),
			})
		case md.BitrateKbps > set.MaxBitrateKbps:
			out = append(out, finding.Finding{
				Path:     entry.RelPath,
				Category: finding.CategoryBitrate,
				Severity: finding.SeverityWarning,
				Message:  fmt.Sprintf("bitrate %d kbps is above %d kbps", md.BitrateKbps, set.MaxBitrateKbps),
				Measured: int64(md.BitrateKbps),
				Limit:    int64(set.MaxBitrateKbps),
			})
		}
	}

	if md.SampleRateHz != 0 && !set.ValidSampleRate(md.SampleRateHz) {
		out = append(out, finding.Finding{
			Path:     entry.RelPath,
			Category: finding.CategorySampleRate,
			Severity: finding.SeverityWarning,
			Message:  fmt.Sprintf("sample rate %d Hz is not supported", md.SampleRateHz),
			Measured: int64(md.SampleRateHz),
		})
	}

	if md.Mode == probe.EncodingVariable {
		out = append(out, finding.Finding{
			Path:     entry.RelPath,
			Category: finding.CategoryEncoding,
			Severity: finding.SeverityWarning,
			Message:  "variable bitrate encoding; playback position display may drift",
		})
	}

	out = append(out, tagFindings(entry, md)...)

	if md.ArtworkBytes > set.MaxArtworkBytes {
		out = append(out, finding.Finding{
			Path:     entry.RelPath,
			Category: finding.CategoryAlbumArt,
			Severity: finding.SeverityWarning,
			Message:  fmt.Sprintf("embedded artwork is %d bytes (estimate threshold %d)", md.ArtworkBytes, set.MaxArtworkBytes),
			Measured: int64(md.ArtworkBytes),
			Limit:    int64(set.MaxArtworkBytes),
		})
	}

	if md.DRM {
		out = append(out, finding.Finding{
			Path:     entry.RelPath,
			Category: finding.CategoryDRM,
			Severity: finding.SeverityError,
			Message:  "copy-protected content; the head unit refuses DRM files",
		})
	}

	return out
}

// tagFindings applies the ID3 compatibility table: 2.3 and 1.x are the
// preferred versions, 2.4 draws a compatibility recommendation, anything
// else is flagged as unusual, and a container that should carry a tag but
// does not draws a warning.
func tagFindings(entry structure.FileEntry, md probe.Metadata) []finding.Finding {
	if md.TagVersion == nil {
		if !md.TagMissing {
			return nil
		}
		return []finding.Finding{{
			Path:     entry.RelPath,
			Category: finding.CategoryTagVersion,
			Severity: finding.SeverityWarning,
			Message:  "no ID3 tag; track will display as its filename",
		}}
	}

	v := *md.TagVersion
	switch {
	case v.Major == 1:
		return nil
	case v.Major == 2 && v.Minor == 3:
		return nil
	case v.Major == 2 && v.Minor == 4:
		return []finding.Finding{{
			Path:     entry.RelPath,
			Category: finding.CategoryTagVersion,
			Severity: finding.SeverityWarning,
			Message:  "ID3v2.4 tag; older head unit firmware reads v2.3 more reliably",
		}}
	default:
		return []finding.Finding{{
			Path:     entry.RelPath,
			Category: finding.CategoryTagVersion,
			Severity: finding.SeverityWarning,
			Message:  fmt.Sprintf("unusual tag version %s", v),
		}}
	}
}
