package rules

import "strings"

// Device limits published for the 2012 Volvo XC70 base stereo.
const (
	defaultMaxTotalFiles     = 15000
	defaultMaxRootFolders    = 1000
	defaultMaxFilesPerFolder = 254
	defaultMaxNestingDepth   = 8
	defaultMaxPathLength     = 60
	defaultMaxFilenameLength = 64

	defaultForbiddenBitrateKbps = 144
	defaultMinBitrateKbps       = 32
	defaultMaxBitrateKbps       = 320

	// The head unit renders artwork up to 500x500. The byte threshold is the
	// original tool's width*height*3 estimate applied to the raw embedded
	// image; it deliberately does not decode the image.
	defaultMaxArtworkBytes = 500 * 500 * 3

	defaultClusterSizeBytes = 32 * 1024
)

// defaultUnsafeCharacters lists the extended-ASCII characters the head unit
// display mangles. Mirrors the replacement table used by the downstream
// filename fixer.
const defaultUnsafeCharacters = "éèêëáàâäãåæíìîïóòôöõøœúùûüñçÿ¿¡«»°±²³µ¶·¸¹º¼½¾×÷"

// Set is the immutable constraint table one scan runs against.
type Set struct {
	MaxTotalFiles     int
	MaxRootFolders    int
	MaxFilesPerFolder int
	MaxNestingDepth   int
	MaxPathLength     int
	MaxFilenameLength int

	// Extensions are lower case and include the leading dot. Files whose
	// extension appears in neither set are ignored as non-audio content.
	SupportedExtensions   []string
	UnsupportedExtensions []string

	ForbiddenBitrateKbps int
	MinBitrateKbps       int
	MaxBitrateKbps       int
	ValidSampleRates     []int

	MaxArtworkBytes int

	// UnsafeCharacters are rejected anywhere in a relative path.
	UnsafeCharacters string

	// ClusterSizeBytes is the recommended FAT32 allocation unit.
	ClusterSizeBytes int64
}

// Default returns the published device limits.
func Default() Set {
	return Set{
		MaxTotalFiles:         defaultMaxTotalFiles,
		MaxRootFolders:        defaultMaxRootFolders,
		MaxFilesPerFolder:     defaultMaxFilesPerFolder,
		MaxNestingDepth:       defaultMaxNestingDepth,
		MaxPathLength:         defaultMaxPathLength,
		MaxFilenameLength:     defaultMaxFilenameLength,
		SupportedExtensions:   []string{".mp3", ".wma", ".aac", ".m4a", ".m4b"},
		UnsupportedExtensions: []string{".flac", ".ogg", ".wav", ".ape", ".alac"},
		ForbiddenBitrateKbps:  defaultForbiddenBitrateKbps,
		MinBitrateKbps:        defaultMinBitrateKbps,
		MaxBitrateKbps:        defaultMaxBitrateKbps,
		ValidSampleRates:      []int{32000, 44100, 48000},
		MaxArtworkBytes:       defaultMaxArtworkBytes,
		UnsafeCharacters:      defaultUnsafeCharacters,
		ClusterSizeBytes:      defaultClusterSizeBytes,
	}
}

// Supported reports whether ext names a playable container. The comparison is
// case-insensitive and tolerates a missing leading dot.
func (s Set) Supported(ext string) bool {
	return containsExt(s.SupportedExtensions, ext)
}

// Unsupported reports whether ext names a container the head unit rejects
// outright.
func (s Set) Unsupported(ext string) bool {
	return containsExt(s.UnsupportedExtensions, ext)
}

// ValidSampleRate reports whether hz is one of the accepted discrete rates.
func (s Set) ValidSampleRate(hz int) bool {
	for _, rate := range s.ValidSampleRates {
		if rate == hz {
			return true
		}
	}
	return false
}

// UnsafeRune reports whether r belongs to the configured unsafe set.
func (s Set) UnsafeRune(r rune) bool {
	return strings.ContainsRune(s.UnsafeCharacters, r)
}

func containsExt(exts []string, ext string) bool {
	normalized := strings.ToLower(strings.TrimSpace(ext))
	if normalized != "" && !strings.HasPrefix(normalized, ".") {
		normalized = "." + normalized
	}
	for _, candidate := range exts {
		if candidate == normalized {
			return true
		}
	}
	return false
}
