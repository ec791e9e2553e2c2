package probe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EncodingMode classifies how the audio stream allocates bits.
type EncodingMode int

const (
	EncodingUnknown EncodingMode = iota
	EncodingConstant
	EncodingVariable
)

// String returns a lower-case label for logs and messages.
func (m EncodingMode) String() string {
	switch m {
	case EncodingConstant:
		return "cbr"
	case EncodingVariable:
		return "vbr"
	default:
		return "unknown"
	}
}

// TagVersion identifies an ID3 tag revision.
type TagVersion struct {
	Major int
	Minor int
}

// String renders the conventional "ID3vX.Y" spelling.
func (v TagVersion) String() string {
	if v.Major == 1 {
		return "ID3v1"
	}
	return fmt.Sprintf("ID3v%d.%d", v.Major, v.Minor)
}

// Metadata is the per-file snapshot the auditor evaluates. Fields a
// container cannot express stay at their zero value: a WMA file has no
// TagVersion and that is not a defect.
type Metadata struct {
	// BitrateKbps is zero when the container did not reveal a bitrate.
	BitrateKbps int
	// SampleRateHz is zero when unknown.
	SampleRateHz int
	Mode         EncodingMode
	// TagVersion is nil when the file carries no ID3 tag or the container
	// has no ID3 concept. TagMissing is set only in the former case, for
	// containers where a tag was expected but absent.
	TagVersion *TagVersion
	TagMissing bool
	// ArtworkBytes is the raw byte length of the largest embedded image,
	// zero when there is none.
	ArtworkBytes int
	// DRM marks copy-protected content the head unit refuses to play.
	DRM bool
}

// ErrUnknownContainer is returned for extensions outside the probe's closed
// variant set.
var ErrUnknownContainer = errors.New("probe: unknown container type")

// Supports reports whether File can probe a file with the given extension.
func Supports(ext string) bool {
	_, ok := readerFor(ext)
	return ok
}

// File probes path, selecting the container reader from the extension
// (case-insensitive). The returned error describes why the file could not be
// parsed; callers surface it as a finding rather than propagating it.
func File(path string) (Metadata, error) {
	reader, ok := readerFor(filepath.Ext(path))
	if !ok {
		return Metadata{}, fmt.Errorf("%w: %s", ErrUnknownContainer, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Metadata{}, fmt.Errorf("stat: %w", err)
	}

	md, err := reader(f, info.Size())
	if err != nil {
		return Metadata{}, err
	}
	return md, nil
}

type containerReader func(f *os.File, size int64) (Metadata, error)

func readerFor(ext string) (containerReader, bool) {
	switch strings.ToLower(strings.TrimSpace(ext)) {
	case ".mp3":
		return readMP3, true
	case ".wma":
		return readASF, true
	case ".aac", ".m4a", ".m4b":
		return readMP4, true
	default:
		return nil, false
	}
}
