package probe

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dhowden/tag"
)

// readMP4 handles the MP4 container family (.m4a, .m4b, and MP4-wrapped
// .aac). Sample rate and duration come from the sound track's media header;
// bitrate is derived from the file size because MP4 rarely records a nominal
// rate the head unit would honor.
func readMP4(f *os.File, size int64) (Metadata, error) {
	md := Metadata{Mode: EncodingUnknown}

	// Tags are optional in this family; their absence is not a probe failure
	// and raises no finding.
	if m, err := tag.ReadFrom(f); err == nil {
		if m.FileType() == tag.M4P {
			md.DRM = true
		}
		if pic := m.Picture(); pic != nil {
			md.ArtworkBytes = len(pic.Data)
		}
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Metadata{}, fmt.Errorf("mp4: seek: %w", err)
	}
	track, brand, err := parseMP4(f, size)
	if err != nil {
		return Metadata{}, err
	}
	if brand == "M4P " {
		// iTunes FairPlay brand marks DRM even when the tag reader bails.
		md.DRM = true
	}
	if track.timescale == 0 {
		return Metadata{}, errors.New("mp4: no audio track media header found")
	}

	md.SampleRateHz = int(track.timescale)
	if seconds := float64(track.duration) / float64(track.timescale); seconds > 0 {
		md.BitrateKbps = int(float64(size)*8/seconds/1000 + 0.5)
	}
	return md, nil
}

type mp4Track struct {
	timescale uint32
	duration  uint64
}

// parseMP4 walks the box tree for the first 'soun' track's mdhd and the ftyp
// major brand.
func parseMP4(f *os.File, size int64) (mp4Track, string, error) {
	var track mp4Track
	var brand string
	sawBox := false

	err := walkBoxes(f, 0, size, func(boxType string, start, length int64) error {
		sawBox = true
		switch boxType {
		case "ftyp":
			b, err := readBoxPayload(f, start, length, 4)
			if err != nil {
				return err
			}
			if len(b) == 4 {
				brand = string(b)
			}
		case "moov":
			return walkBoxes(f, start, start+length, func(boxType string, start, length int64) error {
				if boxType != "trak" {
					return nil
				}
				if track.timescale != 0 {
					return nil
				}
				t, err := parseTrak(f, start, start+length)
				if err != nil {
					return err
				}
				if t.timescale != 0 {
					track = t
				}
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return mp4Track{}, "", err
	}
	if !sawBox {
		return mp4Track{}, "", errors.New("mp4: no boxes found")
	}
	return track, brand, nil
}

func parseTrak(f *os.File, start, end int64) (mp4Track, error) {
	var track mp4Track
	err := walkBoxes(f, start, end, func(boxType string, start, length int64) error {
		if boxType != "mdia" {
			return nil
		}
		var timescale uint32
		var duration uint64
		isSound := false

		if err := walkBoxes(f, start, start+length, func(boxType string, start, length int64) error {
			switch boxType {
			case "hdlr":
				b, err := readBoxPayload(f, start, length, 12)
				if err != nil {
					return err
				}
				isSound = len(b) >= 12 && string(b[8:12]) == "soun"
			case "mdhd":
				b, err := readBoxPayload(f, start, length, 32)
				if err != nil {
					return err
				}
				if len(b) == 0 {
					return nil
				}
				switch b[0] {
				case 0:
					if len(b) >= 20 {
						timescale = binary.BigEndian.Uint32(b[12:16])
						duration = uint64(binary.BigEndian.Uint32(b[16:20]))
					}
				case 1:
					if len(b) >= 32 {
						timescale = binary.BigEndian.Uint32(b[20:24])
						duration = binary.BigEndian.Uint64(b[24:32])
					}
				}
			}
			return nil
		}); err != nil {
			return err
		}

		if isSound && timescale != 0 && track.timescale == 0 {
			track = mp4Track{timescale: timescale, duration: duration}
		}
		return nil
	})
	return track, err
}

// walkBoxes iterates the boxes between start and end, invoking fn with each
// box's payload offset and length.
func walkBoxes(f *os.File, start, end int64, fn func(boxType string, start, length int64) error) error {
	offset := start
	for offset+8 <= end {
		var header [8]byte
		if _, err := f.ReadAt(header[:], offset); err != nil {
			return fmt.Errorf("mp4: read box header at %d: %w", offset, err)
		}
		boxSize := int64(binary.BigEndian.Uint32(header[:4]))
		boxType := string(header[4:8])
		headerLen := int64(8)

		switch boxSize {
		case 0:
			boxSize = end - offset
		case 1:
			var large [8]byte
			if _, err := f.ReadAt(large[:], offset+8); err != nil {
				return fmt.Errorf("mp4: read large box size: %w", err)
			}
			boxSize = int64(binary.BigEndian.Uint64(large[:]))
			headerLen = 16
		}
		if boxSize < headerLen || offset+boxSize > end {
			return fmt.Errorf("mp4: corrupt box %q at %d", boxType, offset)
		}
		if err := fn(boxType, offset+headerLen, boxSize-headerLen); err != nil {
			return err
		}
		offset += boxSize
	}
	return nil
}

// readBoxPayload reads up to max bytes of a box payload. Callers check the
// returned length against what their box version actually needs.
func readBoxPayload(f *os.File, start, length, max int64) ([]byte, error) {
	if length > max {
		length = max
	}
	b := make([]byte, length)
	if _, err := f.ReadAt(b, start); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("mp4: read box payload: %w", err)
	}
	return b, nil
}
