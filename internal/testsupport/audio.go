package testsupport

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// MP3Options shapes a synthetic MP3 file.
type MP3Options struct {
	// ID3Minor is the ID3v2 minor version (3 or 4). Zero omits the v2 tag.
	ID3Minor byte
	// ID3v1 appends a trailing ID3v1 block.
	ID3v1 bool
	// ArtworkBytes embeds an APIC frame whose image payload has this size.
	ArtworkBytes int
	// FrameHeader overrides the MPEG frame header; zero value selects
	// MPEG1 Layer III, 128 kbps, 44100 Hz, stereo.
	FrameHeader [4]byte
	// VBR writes a Xing block into the first frame; VBRFrames optionally
	// records a frame count so the probe can average the bitrate. Without
	// VBR an "Info" block marks the file as CBR.
	VBR       bool
	VBRFrames uint32
	// Frames is the number of audio frames to emit (default 4).
	Frames int
}

// DefaultMP3FrameHeader is MPEG1 Layer III, 128 kbps, 44100 Hz, stereo.
var DefaultMP3FrameHeader = [4]byte{0xFF, 0xFB, 0x90, 0x00}

// MP3FrameHeader144Kbps is MPEG2 Layer III at the head unit's explicitly
// unsupported 144 kbps (22050 Hz, stereo).
var MP3FrameHeader144Kbps = [4]byte{0xFF, 0xF3, 0xD0, 0x00}

// MP3Bytes renders a minimal but structurally valid MP3 file.
func MP3Bytes(opts MP3Options) []byte {
	var out bytes.Buffer

	if opts.ID3Minor != 0 {
		out.Write(id3v2Bytes(opts.ID3Minor, opts.ArtworkBytes))
	}

	header := opts.FrameHeader
	if header == ([4]byte{}) {
		header = DefaultMP3FrameHeader
	}
	frames := opts.Frames
	if frames <= 0 {
		frames = 4
	}

	frameLen := 417 // 128 kbps at 44100 Hz
	for i := 0; i < frames; i++ {
		frame := make([]byte, frameLen)
		copy(frame, header[:])
		if i == 0 {
			// Xing/Info sits after the 32-byte stereo side info.
			at := 4 + 32
			switch {
			case opts.VBR:
				copy(frame[at:], "Xing")
				if opts.VBRFrames > 0 {
					binary.BigEndian.PutUint32(frame[at+4:], 0x1)
					binary.BigEndian.PutUint32(frame[at+8:], opts.VBRFrames)
				}
			default:
				copy(frame[at:], "Info")
			}
		}
		out.Write(frame)
	}

	if opts.ID3v1 {
		v1 := make([]byte, 128)
		copy(v1, "TAG")
		copy(v1[3:], "Synthetic Title")
		out.Write(v1)
	}
	return out.Bytes()
}

// WriteMP3 writes a synthetic MP3 to path.
func WriteMP3(t testing.TB, path string, opts MP3Options) {
	t.Helper()
	WriteBytes(t, path, MP3Bytes(opts))
}

func id3v2Bytes(minor byte, artworkBytes int) []byte {
	var frames bytes.Buffer
	frames.Write(id3Frame("TIT2", append([]byte{0x00}, []byte("Test Title")...)))
	if artworkBytes > 0 {
		payload := bytes.NewBuffer([]byte{0x00})
		payload.WriteString("image/jpeg")
		payload.WriteByte(0x00)
		payload.WriteByte(0x03) // front cover
		payload.WriteByte(0x00) // empty description
		// JPEG magic keeps readers from folding leading image zeros into
		// the description terminator.
		image := make([]byte, artworkBytes)
		copy(image, []byte{0xFF, 0xD8, 0xFF, 0xE0})
		payload.Write(image)
		frames.Write(id3Frame("APIC", payload.Bytes()))
	}

	header := make([]byte, 10)
	copy(header, "ID3")
	header[3] = minor
	putSyncsafe(header[6:10], uint32(frames.Len()))
	return append(header, frames.Bytes()...)
}

func id3Frame(id string, payload []byte) []byte {
	frame := make([]byte, 10+len(payload))
	copy(frame, id)
	binary.BigEndian.PutUint32(frame[4:8], uint32(len(payload)))
	copy(frame[10:], payload)
	return frame
}

func putSyncsafe(dst []byte, v uint32) {
	dst[0] = byte(v >> 21 & 0x7F)
	dst[1] = byte(v >> 14 & 0x7F)
	dst[2] = byte(v >> 7 & 0x7F)
	dst[3] = byte(v & 0x7F)
}

// WMAOptions shapes a synthetic ASF/WMA file.
type WMAOptions struct {
	SampleRateHz   uint32
	AvgBytesPerSec uint32
	MaxBitrateBps  uint32
	DRM            bool
}

// WMABytes renders a minimal ASF header with file and stream properties
// objects, optionally followed by a content encryption object.
func WMABytes(opts WMAOptions) []byte {
	if opts.SampleRateHz == 0 {
		opts.SampleRateHz = 44100
	}
	if opts.AvgBytesPerSec == 0 {
		opts.AvgBytesPerSec = 16000 // 128 kbps
	}

	fileProps := make([]byte, 80)
	binary.LittleEndian.PutUint32(fileProps[76:80], opts.MaxBitrateBps)

	streamProps := make([]byte, 54+18)
	copy(streamProps[:16], asfAudioMediaGUID)
	binary.LittleEndian.PutUint32(streamProps[40:44], 18) // WAVEFORMATEX length
	wave := streamProps[54:]
	binary.LittleEndian.PutUint16(wave[0:2], 0x0161) // WMA v2
	binary.LittleEndian.PutUint16(wave[2:4], 2)
	binary.LittleEndian.PutUint32(wave[4:8], opts.SampleRateHz)
	binary.LittleEndian.PutUint32(wave[8:12], opts.AvgBytesPerSec)

	objects := [][]byte{
		asfObject(asfFilePropertiesGUID, fileProps),
		asfObject(asfStreamPropertiesGUID, streamProps),
	}
	if opts.DRM {
		objects = append(objects, asfObject(asfContentEncryptionGUID, make([]byte, 8)))
	}

	var body bytes.Buffer
	for _, obj := range objects {
		body.Write(obj)
	}

	header := make([]byte, 30)
	copy(header[:16], asfHeaderGUID)
	binary.LittleEndian.PutUint64(header[16:24], uint64(30+body.Len()))
	binary.LittleEndian.PutUint32(header[24:28], uint32(len(objects)))
	header[28] = 0x01
	header[29] = 0x02
	return append(header, body.Bytes()...)
}

// WriteWMA writes a synthetic WMA to path.
func WriteWMA(t testing.TB, path string, opts WMAOptions) {
	t.Helper()
	WriteBytes(t, path, WMABytes(opts))
}

func asfObject(guid []byte, payload []byte) []byte {
	obj := make([]byte, 24+len(payload))
	copy(obj[:16], guid)
	binary.LittleEndian.PutUint64(obj[16:24], uint64(24+len(payload)))
	copy(obj[24:], payload)
	return obj
}

var (
	asfHeaderGUID = []byte{
		0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11,
		0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C,
	}
	asfFilePropertiesGUID = []byte{
		0xA1, 0xDC, 0xAB, 0x8C, 0x47, 0xA9, 0xCF, 0x11,
		0x8E, 0xE4, 0x00, 0xC0, 0x0C, 0x20, 0x53, 0x65,
	}
	asfStreamPropertiesGUID = []byte{
		0x91, 0x07, 0xDC, 0xB7, 0xB7, 0xA9, 0xCF, 0x11,
		0x8E, 0xE6, 0x00, 0xC0, 0x0C, 0x20, 0x53, 0x65,
	}
	asfContentEncryptionGUID = []byte{
		0xFB, 0xB3, 0x11, 0x22, 0x23, 0xBD, 0xD2, 0x11,
		0xB4, 0xB7, 0x00, 0xA0, 0xC9, 0x55, 0xFC, 0x6E,
	}
	asfAudioMediaGUID = []byte{
		0x40, 0x9E, 0x69, 0xF8, 0x4D, 0x5B, 0xCF, 0x11,
		0xA8, 0xFD, 0x00, 0x80, 0x5F, 0x5C, 0x44, 0x2B,
	}
)

// MP4Options shapes a synthetic MP4-family file.
type MP4Options struct {
	// Brand is the ftyp major brand (default "M4A ").
	Brand string
	// SampleRateHz becomes the sound track's mdhd timescale.
	SampleRateHz uint32
	// DurationSeconds sizes the mdhd duration (default 10).
	DurationSeconds uint32
	// PadBytes appends an mdat box of this size so bitrate math has mass.
	PadBytes int
}

// MP4Bytes renders an ftyp + moov/trak/mdia tree with a sound handler and a
// version-0 media header, followed by an mdat box.
func MP4Bytes(opts MP4Options) []byte {
	if opts.Brand == "" {
		opts.Brand = "M4A "
	}
	if opts.SampleRateHz == 0 {
		opts.SampleRateHz = 44100
	}
	if opts.DurationSeconds == 0 {
		opts.DurationSeconds = 10
	}

	hdlr := make([]byte, 24)
	copy(hdlr[8:12], "soun")

	mdhd := make([]byte, 24)
	binary.BigEndian.PutUint32(mdhd[12:16], opts.SampleRateHz)
	binary.BigEndian.PutUint32(mdhd[16:20], opts.SampleRateHz*opts.DurationSeconds)

	mdia := mp4Box("mdia", append(mp4Box("hdlr", hdlr), mp4Box("mdhd", mdhd)...))
	moov := mp4Box("moov", mp4Box("trak", mdia))

	ftypPayload := append([]byte(opts.Brand), []byte("\x00\x00\x02\x00isomiso2")...)

	var out bytes.Buffer
	out.Write(mp4Box("ftyp", ftypPayload))
	out.Write(moov)
	out.Write(mp4Box("mdat", make([]byte, opts.PadBytes)))
	return out.Bytes()
}

// WriteMP4 writes a synthetic MP4 to path.
func WriteMP4(t testing.TB, path string, opts MP4Options) {
	t.Helper()
	WriteBytes(t, path, MP4Bytes(opts))
}

func mp4Box(boxType string, payload []byte) []byte {
	box := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint32(box[:4], uint32(8+len(payload)))
	copy(box[4:8], boxType)
	copy(box[8:], payload)
	return box
}
