package probe

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dhowden/tag"
)

// syncScanWindow bounds how far past the ID3 tag we look for the first MPEG
// frame. Files with more leading junk than this are treated as unreadable.
const syncScanWindow = 128 * 1024

func readMP3(f *os.File, size int64) (Metadata, error) {
	md := Metadata{Mode: EncodingUnknown}

	readMP3Tags(f, &md)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Metadata{}, fmt.Errorf("seek: %w", err)
	}
	audioStart, err := skipID3v2(f)
	if err != nil {
		return Metadata{}, err
	}

	frame, frameOffset, err := findFirstFrame(f, audioStart)
	if err != nil {
		return Metadata{}, err
	}
	md.SampleRateHz = frame.sampleRate

	audioBytes := size - frameOffset
	if md.TagVersion != nil && md.TagVersion.Major == 1 {
		audioBytes -= 128
	}

	xing, err := readXingHeader(f, frameOffset, frame)
	if err != nil {
		return Metadata{}, err
	}
	switch {
	case xing != nil && xing.vbr:
		md.Mode = EncodingVariable
		md.BitrateKbps = xing.averageKbps(frame, audioBytes)
		if md.BitrateKbps == 0 {
			md.BitrateKbps = frame.bitrateKbps
		}
	case xing != nil:
		// An "Info" block marks a CBR file written by a Xing-aware encoder.
		md.Mode = EncodingConstant
		md.BitrateKbps = frame.bitrateKbps
	default:
		md.Mode = EncodingConstant
		md.BitrateKbps = frame.bitrateKbps
	}

	return md, nil
}

// readMP3Tags fills in tag version and artwork size. Tag trouble never fails
// the probe; a file with a corrupt or absent tag still has auditable frames.
func readMP3Tags(f *os.File, md *Metadata) {
	if m, err := tag.ReadFrom(f); err == nil {
		md.TagVersion = id3Version(m.Format())
		if pic := m.Picture(); pic != nil {
			md.ArtworkBytes = len(pic.Data)
		}
	}
	if md.TagVersion == nil {
		// No v2 tag; a bare ID3v1 block may still sit at the end.
		if _, err := f.Seek(0, io.SeekStart); err == nil {
			if _, err := tag.ReadID3v1Tags(f); err == nil {
				md.TagVersion = &TagVersion{Major: 1}
			}
		}
	}
	md.TagMissing = md.TagVersion == nil
}

func id3Version(format tag.Format) *TagVersion {
	switch format {
	case tag.ID3v1:
		return &TagVersion{Major: 1}
	case tag.ID3v2_2:
		return &TagVersion{Major: 2, Minor: 2}
	case tag.ID3v2_3:
		return &TagVersion{Major: 2, Minor: 3}
	case tag.ID3v2_4:
		return &TagVersion{Major: 2, Minor: 4}
	default:
		return nil
	}
}

// skipID3v2 returns the offset of the first byte after any ID3v2 tag. The
// reader is positioned at the start of the file.
func skipID3v2(f *os.File) (int64, error) {
	header := make([]byte, 10)
	n, err := io.ReadFull(f, header)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("mp3: file truncated after %d bytes", n)
		}
		return 0, fmt.Errorf("mp3: read header: %w", err)
	}
	if !bytes.Equal(header[:3], []byte("ID3")) {
		return 0, nil
	}
	tagSize := int64(syncsafe(header[6:10]))
	offset := 10 + tagSize
	if header[5]&0x10 != 0 { // footer present
		offset += 10
	}
	return offset, nil
}

func syncsafe(b []byte) uint32 {
	return uint32(b[0]&0x7F)<<21 | uint32(b[1]&0x7F)<<14 | uint32(b[2]&0x7F)<<7 | uint32(b[3]&0x7F)
}

type mpegFrame struct {
	mpeg1       bool
	layer       int // 1, 2, or 3
	bitrateKbps int
	sampleRate  int
	mono        bool
}

func (fr mpegFrame) samplesPerFrame() int {
	switch fr.layer {
	case 1:
		return 384
	case 2:
		return 1152
	default:
		if fr.mpeg1 {
			return 1152
		}
		return 576
	}
}

// sideInfoBytes is the gap between an MPEG audio frame header and any Xing
// block embedded in the first frame.
func (fr mpegFrame) sideInfoBytes() int {
	switch {
	case fr.mpeg1 && fr.mono:
		return 17
	case fr.mpeg1:
		return 32
	case fr.mono:
		return 9
	default:
		return 17
	}
}

var (
	bitrateTableV1 = [4][16]int{
		1: {0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0},
		2: {0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0},
		3: {0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0},
	}
	bitrateTableV2 = [4][16]int{
		1: {0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0},
		2: {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
		3: {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
	}
	sampleRatesV1  = [3]int{44100, 48000, 32000}
	sampleRatesV2  = [3]int{22050, 24000, 16000}
	sampleRatesV25 = [3]int{11025, 12000, 8000}
)

func parseFrameHeader(b []byte) (mpegFrame, bool) {
	if len(b) < 4 || b[0] != 0xFF || b[1]&0xE0 != 0xE0 {
		return mpegFrame{}, false
	}
	versionBits := (b[1] >> 3) & 0x3
	layerBits := (b[1] >> 1) & 0x3
	bitrateIdx := b[2] >> 4
	sampleIdx := (b[2] >> 2) & 0x3
	channelMode := (b[3] >> 6) & 0x3

	if versionBits == 1 || layerBits == 0 || bitrateIdx == 0 || bitrateIdx == 15 || sampleIdx == 3 {
		return mpegFrame{}, false
	}

	frame := mpegFrame{
		mpeg1: versionBits == 3,
		layer: 4 - int(layerBits),
		mono:  channelMode == 3,
	}

	if frame.mpeg1 {
		frame.bitrateKbps = bitrateTableV1[frame.layer][bitrateIdx]
		frame.sampleRate = sampleRatesV1[sampleIdx]
	} else {
		frame.bitrateKbps = bitrateTableV2[frame.layer][bitrateIdx]
		if versionBits == 2 {
			frame.sampleRate = sampleRatesV2[sampleIdx]
		} else {
			frame.sampleRate = sampleRatesV25[sampleIdx]
		}
	}
	if frame.bitrateKbps == 0 || frame.sampleRate == 0 {
		return mpegFrame{}, false
	}
	return frame, true
}

func findFirstFrame(f *os.File, start int64) (mpegFrame, int64, error) {
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return mpegFrame{}, 0, fmt.Errorf("mp3: seek audio start: %w", err)
	}
	buf := make([]byte, syncScanWindow)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return mpegFrame{}, 0, fmt.Errorf("mp3: read audio data: %w", err)
	}
	buf = buf[:n]

	for i := 0; i+4 <= len(buf); i++ {
		if frame, ok := parseFrameHeader(buf[i : i+4]); ok {
			return frame, start + int64(i), nil
		}
	}
	return mpegFrame{}, 0, errors.New("mp3: no MPEG frame sync found")
}

type xingHeader struct {
	vbr    bool
	frames uint32
}

// averageKbps derives the average bitrate from the Xing frame count. Zero
// means the count was absent and the caller should fall back to the first
// frame's nominal rate.
func (x xingHeader) averageKbps(frame mpegFrame, audioBytes int64) int {
	if x.frames == 0 || frame.sampleRate == 0 || audioBytes <= 0 {
		return 0
	}
	seconds := float64(x.frames) * float64(frame.samplesPerFrame()) / float64(frame.sampleRate)
	if seconds <= 0 {
		return 0
	}
	return int(float64(audioBytes)*8/seconds/1000 + 0.5)
}

func readXingHeader(f *os.File, frameOffset int64, frame mpegFrame) (*xingHeader, error) {
	block := make([]byte, 4+32+16)
	if _, err := f.Seek(frameOffset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("mp3: seek frame: %w", err)
	}
	n, err := io.ReadFull(f, block)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("mp3: read first frame: %w", err)
	}
	block = block[:n]

	probeAt := func(offset int) []byte {
		if offset+8 > len(block) {
			return nil
		}
		return block[offset:]
	}

	at := 4 + frame.sideInfoBytes()
	if b := probeAt(at); b != nil {
		switch {
		case bytes.Equal(b[:4], []byte("Xing")):
			return parseXing(b, true), nil
		case bytes.Equal(b[:4], []byte("Info")):
			return parseXing(b, false), nil
		}
	}
	if b := probeAt(4 + 32); b != nil && bytes.Equal(b[:4], []byte("VBRI")) {
		return &xingHeader{vbr: true}, nil
	}
	return nil, nil
}

func parseXing(b []byte, vbr bool) *xingHeader {
	header := &xingHeader{vbr: vbr}
	if len(b) < 12 {
		return header
	}
	flags := binary.BigEndian.Uint32(b[4:8])
	if flags&0x1 != 0 {
		header.frames = binary.BigEndian.Uint32(b[8:12])
	}
	return header
}
