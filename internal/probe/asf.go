package probe

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ASF object GUIDs in their on-disk (mixed endian) byte order.
var (
	asfHeaderObject = [16]byte{
		0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11,
		0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C,
	}
	asfFileProperties = [16]byte{
		0xA1, 0xDC, 0xAB, 0x8C, 0x47, 0xA9, 0xCF, 0x11,
		0x8E, 0xE4, 0x00, 0xC0, 0x0C, 0x20, 0x53, 0x65,
	}
	asfStreamProperties = [16]byte{
		0x91, 0x07, 0xDC, 0xB7, 0xB7, 0xA9, 0xCF, 0x11,
		0x8E, 0xE6, 0x00, 0xC0, 0x0C, 0x20, 0x53, 0x65,
	}
	asfContentEncryption = [16]byte{
		0xFB, 0xB3, 0x11, 0x22, 0x23, 0xBD, 0xD2, 0x11,
		0xB4, 0xB7, 0x00, 0xA0, 0xC9, 0x55, 0xFC, 0x6E,
	}
	asfExtendedContentEncryption = [16]byte{
		0x14, 0xE6, 0x8A, 0x29, 0x22, 0x26, 0x17, 0x4C,
		0xB9, 0x35, 0xDA, 0xE0, 0x7E, 0xE9, 0x28, 0x9C,
	}
	asfAudioMedia = [16]byte{
		0x40, 0x9E, 0x69, 0xF8, 0x4D, 0x5B, 0xCF, 0x11,
		0xA8, 0xFD, 0x00, 0x80, 0x5F, 0x5C, 0x44, 0x2B,
	}
)

// readASF parses the WMA header objects. WMA exposes no ID3 tag version and
// the head unit ignores WMA artwork, so those Metadata fields stay absent.
func readASF(f *os.File, size int64) (Metadata, error) {
	md := Metadata{Mode: EncodingUnknown}

	var top [30]byte
	if _, err := io.ReadFull(f, top[:]); err != nil {
		return Metadata{}, fmt.Errorf("wma: read header: %w", err)
	}
	if [16]byte(top[:16]) != asfHeaderObject {
		return Metadata{}, errors.New("wma: not an ASF container")
	}
	objectCount := binary.LittleEndian.Uint32(top[24:28])

	var maxBitrateBps uint32
	remaining := size - int64(len(top))
	for i := uint32(0); i < objectCount; i++ {
		if remaining < 24 {
			return Metadata{}, errors.New("wma: truncated object header")
		}
		var objHeader [24]byte
		if _, err := io.ReadFull(f, objHeader[:]); err != nil {
			return Metadata{}, fmt.Errorf("wma: read object header: %w", err)
		}
		remaining -= 24
		objSize := binary.LittleEndian.Uint64(objHeader[16:24])
		// The declared size must fit within the bytes left in the file.
		if objSize < 24 || objSize-24 > uint64(remaining) {
			return Metadata{}, errors.New("wma: corrupt object size")
		}
		payload := make([]byte, objSize-24)
		if _, err := io.ReadFull(f, payload); err != nil {
			return Metadata{}, fmt.Errorf("wma: read object payload: %w", err)
		}
		remaining -= int64(len(payload))

		switch [16]byte(objHeader[:16]) {
		case asfFileProperties:
			if len(payload) >= 80 {
				maxBitrateBps = binary.LittleEndian.Uint32(payload[76:80])
			}
		case asfStreamProperties:
			parseASFStreamProperties(payload, &md)
		case asfContentEncryption, asfExtendedContentEncryption:
			md.DRM = true
		}
	}

	if md.BitrateKbps == 0 && maxBitrateBps > 0 {
		md.BitrateKbps = int(maxBitrateBps / 1000)
	}
	if md.BitrateKbps == 0 && md.SampleRateHz == 0 {
		return Metadata{}, errors.New("wma: no audio stream properties found")
	}
	return md, nil
}

func parseASFStreamProperties(payload []byte, md *Metadata) {
	// stream type (16) + error correction type (16) + time offset (8) +
	// type data length (4) + ec data length (4) + flags (2) + reserved (4)
	const fixed = 16 + 16 + 8 + 4 + 4 + 2 + 4
	if len(payload) < fixed {
		return
	}
	if [16]byte(payload[:16]) != asfAudioMedia {
		return
	}
	typeDataLen := binary.LittleEndian.Uint32(payload[40:44])
	typeData := payload[fixed:]
	if uint32(len(typeData)) < typeDataLen || typeDataLen < 16 {
		return
	}
	// WAVEFORMATEX: format tag (2) + channels (2) + samples/sec (4) +
	// avg bytes/sec (4) + block align (2) + bits/sample (2)
	md.SampleRateHz = int(binary.LittleEndian.Uint32(typeData[4:8]))
	avgBytesPerSec := binary.LittleEndian.Uint32(typeData[8:12])
	if avgBytesPerSec > 0 {
		md.BitrateKbps = int(avgBytesPerSec * 8 / 1000)
	}
}
