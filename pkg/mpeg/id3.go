package mpeg

import "strconv"

// ID3v2 header layout: "ID3", version (2 bytes), flags (1 byte), syncsafe
// size (4 bytes). The size excludes the 10-byte header and the optional
// 10-byte footer.
const id3HeaderLen = 10

// id3v2TagSize returns the total byte size of a leading ID3v2 tag, including
// header and footer, or 0 when data does not start with one.
func id3v2TagSize(data []byte) int {
	if len(data) < id3HeaderLen || data[0] != 'I' || data[1] != 'D' || data[2] != '3' {
		return 0
	}
	size := syncsafe(data[6:10])
	total := id3HeaderLen + size
	if data[5]&0x10 != 0 {
		// Footer present flag doubles the header overhead.
		total += id3HeaderLen
	}
	if total > len(data) {
		// Truncated tag; treat the whole buffer as tag so the frame scanner
		// does not misread tag payload as audio.
		return len(data)
	}
	return total
}

// syncsafe decodes a 4-byte syncsafe integer (7 bits per byte).
func syncsafe(b []byte) int {
	return int(b[0]&0x7F)<<21 | int(b[1]&0x7F)<<14 | int(b[2]&0x7F)<<7 | int(b[3]&0x7F)
}

func putSyncsafe(b []byte, v int) {
	b[0] = byte(v >> 21 & 0x7F)
	b[1] = byte(v >> 14 & 0x7F)
	b[2] = byte(v >> 7 & 0x7F)
	b[3] = byte(v & 0x7F)
}

// WriteTotalDuration rewrites the container-level duration metadata of an
// MPEG stream. Any existing leading ID3v2 tag is stripped and a minimal
// ID3v2.3 tag carrying a single TLEN frame (track length in milliseconds)
// is prepended.
//
// Stitched streams need this: players derive total length from the first
// segment's metadata, which only covers that segment. The returned slice is
// freshly allocated; the input is not modified.
func WriteTotalDuration(data []byte, totalMs int64) []byte {
	audio := data[id3v2TagSize(data):]

	value := strconv.FormatInt(totalMs, 10)
	// TLEN frame: 10-byte frame header + 1 encoding byte + digits.
	frameSize := 1 + len(value)
	tagSize := id3HeaderLen + frameSize

	tag := make([]byte, 0, id3HeaderLen+tagSize+len(audio))
	tag = append(tag, 'I', 'D', '3', 0x03, 0x00, 0x00)
	var size [4]byte
	putSyncsafe(size[:], tagSize)
	tag = append(tag, size[:]...)

	tag = append(tag, 'T', 'L', 'E', 'N')
	// ID3v2.3 frame sizes are plain big-endian, not syncsafe.
	tag = append(tag, byte(frameSize>>24), byte(frameSize>>16), byte(frameSize>>8), byte(frameSize))
	tag = append(tag, 0x00, 0x00) // frame flags
	tag = append(tag, 0x00)       // ISO-8859-1 text encoding
	tag = append(tag, value...)

	return append(tag, audio...)
}

// ReadTotalDuration extracts the TLEN value from a leading ID3v2.3 tag.
// Returns false when the stream has no tag or the tag carries no parseable
// TLEN frame.
func ReadTotalDuration(data []byte) (int64, bool) {
	tagSize := id3v2TagSize(data)
	if tagSize == 0 {
		return 0, false
	}

	i := id3HeaderLen
	for i+id3HeaderLen <= tagSize {
		frameID := string(data[i : i+4])
		frameSize := int(data[i+4])<<24 | int(data[i+5])<<16 | int(data[i+6])<<8 | int(data[i+7])
		if frameSize <= 0 || i+id3HeaderLen+frameSize > tagSize {
			return 0, false
		}
		body := data[i+id3HeaderLen : i+id3HeaderLen+frameSize]
		if frameID == "TLEN" && len(body) > 1 {
			ms, err := strconv.ParseInt(string(body[1:]), 10, 64)
			if err != nil {
				return 0, false
			}
			return ms, true
		}
		i += id3HeaderLen + frameSize
	}
	return 0, false
}
