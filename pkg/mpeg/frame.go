// Package mpeg measures exact playback duration of MPEG audio streams by
// walking their frame structure. It is deliberately free of any decoding: the
// only outputs are per-frame sample counts and header geometry, which is all
// that is needed to know how long a stream plays for.
//
// The package operates on byte slices and keeps no state, so alternate
// container formats can be added alongside it by implementing the same
// Measure([]byte) Measurement contract.
package mpeg

// Version is the MPEG audio version encoded in a frame header.
type Version int

const (
	VersionReserved Version = iota
	Version1
	Version2
	Version25
)

// Layer is the MPEG audio layer encoded in a frame header.
type Layer int

const (
	LayerReserved Layer = iota
	LayerI
	LayerII
	LayerIII
)

// bitrate tables in kbit/s, indexed by the 4-bit bitrate field.
// Index 0 is "free format" and index 15 is invalid; both are zero here and
// rejected during header parsing.
var (
	bitratesV1L1 = [16]int{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0}
	bitratesV1L2 = [16]int{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0}
	bitratesV1L3 = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	bitratesV2L1 = [16]int{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0}
	bitratesV2L2 = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}
)

// sample rates in Hz, indexed by version then the 2-bit sample rate field.
var sampleRates = map[Version][3]int{
	Version1:  {44100, 48000, 32000},
	Version2:  {22050, 24000, 16000},
	Version25: {11025, 12000, 8000},
}

// FrameHeader is the decoded fixed header of one MPEG audio frame.
type FrameHeader struct {
	Version    Version
	Layer      Layer
	BitrateKbs int // kbit/s
	SampleRate int // Hz
	Padding    bool

	// SamplesPerFrame is fixed per version/layer combination and independent
	// of bitrate, which is what makes frame-walking work for VBR streams.
	SamplesPerFrame int

	// Length is the total frame size in bytes including the header.
	Length int
}

// ParseFrameHeader decodes the 4-byte frame header at the start of data.
// It returns false when data does not begin with a valid, sized frame:
// no sync marker, reserved version/layer, free-format or invalid bitrate,
// or a reserved sample rate.
func ParseFrameHeader(data []byte) (FrameHeader, bool) {
	if len(data) < 4 {
		return FrameHeader{}, false
	}
	// Frame sync: 11 set bits.
	if data[0] != 0xFF || data[1]&0xE0 != 0xE0 {
		return FrameHeader{}, false
	}

	var h FrameHeader

	switch (data[1] >> 3) & 0x03 {
	case 0x00:
		h.Version = Version25
	case 0x02:
		h.Version = Version2
	case 0x03:
		h.Version = Version1
	default:
		return FrameHeader{}, false
	}

	switch (data[1] >> 1) & 0x03 {
	case 0x01:
		h.Layer = LayerIII
	case 0x02:
		h.Layer = LayerII
	case 0x03:
		h.Layer = LayerI
	default:
		return FrameHeader{}, false
	}

	bitrateIdx := (data[2] >> 4) & 0x0F
	h.BitrateKbs = lookupBitrate(h.Version, h.Layer, bitrateIdx)
	if h.BitrateKbs == 0 {
		// Free-format (0) and invalid (15) bitrates have no computable
		// frame length, so the scanner cannot step over them.
		return FrameHeader{}, false
	}

	sampleIdx := (data[2] >> 2) & 0x03
	if sampleIdx == 0x03 {
		return FrameHeader{}, false
	}
	h.SampleRate = sampleRates[h.Version][sampleIdx]

	h.Padding = data[2]&0x02 != 0
	h.SamplesPerFrame = samplesPerFrame(h.Version, h.Layer)
	h.Length = frameLength(h)

	if h.Length <= 4 {
		return FrameHeader{}, false
	}
	return h, true
}

func lookupBitrate(v Version, l Layer, idx byte) int {
	if v == Version1 {
		switch l {
		case LayerI:
			return bitratesV1L1[idx]
		case LayerII:
			return bitratesV1L2[idx]
		case LayerIII:
			return bitratesV1L3[idx]
		}
		return 0
	}
	// MPEG 2 and 2.5 share tables; Layers II and III share one table.
	if l == LayerI {
		return bitratesV2L1[idx]
	}
	return bitratesV2L2[idx]
}

// samplesPerFrame returns the fixed PCM sample count per frame.
// Layer I is always 384, Layer II always 1152; Layer III halves to 576
// for MPEG 2/2.5.
func samplesPerFrame(v Version, l Layer) int {
	switch l {
	case LayerI:
		return 384
	case LayerII:
		return 1152
	case LayerIII:
		if v == Version1 {
			return 1152
		}
		return 576
	}
	return 0
}

// frameLength computes the byte length of a frame from its header fields.
func frameLength(h FrameHeader) int {
	bitrate := h.BitrateKbs * 1000
	padding := 0
	if h.Padding {
		padding = 1
	}
	if h.Layer == LayerI {
		// Layer I pads in 4-byte slots.
		return (12*bitrate/h.SampleRate + padding) * 4
	}
	return h.SamplesPerFrame/8*bitrate/h.SampleRate + padding
}
