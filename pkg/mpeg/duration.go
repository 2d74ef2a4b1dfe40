package mpeg

import "time"

// fallbackBitrate is assumed when no valid frame is found and the duration
// has to be estimated from the byte length alone.
const fallbackBitrate = 128_000 // bit/s

// Measurement is the result of walking a stream's frames.
type Measurement struct {
	Duration time.Duration
	Frames   int
	// Degraded is set when no valid frame was found and Duration is a
	// byte-length estimate rather than an exact frame-walk total.
	Degraded bool
}

// Ms returns the measured duration in whole milliseconds.
func (m Measurement) Ms() int64 {
	return m.Duration.Milliseconds()
}

// Measure computes the exact playback duration of an MPEG audio stream by
// summing samplesPerFrame/sampleRate over every valid frame. It skips a
// leading ID3v2 tag if present and resynchronizes byte-by-byte after any
// corrupt region, so both CBR and VBR streams measure correctly.
//
// A stream with zero recognizable frames yields a rough estimate at an
// assumed 128 kbit/s with Degraded set; this is non-fatal by contract and
// the caller decides how loudly to complain.
func Measure(data []byte) Measurement {
	offset := id3v2TagSize(data)

	var seconds float64
	var frames int

	i := offset
	for i+4 <= len(data) {
		h, ok := ParseFrameHeader(data[i:])
		if !ok {
			i++
			continue
		}
		seconds += float64(h.SamplesPerFrame) / float64(h.SampleRate)
		frames++
		i += h.Length
	}

	if frames == 0 {
		return Measurement{
			Duration: time.Duration(float64(len(data)*8) / fallbackBitrate * float64(time.Second)),
			Degraded: true,
		}
	}

	return Measurement{
		Duration: time.Duration(seconds * float64(time.Second)),
		Frames:   frames,
	}
}
