package mpeg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// v1l3Frame builds one MPEG-1 Layer III frame at 128 kbit/s, 44.1 kHz,
// no padding: 417 bytes, 1152 samples.
func v1l3Frame() []byte {
	frame := make([]byte, 417)
	frame[0] = 0xFF
	frame[1] = 0xFB // MPEG-1, Layer III
	frame[2] = 0x90 // bitrate index 9 (128), sample rate index 0 (44100)
	return frame
}

func v1l3Stream(frames int) []byte {
	var buf bytes.Buffer
	for range frames {
		buf.Write(v1l3Frame())
	}
	return buf.Bytes()
}

func TestParseFrameHeader_Valid(t *testing.T) {
	h, ok := ParseFrameHeader(v1l3Frame())
	require.True(t, ok)

	assert.Equal(t, Version1, h.Version)
	assert.Equal(t, LayerIII, h.Layer)
	assert.Equal(t, 128, h.BitrateKbs)
	assert.Equal(t, 44100, h.SampleRate)
	assert.False(t, h.Padding)
	assert.Equal(t, 1152, h.SamplesPerFrame)
	assert.Equal(t, 417, h.Length)
}

func TestParseFrameHeader_Padding(t *testing.T) {
	frame := v1l3Frame()
	frame[2] |= 0x02

	h, ok := ParseFrameHeader(frame)
	require.True(t, ok)
	assert.True(t, h.Padding)
	assert.Equal(t, 418, h.Length)
}

func TestParseFrameHeader_MPEG2HalvesSamples(t *testing.T) {
	frame := make([]byte, 4)
	frame[0] = 0xFF
	frame[1] = 0xF3 // MPEG-2, Layer III
	frame[2] = 0x90 // bitrate index 9 (80 for V2 L3), sample rate index 0 (22050)

	h, ok := ParseFrameHeader(frame)
	require.True(t, ok)
	assert.Equal(t, Version2, h.Version)
	assert.Equal(t, 80, h.BitrateKbs)
	assert.Equal(t, 22050, h.SampleRate)
	assert.Equal(t, 576, h.SamplesPerFrame)
}

func TestParseFrameHeader_Rejections(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"too short", []byte{0xFF, 0xFB}},
		{"no sync", []byte{0x00, 0xFB, 0x90, 0x00}},
		{"partial sync", []byte{0xFF, 0x1B, 0x90, 0x00}},
		{"reserved version", []byte{0xFF, 0xEB, 0x90, 0x00}},
		{"reserved layer", []byte{0xFF, 0xF9, 0x90, 0x00}},
		{"free bitrate", []byte{0xFF, 0xFB, 0x00, 0x00}},
		{"invalid bitrate", []byte{0xFF, 0xFB, 0xF0, 0x00}},
		{"reserved sample rate", []byte{0xFF, 0xFB, 0x9C, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ParseFrameHeader(tt.data)
			assert.False(t, ok)
		})
	}
}

func TestMeasure_ExactFrameWalk(t *testing.T) {
	// 10 frames x 1152 samples at 44100 Hz = 261.22ms.
	m := Measure(v1l3Stream(10))

	assert.Equal(t, 10, m.Frames)
	assert.False(t, m.Degraded)
	assert.Equal(t, int64(261), m.Ms())
}

func TestMeasure_ResyncsPastGarbage(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x12, 0x34, 0x56, 0x78})
	buf.Write(v1l3Stream(5))
	buf.Write([]byte{0x01, 0x02, 0x03})
	buf.Write(v1l3Stream(5))

	m := Measure(buf.Bytes())
	assert.Equal(t, 10, m.Frames)
	assert.False(t, m.Degraded)
}

func TestMeasure_DegradedFallback(t *testing.T) {
	// 16000 unparseable bytes at the assumed 128 kbit/s = exactly 1 second.
	m := Measure(make([]byte, 16000))

	assert.True(t, m.Degraded)
	assert.Equal(t, 0, m.Frames)
	assert.Equal(t, int64(1000), m.Ms())
}

func TestMeasure_Empty(t *testing.T) {
	m := Measure(nil)
	assert.True(t, m.Degraded)
	assert.Equal(t, int64(0), m.Ms())
}

func TestMeasure_SkipsLeadingID3Tag(t *testing.T) {
	tagged := WriteTotalDuration(v1l3Stream(10), 261)

	m := Measure(tagged)
	assert.Equal(t, 10, m.Frames)
	assert.False(t, m.Degraded)
}

func TestWriteTotalDuration_Roundtrip(t *testing.T) {
	stream := v1l3Stream(3)

	tagged := WriteTotalDuration(stream, 2300)

	ms, ok := ReadTotalDuration(tagged)
	require.True(t, ok)
	assert.Equal(t, int64(2300), ms)
}

func TestWriteTotalDuration_ReplacesExistingTag(t *testing.T) {
	stream := v1l3Stream(3)

	once := WriteTotalDuration(stream, 1000)
	twice := WriteTotalDuration(once, 2000)

	ms, ok := ReadTotalDuration(twice)
	require.True(t, ok)
	assert.Equal(t, int64(2000), ms)

	// Same digit count means the old tag was stripped, not stacked.
	assert.Equal(t, len(once), len(twice))

	m := Measure(twice)
	assert.Equal(t, 3, m.Frames)
}

func TestReadTotalDuration_NoTag(t *testing.T) {
	_, ok := ReadTotalDuration(v1l3Stream(1))
	assert.False(t, ok)
}

func TestID3v2TagSize_Truncated(t *testing.T) {
	// Header claims a huge tag on a tiny buffer; the whole buffer counts as
	// tag so none of it is misread as audio.
	data := []byte{'I', 'D', '3', 0x03, 0x00, 0x00, 0x00, 0x00, 0x7F, 0x7F, 0xAA, 0xBB}
	assert.Equal(t, len(data), id3v2TagSize(data))
}
