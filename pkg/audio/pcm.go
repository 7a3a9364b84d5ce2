// Package audio provides PCM primitives shared by the capture and playback layers.
package audio

import (
	"bytes"
	"encoding/binary"
	"time"
)

// Format constants shared by the capture and playback layers.
const (
	// Microphone input, as required by the streaming endpoint.
	CaptureSampleRate = 16_000 // Hz
	CaptureChannels   = 1

	// Model output.
	OutputSampleRate = 24_000 // Hz
	OutputChannels   = 1

	bytesPerSample = 2 // 16-bit PCM
)

// EncodeFloat32 converts normalized float samples in [-1, 1] to 16-bit
// little-endian signed PCM. Out-of-range samples are clamped. The output is
// always exactly twice the input length in bytes.
func EncodeFloat32(samples []float32) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		out[2*i] = byte(v)
		out[2*i+1] = byte(v >> 8)
	}
	return out
}

// DecodeToFloat32 converts 16-bit little-endian signed PCM back to normalized
// float samples. The byte length must be even; callers validate before decoding.
func DecodeToFloat32(pcm []byte) []float32 {
	out := make([]float32, len(pcm)/bytesPerSample)
	for i := range out {
		v := int16(pcm[2*i]) | int16(pcm[2*i+1])<<8
		out[i] = float32(v) / 32768
	}
	return out
}

// Int16ToLE converts int16 samples to raw little-endian bytes.
func Int16ToLE(samples []int16) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

// LEToInt16 converts raw little-endian bytes back to int16 samples.
func LEToInt16(b []byte) []int16 {
	out := make([]int16, len(b)/bytesPerSample)
	_ = binary.Read(bytes.NewReader(b), binary.LittleEndian, &out)
	return out
}

// Duration returns the playback duration of a mono sample buffer at the given
// sample rate.
func Duration(sampleCount, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(sampleCount) * time.Second / time.Duration(sampleRate)
}
