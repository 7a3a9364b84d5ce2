package audio_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahakjain123456/feynman-mirror/pkg/audio"
)

func TestEncodeFloat32_Length(t *testing.T) {
	tests := map[string]struct {
		sampleCount int
	}{
		"empty":       {sampleCount: 0},
		"single":      {sampleCount: 1},
		"block_1024":  {sampleCount: 1024},
		"odd_count":   {sampleCount: 333},
		"full_second": {sampleCount: audio.CaptureSampleRate},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			samples := make([]float32, tt.sampleCount)
			out := audio.EncodeFloat32(samples)
			assert.Len(t, out, tt.sampleCount*2, "output must be exactly 2x the sample count")
		})
	}
}

func TestEncodeFloat32_Clamping(t *testing.T) {
	out := audio.EncodeFloat32([]float32{2.0, -3.5, 1.0, -1.0})
	decoded := audio.LEToInt16(out)

	require.Len(t, decoded, 4)
	assert.Equal(t, int16(32767), decoded[0], "over-range clamps to full scale")
	assert.Equal(t, int16(-32767), decoded[1], "under-range clamps to negative full scale")
	assert.Equal(t, int16(32767), decoded[2])
	assert.Equal(t, int16(-32767), decoded[3])
}

func TestEncodeFloat32_RoundTrip(t *testing.T) {
	in := []float32{0, 0.25, -0.25, 0.5, -0.5, 0.999, -0.999, 0.0001}

	out := audio.DecodeToFloat32(audio.EncodeFloat32(in))
	require.Len(t, out, len(in))

	for i := range in {
		// One quantization step at 16 bits.
		assert.InDelta(t, in[i], out[i], 1.0/32767, "sample %d", i)
	}
}

func TestInt16LERoundTrip(t *testing.T) {
	in := []int16{0, 1, -1, 12345, -12345, math.MaxInt16, math.MinInt16}
	assert.Equal(t, in, audio.LEToInt16(audio.Int16ToLE(in)))
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, audio.Duration(12_000, audio.OutputSampleRate))
	assert.Equal(t, time.Second, audio.Duration(16_000, audio.CaptureSampleRate))
	assert.Equal(t, time.Duration(0), audio.Duration(100, 0))
}
