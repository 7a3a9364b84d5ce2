// Package playback turns inbound audio payloads into gapless speaker output:
// a base64 PCM decoder, a monotonic scheduler and the output-device backend.
package playback

import (
	"encoding/base64"
	"fmt"

	"go.uber.org/zap"

	"github.com/mahakjain123456/feynman-mirror/pkg/audio"
)

// Decoder converts base64-encoded 16-bit LE PCM payloads into normalized
// sample buffers at the output rate. Decodes carry no ordering dependency on
// each other; callers serialize enqueuing instead.
type Decoder struct {
	logger *zap.Logger
}

// NewDecoder creates a Decoder.
func NewDecoder(logger *zap.Logger) *Decoder {
	return &Decoder{logger: logger.Named("decoder")}
}

// Decode validates and decodes one payload. A malformed payload is a local,
// recoverable error: the caller drops the chunk and playback continues.
func (d *Decoder) Decode(payload string) ([]float32, error) {
	if payload == "" {
		return nil, fmt.Errorf("empty audio payload")
	}

	pcm, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 audio: %w", err)
	}

	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("invalid PCM payload: odd byte length %d", len(pcm))
	}

	samples := audio.DecodeToFloat32(pcm)

	d.logger.Debug("Decoded audio payload",
		zap.Int("payload_bytes", len(payload)),
		zap.Int("samples", len(samples)))

	return samples, nil
}
