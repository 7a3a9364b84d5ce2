package capture

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// maxFrameWidth bounds the transmitted frame size; larger frames are scaled
// down preserving aspect ratio before encoding.
const maxFrameWidth = 640

// CompressFrame encodes a camera frame as a base64 JPEG at the given quality.
// Frames wider than maxFrameWidth are downscaled first so a high-resolution
// camera does not inflate the outbound stream.
func CompressFrame(img image.Image, quality int) (string, error) {
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return "", fmt.Errorf("empty frame %dx%d", bounds.Dx(), bounds.Dy())
	}

	if bounds.Dx() > maxFrameWidth {
		height := bounds.Dy() * maxFrameWidth / bounds.Dx()
		scaled := image.NewRGBA(image.Rect(0, 0, maxFrameWidth, height))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, bounds, draw.Src, nil)
		img = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("failed to encode frame: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
