// Package roi derives a region of interest from an anchor found in an OCR
// result and prepares that region for a second, rotated recognition pass.
package roi

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/disintegration/imaging"

	"github.com/Cortexa-LLC/mcp/src/ocrgrid/ocr"
)

// ErrEmptyRegion is returned when the anchor leaves no pixels to scan.
var ErrEmptyRegion = errors.New("region of interest is empty")

// AnchorRegion returns the vertical strip of bounds that ends at the left edge
// of the anchor character: from the image's left edge to anchor.X, full
// height. The strip is clipped to bounds.
func AnchorRegion(anchor ocr.CharWithVariants, bounds image.Rectangle) (image.Rectangle, error) {
	x := int(math.Floor(anchor.Char.Position.X))
	r := image.Rect(bounds.Min.X, bounds.Min.Y, x, bounds.Max.Y).Intersect(bounds)
	if r.Empty() {
		return image.Rectangle{}, fmt.Errorf("anchor %q at x=%d: %w", anchor.Char.Value, x, ErrEmptyRegion)
	}
	return r, nil
}

// Prepare crops img to region and rotates the crop 90 degrees clockwise so
// text running bottom-to-top reads left-to-right.
func Prepare(img image.Image, region image.Rectangle) image.Image {
	return imaging.Rotate270(imaging.Crop(img, region))
}

// EncodePNG encodes img as PNG for handing to an OCR engine.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode region png: %w", err)
	}
	return buf.Bytes(), nil
}
