// imageresize.go - still-image percentage resize.
package server

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/draw"
)

// resizeImage decodes a still image, scales both dimensions to
// round(percent/100 * dim) and re-encodes in the source format. The output
// unit keeps the original name and content type.
func resizeImage(u *fileUnit, percent int) (*fileUnit, error) {
	img, format, err := image.Decode(bytes.NewReader(u.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read image metadata for %s: %v", errCompression, u.Name, err)
	}

	bounds := img.Bounds()
	newW := scaleDim(bounds.Dx(), percent)
	newH := scaleDim(bounds.Dy(), percent)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, dst)
	case "jpeg":
		err = jpeg.Encode(&buf, dst, nil)
	default:
		return nil, fmt.Errorf("%w: cannot re-encode %s image %s", errCompression, format, u.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: re-encoding %s: %v", errCompression, u.Name, err)
	}

	return &fileUnit{
		Name:        u.Name,
		ContentType: u.ContentType,
		Data:        buf.Bytes(),
	}, nil
}

// scaleDim applies the percentage with round-half-up and never collapses a
// dimension to zero.
func scaleDim(dim, percent int) int {
	scaled := int(math.Round(float64(percent) / 100 * float64(dim)))
	if scaled < 1 {
		return 1
	}
	return scaled
}
