// gifresize.go - aspect-preserving resize of animated GIFs.
package server

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"

	"golang.org/x/image/draw"
)

// resizeGIF scales every frame of a GIF so that the logical screen width
// becomes round(percent/100 * width), preserving aspect ratio, frame
// delays, disposal modes and loop count.
func resizeGIF(u *fileUnit, percent int) (*fileUnit, error) {
	g, err := gif.DecodeAll(bytes.NewReader(u.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read gif metadata for %s: %v", errCompression, u.Name, err)
	}

	width := g.Config.Width
	if width == 0 && len(g.Image) > 0 {
		width = g.Image[0].Bounds().Dx()
	}
	if width == 0 {
		return nil, fmt.Errorf("%w: cannot determine width of %s", errCompression, u.Name)
	}

	height := g.Config.Height
	if height == 0 && len(g.Image) > 0 {
		height = g.Image[0].Bounds().Dy()
	}

	newWidth := scaleDim(width, percent)
	// One factor for both axes keeps every frame's aspect ratio.
	factor := float64(newWidth) / float64(width)

	// The logical screen must never collapse to zero: a frame bumped to
	// 1px below would fall outside it and the encoder rejects that.
	canvasW := newWidth
	canvasH := scaleByFactor(height, factor)
	if canvasH < 1 {
		canvasH = 1
	}

	out := &gif.GIF{
		Delay:           make([]int, len(g.Image)),
		Disposal:        make([]byte, len(g.Image)),
		LoopCount:       g.LoopCount,
		BackgroundIndex: g.BackgroundIndex,
		Config: image.Config{
			ColorModel: g.Config.ColorModel,
			Width:      canvasW,
			Height:     canvasH,
		},
	}

	for i, frame := range g.Image {
		b := frame.Bounds()
		// Frame offsets within the logical screen scale with the frame.
		scaled := image.Rect(
			scaleByFactor(b.Min.X, factor),
			scaleByFactor(b.Min.Y, factor),
			scaleByFactor(b.Max.X, factor),
			scaleByFactor(b.Max.Y, factor),
		)
		if scaled.Dx() < 1 {
			scaled.Max.X = scaled.Min.X + 1
		}
		if scaled.Dy() < 1 {
			scaled.Max.Y = scaled.Min.Y + 1
		}
		// Keep the (possibly bumped) frame inside the logical screen.
		if scaled.Max.X > canvasW {
			scaled = scaled.Sub(image.Pt(scaled.Max.X-canvasW, 0))
		}
		if scaled.Max.Y > canvasH {
			scaled = scaled.Sub(image.Pt(0, scaled.Max.Y-canvasH))
		}

		dst := image.NewPaletted(scaled, frame.Palette)
		draw.NearestNeighbor.Scale(dst, scaled, frame, b, draw.Src, nil)

		out.Image = append(out.Image, dst)
		out.Delay[i] = g.Delay[i]
		if g.Disposal != nil {
			out.Disposal[i] = g.Disposal[i]
		}
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, out); err != nil {
		return nil, fmt.Errorf("%w: re-encoding %s: %v", errCompression, u.Name, err)
	}

	return &fileUnit{
		Name:        u.Name,
		ContentType: u.ContentType,
		Data:        buf.Bytes(),
	}, nil
}

func scaleByFactor(v int, factor float64) int {
	return int(float64(v) * factor)
}
