package render

import (
	"bytes"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/schemalab/circuitlay/pkg/errors"
	"github.com/schemalab/circuitlay/pkg/layout"
)

// PNG renders the layout to PNG by rasterizing the SVG in process.
// maxWidth caps the output width in pixels; zero keeps the native size.
func PNG(l *layout.Layout, opts Options, maxWidth int) ([]byte, error) {
	svgBytes, err := SVG(l, opts)
	if err != nil {
		return nil, err
	}
	return rasterize(svgBytes, maxWidth)
}

// rasterize converts SVG bytes to PNG bytes.
func rasterize(svgBytes []byte, maxWidth int) ([]byte, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgBytes), oksvg.StrictErrorMode)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to parse SVG for rasterization")
	}

	w := int(icon.ViewBox.W)
	h := int(icon.ViewBox.H)
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeInternal, "SVG has no usable dimensions")
	}

	icon.SetTarget(0, 0, float64(w), float64(h))
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)

	var out image.Image = rgba
	if maxWidth > 0 && w > maxWidth {
		out = imaging.Resize(rgba, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to encode PNG")
	}
	return buf.Bytes(), nil
}
