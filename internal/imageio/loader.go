package imageio

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	// Frame files are PNG or JPEG; register both decoders.
	_ "image/jpeg"
	_ "image/png"
)

// FramePath expands a printf-style path template with a frame index,
// e.g. ("frames/img_%04d.png", 17) → "frames/img_0017.png".
func FramePath(template string, index int) string {
	return fmt.Sprintf(template, index)
}

// Stat reports the dimensions and alpha presence of the frame at index
// without decoding its pixels.
func Stat(template string, index int) (w, h int, alpha bool, err error) {
	path := FramePath(template, index)
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false, fmt.Errorf("imageio: stat %s: %w", path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, false, fmt.Errorf("imageio: stat %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, modelHasAlpha(cfg.ColorModel), nil
}

// modelHasAlpha reports whether a decoded config's color model carries an
// alpha channel. PNG truecolor+alpha and greyscale+alpha decode to the
// NRGBA models; palette images may carry per-entry transparency.
func modelHasAlpha(m color.Model) bool {
	switch m {
	case color.NRGBAModel, color.NRGBA64Model:
		return true
	}
	if p, ok := m.(color.Palette); ok {
		for _, c := range p {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

// Load decodes the frame at index into a fresh RGBA32 image.
func Load(template string, index int) (*Image, error) {
	path := FramePath(template, index)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imageio: open %s: %w", path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imageio: decode %s: %w", path, err)
	}

	b := src.Bounds()
	im, err := New(b.Dx(), b.Dy(), FormatRGBA32)
	if err != nil {
		return nil, err
	}
	draw.Draw(im.NRGBA(), im.NRGBA().Bounds(), src, b.Min, draw.Src)
	return im, nil
}
