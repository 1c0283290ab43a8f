// Package texture implements GPU block-texture compression for the
// encoder: DXT1 (BC1) and ETC1, both 8 bytes per 4×4 block. Encoders are
// deterministic: the same input bytes always produce the same block bytes,
// which is what makes the pipeline's output independent of worker count.
package texture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/deepteams/knib/internal/imageio"
)

// Format selects the block compression scheme.
type Format int

const (
	DXT1 Format = iota
	ETC1
)

func (f Format) String() string {
	switch f {
	case DXT1:
		return "DXT1"
	case ETC1:
		return "ETC1"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// imageFormat returns the imageio format tag for compressed output.
func (f Format) imageFormat() imageio.Format {
	if f == ETC1 {
		return imageio.FormatETC1
	}
	return imageio.FormatDXT1
}

// Quality selects how much work the encoder spends per block.
type Quality int

const (
	QualityLow Quality = iota
	QualityMedium
	QualityHigh
)

// ParseQuality maps the CLI quality names to a Quality.
func ParseQuality(s string) (Quality, error) {
	switch strings.ToUpper(s) {
	case "HI":
		return QualityHigh, nil
	case "MED":
		return QualityMedium, nil
	case "LO":
		return QualityLow, nil
	}
	return 0, fmt.Errorf("texture: unknown quality %q (use HI, MED or LO)", s)
}

// Kernel selects the error-diffusion kernel applied while quantizing
// source pixels down to the block formats' color precision.
type Kernel int

const (
	// KernelNone disables dithering.
	KernelNone Kernel = iota
	// KernelDefault diffuses quantization error with Floyd-Steinberg
	// weights toward the RGB565 grid.
	KernelDefault
)

var errNotRGBA = errors.New("texture: source must be RGBA32")

// Compress block-compresses an RGBA32 image and returns a new image in the
// requested block format with the same dimensions. The source is not
// modified.
func Compress(src *imageio.Image, f Format, k Kernel, q Quality) (*imageio.Image, error) {
	if src.Format != imageio.FormatRGBA32 {
		return nil, errNotRGBA
	}
	dst, err := imageio.New(src.Width, src.Height, f.imageFormat())
	if err != nil {
		return nil, err
	}

	pix := src.Data(0)
	if k == KernelDefault {
		dithered := make([]byte, len(pix))
		copy(dithered, pix)
		dither565(dithered, src.Width, src.Height)
		pix = dithered
	}

	blocks := dst.Data(0)
	bw := (src.Width + 3) / 4
	bh := (src.Height + 3) / 4
	var blk block
	out := blocks[:0]
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			gatherBlock(&blk, pix, src.Width, src.Height, bx*4, by*4)
			switch f {
			case DXT1:
				out = encodeDXT1Block(out, &blk, q)
			case ETC1:
				out = encodeETC1Block(out, &blk, q)
			}
		}
	}
	if len(out) != len(blocks) {
		dst.Release()
		return nil, fmt.Errorf("texture: block data size mismatch: %d != %d", len(out), len(blocks))
	}
	return dst, nil
}

// block is one 4×4 tile of RGB pixels, row-major.
type block struct {
	r, g, b [16]int
}

// gatherBlock copies the 4×4 tile at (x0, y0) out of an interleaved RGBA
// buffer, replicating edge pixels when the tile hangs past the image.
func gatherBlock(blk *block, pix []byte, w, h, x0, y0 int) {
	for dy := 0; dy < 4; dy++ {
		y := y0 + dy
		if y >= h {
			y = h - 1
		}
		for dx := 0; dx < 4; dx++ {
			x := x0 + dx
			if x >= w {
				x = w - 1
			}
			p := (y*w + x) * 4
			i := dy*4 + dx
			blk.r[i] = int(pix[p])
			blk.g[i] = int(pix[p+1])
			blk.b[i] = int(pix[p+2])
		}
	}
}

func clamp255(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
