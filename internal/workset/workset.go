// Package workset implements the pipeline's units of work: converting a
// group of up to three decoded frames into the block-compressed channel
// buffers of one container set. Two variants exist, matching the two
// channel layouts of the format: planar (shared YCbCrA planes) and packed
// (per-frame RGB textures).
package workset

import (
	"fmt"

	"github.com/deepteams/knib/internal/imageio"
	"github.com/deepteams/knib/internal/texture"
)

// FramesPerSet is how many consecutive source frames share one set.
const FramesPerSet = 3

// Config carries the per-encode parameters every set needs.
type Config struct {
	// Width and Height are the stored frame dimensions, already padded up
	// to a multiple of 8.
	Width  int
	Height int
	// Alpha enables the alpha channel output.
	Alpha bool
	// Format, Kernel and Quality parameterize the block encoder.
	Format  texture.Format
	Kernel  texture.Kernel
	Quality texture.Quality
}

// PadDimension rounds a frame dimension up to the block formats' required
// multiple of 8.
func PadDimension(d int) int {
	if r := d % 8; r != 0 {
		return d + 8 - r
	}
	return d
}

// prepared returns the frame scaled to the target dimensions, reusing
// scratch for the resize when needed. The returned image is either img
// itself or *scratch; the caller keeps ownership of both.
func prepared(img *imageio.Image, cfg Config, scratch **imageio.Image) (*imageio.Image, error) {
	if img.Width == cfg.Width && img.Height == cfg.Height {
		return img, nil
	}
	if *scratch == nil {
		s, err := imageio.New(cfg.Width, cfg.Height, imageio.FormatRGBA32)
		if err != nil {
			return nil, err
		}
		*scratch = s
	}
	if err := imageio.Resize(*scratch, img); err != nil {
		return nil, err
	}
	return *scratch, nil
}

// compress runs the block encoder over a staging image and returns the
// compressed result.
func compress(stage *imageio.Image, cfg Config, channel string) (*imageio.Image, error) {
	out, err := texture.Compress(stage, cfg.Format, cfg.Kernel, cfg.Quality)
	if err != nil {
		return nil, fmt.Errorf("workset: compressing %s: %w", channel, err)
	}
	return out, nil
}

// releaseAll releases every non-nil image and clears the slots.
func releaseAll(imgs []*imageio.Image) {
	for i, im := range imgs {
		if im != nil {
			im.Release()
			imgs[i] = nil
		}
	}
}
