// Package imageio provides the pixel buffers the encoding pipeline moves
// around: planar channel images, frame loading from printf-style path
// templates, resizing, and RGBA→YCbCrA 4:2:0 conversion.
package imageio

import (
	"errors"
	"fmt"
	"image"

	"github.com/deepteams/knib/internal/pool"
)

// Format tags the channel layout of an Image.
type Format int

const (
	// FormatRGBA32 is interleaved 8-bit RGBA in a single channel.
	FormatRGBA32 Format = iota
	// FormatYUVA420P is planar YCbCrA with chroma subsampled 2x2:
	// channel 0 = Y (w×h), 1 = Cb, 2 = Cr (⌈w/2⌉×⌈h/2⌉), 3 = A (w×h).
	FormatYUVA420P
	// FormatDXT1 is BC1 block data: one channel of 8-byte 4×4 blocks.
	FormatDXT1
	// FormatETC1 is ETC1 block data: one channel of 8-byte 4×4 blocks.
	FormatETC1
)

// MaxChannels is the widest channel count any format uses.
const MaxChannels = 4

var ErrBadDimensions = errors.New("imageio: bad dimensions")

// Image is a rectangular pixel buffer with one or more planar channel byte
// buffers. An Image is owned by exactly one component at a time and is
// handed through the pipeline by move; nothing retains a reference after
// passing one on.
type Image struct {
	Width  int
	Height int
	Format Format

	ch [MaxChannels][]byte
}

// chromaDim halves a luma dimension for 4:2:0 subsampling, rounding up.
func chromaDim(d int) int { return (d + 1) >> 1 }

// channelSizes returns the per-channel linear sizes for (w, h, f) and the
// number of channels used.
func channelSizes(w, h int, f Format) (sizes [MaxChannels]int, n int) {
	switch f {
	case FormatRGBA32:
		return [MaxChannels]int{w * h * 4}, 1
	case FormatYUVA420P:
		c := chromaDim(w) * chromaDim(h)
		return [MaxChannels]int{w * h, c, c, w * h}, 4
	case FormatDXT1, FormatETC1:
		return [MaxChannels]int{BlockDataSize(w, h)}, 1
	}
	return sizes, 0
}

// BlockDataSize returns the byte size of 8-byte-per-4×4-block texture data
// covering a w×h image. Partial blocks at the edges round up.
func BlockDataSize(w, h int) int {
	return ((w + 3) / 4) * ((h + 3) / 4) * 8
}

// New allocates an Image of the given dimensions and format. Channel
// buffers come from the plane pool and hold unspecified bytes; callers
// fill them.
func New(w, h int, f Format) (*Image, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadDimensions, w, h)
	}
	im := &Image{Width: w, Height: h, Format: f}
	sizes, n := channelSizes(w, h, f)
	for i := 0; i < n; i++ {
		im.ch[i] = pool.Get(sizes[i])
	}
	return im, nil
}

// Release returns the image's channel buffers to the plane pool. The image
// must not be used afterwards.
func (im *Image) Release() {
	for i, b := range im.ch {
		if b != nil {
			pool.Put(b)
			im.ch[i] = nil
		}
	}
}

// Data returns channel c's byte buffer, or nil if the channel is unused.
func (im *Image) Data(c int) []byte { return im.ch[c] }

// LinearSize returns the byte length of channel c.
func (im *Image) LinearSize(c int) int { return len(im.ch[c]) }

// Fill sets every byte of every channel to v.
func (im *Image) Fill(v byte) {
	for _, b := range im.ch {
		for i := range b {
			b[i] = v
		}
	}
}

// NRGBA returns a stdlib view over an RGBA32 image's pixel buffer. The view
// shares the underlying bytes; it is used to bridge to the image packages
// for decoding targets and resizing.
func (im *Image) NRGBA() *image.NRGBA {
	if im.Format != FormatRGBA32 {
		return nil
	}
	return &image.NRGBA{
		Pix:    im.ch[0],
		Stride: im.Width * 4,
		Rect:   image.Rect(0, 0, im.Width, im.Height),
	}
}
