package workset

import (
	"fmt"

	"github.com/deepteams/knib/internal/container"
	"github.com/deepteams/knib/internal/imageio"
)

// Planar converts up to three frames into four shared block-compressed
// planes (Y, Cb, Cr and optionally A). Each plane holds the three frames'
// samples interleaved byte-wise at stride 4: sample i of frame k lands at
// byte i*4+k, so a shader reads one texel and selects the R, G or B
// channel for the current frame. Chroma planes are 4:2:0 subsampled;
// missing trailing frames read as 0xFF.
type Planar struct {
	cfg    Config
	index  int
	inputs [FramesPerSet]*imageio.Image

	compressed [4]*imageio.Image // Y, Cb, Cr, A after Run
}

// NewPlanar takes ownership of the frame slots. Trailing slots may be nil.
func NewPlanar(frames [FramesPerSet]*imageio.Image, cfg Config, index int) *Planar {
	return &Planar{cfg: cfg, index: index, inputs: frames}
}

// Index returns the set's position in source order.
func (s *Planar) Index() int { return s.index }

// planeDims returns the staging dimensions of plane p (0=Y, 1=Cb, 2=Cr,
// 3=A): chroma planes are halved in both axes, rounding up.
func (s *Planar) planeDims(p int) (w, h int) {
	if p == 1 || p == 2 {
		return (s.cfg.Width + 1) / 2, (s.cfg.Height + 1) / 2
	}
	return s.cfg.Width, s.cfg.Height
}

// Run converts the input frames to YCbCrA, interleaves them into the
// staging planes and block-compresses each plane.
func (s *Planar) Run() error {
	planes := 3
	if s.cfg.Alpha {
		planes = 4
	}

	var staging [4]*imageio.Image
	defer releaseAll(staging[:])
	defer releaseAll(s.inputs[:])

	for p := 0; p < planes; p++ {
		w, h := s.planeDims(p)
		img, err := imageio.New(w, h, imageio.FormatRGBA32)
		if err != nil {
			return fmt.Errorf("workset: planar staging: %w", err)
		}
		img.Fill(0xff)
		staging[p] = img
	}

	var scratch *imageio.Image
	defer func() {
		if scratch != nil {
			scratch.Release()
		}
	}()

	for k, img := range s.inputs {
		if img == nil {
			continue
		}
		src, err := prepared(img, s.cfg, &scratch)
		if err != nil {
			return err
		}
		conv, err := imageio.ConvertYUVA420(src)
		if err != nil {
			return fmt.Errorf("workset: converting frame %d: %w", k, err)
		}
		for p := 0; p < planes; p++ {
			interleave(staging[p].Data(0), conv.Data(p), k)
		}
		conv.Release()
		img.Release()
		s.inputs[k] = nil
	}

	for p := 0; p < planes; p++ {
		out, err := compress(staging[p], s.cfg, planeName(p))
		if err != nil {
			s.releaseCompressed()
			return err
		}
		s.compressed[p] = out
	}
	return nil
}

// interleave scatters a plane's bytes into an RGBA staging buffer at
// stride 4, offset k.
func interleave(dst, src []byte, k int) {
	d := k
	for _, v := range src {
		dst[d] = v
		d += 4
	}
}

func planeName(p int) string {
	return [4]string{"Y", "Cb", "Cr", "A"}[p]
}

func (s *Planar) releaseCompressed() {
	releaseAll(s.compressed[:])
}

// Emit writes the compressed planes as one planar set record and releases
// them.
func (s *Planar) Emit(w *container.Writer) error {
	defer s.releaseCompressed()
	var a []byte
	if s.compressed[3] != nil {
		a = s.compressed[3].Data(0)
	}
	return w.OutputPlanar(s.index,
		s.compressed[0].Data(0),
		s.compressed[1].Data(0),
		s.compressed[2].Data(0),
		a)
}
