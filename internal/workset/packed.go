package workset

import (
	"fmt"

	"github.com/deepteams/knib/internal/container"
	"github.com/deepteams/knib/internal/imageio"
)

// Packed keeps one block-compressed RGB texture per frame, trading size
// for full per-frame chroma fidelity. When alpha is enabled the three
// frames' alpha channels are packed into the R, G and B channels of one
// extra shared texture and the color plates' own alpha is forced opaque.
type Packed struct {
	cfg    Config
	index  int
	inputs [FramesPerSet]*imageio.Image

	compressed [4]*imageio.Image // RGB0, RGB1, RGB2, A012 after Run
}

// NewPacked takes ownership of the frame slots. Trailing slots may be nil.
func NewPacked(frames [FramesPerSet]*imageio.Image, cfg Config, index int) *Packed {
	return &Packed{cfg: cfg, index: index, inputs: frames}
}

// Index returns the set's position in source order.
func (s *Packed) Index() int { return s.index }

// Run stages each populated frame at the padded dimensions, splits off the
// alpha plane when enabled, and block-compresses everything.
func (s *Packed) Run() error {
	var staging [4]*imageio.Image
	defer releaseAll(staging[:])
	defer releaseAll(s.inputs[:])

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
		stage, err := imageio.New(s.cfg.Width, s.cfg.Height, imageio.FormatRGBA32)
		if err != nil {
			return fmt.Errorf("workset: packed staging: %w", err)
		}
		copy(stage.Data(0), src.Data(0))
		staging[k] = stage
		img.Release()
		s.inputs[k] = nil
	}

	if s.cfg.Alpha {
		a012, err := imageio.New(s.cfg.Width, s.cfg.Height, imageio.FormatRGBA32)
		if err != nil {
			return fmt.Errorf("workset: alpha staging: %w", err)
		}
		a012.Fill(0xff)
		for k := 0; k < FramesPerSet; k++ {
			if staging[k] != nil {
				moveAlphaToChannel(a012.Data(0), staging[k].Data(0), k)
			}
		}
		staging[3] = a012
	}

	names := [4]string{"RGB0", "RGB1", "RGB2", "A012"}
	for i, stage := range staging {
		if stage == nil {
			continue
		}
		out, err := compress(stage, s.cfg, names[i])
		if err != nil {
			s.releaseCompressed()
			return err
		}
		s.compressed[i] = out
	}
	return nil
}

// moveAlphaToChannel moves the alpha byte of every pixel in src into
// channel k of dst and forces the source alpha opaque; the color plates
// carry no alpha of their own once it lives in the shared texture.
func moveAlphaToChannel(dst, src []byte, k int) {
	for p := 0; p+3 < len(src); p += 4 {
		dst[p+k] = src[p+3]
		src[p+3] = 0xff
	}
}

func (s *Packed) releaseCompressed() {
	releaseAll(s.compressed[:])
}

// Emit writes one set record per populated color texture, attaching the
// packed-alpha texture to the first, then releases the buffers.
func (s *Packed) Emit(w *container.Writer) error {
	defer s.releaseCompressed()
	data := func(i int) []byte {
		if s.compressed[i] == nil {
			return nil
		}
		return s.compressed[i].Data(0)
	}
	return w.OutputPacked(s.index, data(0), data(1), data(2), data(3))
}
