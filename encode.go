package knib

import (
	"fmt"

	"github.com/deepteams/knib/internal/container"
	"github.com/deepteams/knib/internal/imageio"
	"github.com/deepteams/knib/internal/pipeline"
	"github.com/deepteams/knib/internal/texture"
	"github.com/deepteams/knib/internal/workset"
)

// TextureFormat selects the GPU block compression of the output.
type TextureFormat int

const (
	// TextureDXT1 targets desktop GPUs.
	TextureDXT1 TextureFormat = iota
	// TextureETC1 targets embedded GPUs.
	TextureETC1
)

// Quality selects the block encoder's effort level.
type Quality int

const (
	QualityHigh Quality = iota
	QualityMedium
	QualityLow
)

// ParseQuality maps the CLI quality names HI, MED and LO to a Quality.
func ParseQuality(s string) (Quality, error) {
	q, err := texture.ParseQuality(s)
	if err != nil {
		return 0, fmt.Errorf("knib: %w", err)
	}
	switch q {
	case texture.QualityMedium:
		return QualityMedium, nil
	case texture.QualityLow:
		return QualityLow, nil
	default:
		return QualityHigh, nil
	}
}

// EncodeOptions parameterizes EncodeSequence. Template and Output are
// required; the zero value of everything else is a sensible default
// (planar, DXT1, no LZ4, highest quality, frame range 0..0).
type EncodeOptions struct {
	// Template is a printf-style path pattern with one integer verb,
	// e.g. "frames/img_%04d.png".
	Template string
	// Output is the path of the knib file to create.
	Output string

	// From, To and Increment define the inclusive frame index range.
	// Increment defaults to 1 and must not be zero. When From > To and
	// Increment is positive, the increment's sign is flipped — the
	// common way to ask for a reverse range.
	From      int
	To        int
	Increment int

	// Format is the texture compression target.
	Format TextureFormat
	// Packed stores one RGB texture per frame instead of shared
	// YCbCrA planes.
	Packed bool
	// LZ4 compresses each set's payload.
	LZ4 bool
	// Quality is the block encoder effort.
	Quality Quality
	// NoDither disables the error-diffusion kernel during block
	// compression.
	NoDither bool

	// Workers is the block-compression thread count; 0 means the
	// default of 8.
	Workers int

	// Progress, when non-nil, is called from the orchestrating
	// goroutine after each frame is handed to the pipeline.
	Progress func(framesDelivered int)
}

// Result reports what EncodeSequence produced.
type Result struct {
	Frames int // frames actually delivered
	Sets   int // set count (groups of up to three frames)

	OrigWidth   int
	OrigHeight  int
	FrameWidth  int // padded
	FrameHeight int // padded
	Alpha       bool

	// ReadErr is the frame-load failure that cut the range short, or
	// nil. A partial encode is still a valid file; callers decide
	// whether to treat this as fatal.
	ReadErr error
}

func (q Quality) blockQuality() texture.Quality {
	switch q {
	case QualityMedium:
		return texture.QualityMedium
	case QualityLow:
		return texture.QualityLow
	default:
		return texture.QualityHigh
	}
}

// EncodeSequence runs the full pipeline: it stats the first frame to size
// the container, streams and decodes the range, groups frames into sets of
// three, block-compresses the sets on a worker pool, and writes them to
// the container in source order. On every exit path — including pipeline
// failures — the container's header is rewritten so the file on disk
// truthfully describes whatever was written.
func EncodeSequence(opts EncodeOptions) (*Result, error) {
	from, to, inc := opts.From, opts.To, opts.Increment
	if inc == 0 {
		inc = 1
	}
	// Fix the expected common mistake: from 10 to 1, increment 1.
	if from > to && inc > 0 {
		inc = -inc
	}

	origW, origH, alpha, err := imageio.Stat(opts.Template, from)
	if err != nil {
		return nil, fmt.Errorf("knib: stat first frame: %w", err)
	}
	padW := workset.PadDimension(origW)
	padH := workset.PadDimension(origH)

	flags := ChannelsPlanar
	if opts.Packed {
		flags = ChannelsPacked
	}
	if opts.LZ4 {
		flags |= DataLZ4
	} else {
		flags |= DataPlain
	}
	if opts.Format == TextureETC1 {
		flags |= TexETC1
	} else {
		flags |= TexDXT1
	}
	if alpha {
		flags |= FlagAlpha
	}

	w, err := container.NewWriter(opts.Output)
	if err != nil {
		return nil, fmt.Errorf("knib: %w", err)
	}
	defer w.Close()
	w.SetSize(origW, origH, padW, padH)
	w.SetFlags(flags)

	texFmt := texture.DXT1
	if opts.Format == TextureETC1 {
		texFmt = texture.ETC1
	}
	kernel := texture.KernelDefault
	if opts.NoDither {
		kernel = texture.KernelNone
	}
	cfg := workset.Config{
		Width:   padW,
		Height:  padH,
		Alpha:   alpha,
		Format:  texFmt,
		Kernel:  kernel,
		Quality: opts.Quality.blockQuality(),
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = pipeline.DefaultWorkers
	}
	reorder := pipeline.NewReorderer(w, 2*workers)
	pool := pipeline.NewPool(workers, reorder)
	reader := pipeline.NewFrameReader(opts.Template, from, to, inc)

	newSet := func(frames [workset.FramesPerSet]*imageio.Image, index int) pipeline.Set {
		if opts.Packed {
			return workset.NewPacked(frames, cfg, index)
		}
		return workset.NewPlanar(frames, cfg, index)
	}

	var slots [workset.FramesPerSet]*imageio.Image
	frames := 0
	setIndex := 0
	for {
		img, ok := reader.Next()
		if !ok {
			break
		}
		slots[frames%workset.FramesPerSet] = img
		frames++
		if opts.Progress != nil {
			opts.Progress(frames)
		}
		if frames%workset.FramesPerSet == 0 {
			pool.Add(newSet(slots, setIndex))
			setIndex++
			slots = [workset.FramesPerSet]*imageio.Image{}
		}
	}
	if frames%workset.FramesPerSet != 0 {
		pool.Add(newSet(slots, setIndex))
		setIndex++
	}

	poolErr := pool.Finish()
	reorder.SetFinalIndex(setIndex - 1)
	writeErr := reorder.Wait()

	// The header must reflect the frames delivered even when the
	// pipeline failed partway.
	w.SetFrames(frames)

	if poolErr != nil {
		reader.Drain()
		return nil, fmt.Errorf("knib: %w", poolErr)
	}
	if writeErr != nil {
		reader.Drain()
		return nil, fmt.Errorf("knib: %w", writeErr)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("knib: %w", err)
	}

	return &Result{
		Frames:      frames,
		Sets:        setIndex,
		OrigWidth:   origW,
		OrigHeight:  origH,
		FrameWidth:  padW,
		FrameHeight: padH,
		Alpha:       alpha,
		ReadErr:     reader.Err(),
	}, nil
}
