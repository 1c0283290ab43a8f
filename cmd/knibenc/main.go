// Command knibenc encodes a numbered frame series into a knib video file.
//
// Usage:
//
//	knibenc [flags] <path_template> <output_file>
//
// The path template is a printf-style pattern with one integer verb,
// e.g. "frames/img_%04d.png". Exactly one texture format flag (--DXT1 or
// --ETC1) is required.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/deepteams/knib"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "knibenc: %v\n", err)
		os.Exit(1)
	}
}

// cliOptions collects the flag values before they are validated into
// knib.EncodeOptions.
type cliOptions struct {
	dxt1    bool
	etc1    bool
	lz4     bool
	packed  bool
	quality string
	from    int
	to      int
	inc     int
	threads int
	quiet   bool
}

var errNoTextureFormat = errors.New("a texture format is required: use --DXT1 for desktop targets, --ETC1 for embedded targets")

func newRootCmd(out io.Writer) *cobra.Command {
	var o cliOptions

	cmd := &cobra.Command{
		Use:   "knibenc <path_template> <output_file>",
		Short: "Encode a frame series into a knib video file",
		Long: `knibenc encodes a numbered frame series (PNG or JPEG) into a knib
container: GPU-ready DXT1 or ETC1 texture blocks that play back with
almost no CPU.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(out, &o, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&o.dxt1, "DXT1", "D", false, "use DXT1 texture compression")
	f.BoolVarP(&o.etc1, "ETC1", "E", false, "use ETC1 texture compression")
	f.BoolVarP(&o.lz4, "LZ4", "L", false, "use LZ4 file compression")
	f.BoolVarP(&o.packed, "packed", "P", false, "store packed RGB textures instead of planar YCbCrA")
	f.StringVarP(&o.quality, "quality", "q", "HI", "texture compression quality (HI|MED|LO)")
	f.IntVarP(&o.from, "from-frame", "f", 0, "first frame number")
	f.IntVarP(&o.to, "to-frame", "t", 0, "last frame number")
	f.IntVarP(&o.inc, "increment-frame", "i", 1, "frame number increment")
	f.IntVarP(&o.threads, "threads", "j", 0, "compression worker count (0 = default)")
	f.BoolVar(&o.quiet, "quiet", false, "suppress progress output")
	return cmd
}

// buildOptions validates the CLI surface and produces encoder options.
func buildOptions(o *cliOptions, template, output string) (knib.EncodeOptions, error) {
	var opts knib.EncodeOptions

	if o.inc == 0 {
		return opts, errors.New("frame increment must not be zero")
	}
	switch {
	case o.dxt1 && o.etc1:
		return opts, errors.New("--DXT1 and --ETC1 are mutually exclusive")
	case o.dxt1:
		opts.Format = knib.TextureDXT1
	case o.etc1:
		opts.Format = knib.TextureETC1
	default:
		return opts, errNoTextureFormat
	}
	q, err := knib.ParseQuality(o.quality)
	if err != nil {
		return opts, err
	}

	opts.Template = template
	opts.Output = output
	opts.From = o.from
	opts.To = o.to
	opts.Increment = o.inc
	opts.Quality = q
	opts.LZ4 = o.lz4
	opts.Packed = o.packed
	opts.Workers = o.threads
	return opts, nil
}

// rangeLength returns the nominal frame count of the inclusive range after
// the reverse-range fixup, for sizing the progress bar.
func rangeLength(from, to, inc int) int {
	if from > to && inc > 0 {
		inc = -inc
	}
	n := (to-from)/inc + 1
	if n < 0 {
		return 0
	}
	return n
}

func run(out io.Writer, o *cliOptions, template, output string) error {
	opts, err := buildOptions(o, template, output)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	if !o.quiet {
		bar = progressbar.NewOptions(rangeLength(o.from, o.to, o.inc),
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("encoding"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		opts.Progress = func(frames int) { _ = bar.Set(frames) }
	}

	res, err := knib.EncodeSequence(opts)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}

	if !o.quiet {
		if res.Alpha {
			fmt.Fprintln(out, "Source has alpha channel.")
		} else {
			fmt.Fprintln(out, "No alpha channel.")
		}
		color.New(color.FgGreen).Fprintf(out, "%s: %d frames in %d sets (%dx%d",
			output, res.Frames, res.Sets, res.OrigWidth, res.OrigHeight)
		if res.FrameWidth != res.OrigWidth || res.FrameHeight != res.OrigHeight {
			fmt.Fprintf(out, ", stored %dx%d", res.FrameWidth, res.FrameHeight)
		}
		fmt.Fprintln(out, ")")
	}
	if res.ReadErr != nil {
		color.New(color.FgYellow).Fprintf(os.Stderr,
			"knibenc: frame range cut short: %v\n", res.ReadErr)
	}
	return nil
}
