package main

import (
	"errors"
	"testing"

	"github.com/deepteams/knib"
)

func TestBuildOptionsValidation(t *testing.T) {
	tests := []struct {
		name    string
		o       cliOptions
		wantErr bool
	}{
		{"no texture format", cliOptions{inc: 1}, true},
		{"both texture formats", cliOptions{dxt1: true, etc1: true, inc: 1, quality: "HI"}, true},
		{"zero increment", cliOptions{dxt1: true, inc: 0, quality: "HI"}, true},
		{"bad quality", cliOptions{dxt1: true, inc: 1, quality: "ULTRA"}, true},
		{"ok dxt1", cliOptions{dxt1: true, inc: 1, quality: "HI"}, false},
		{"ok etc1 lz4", cliOptions{etc1: true, lz4: true, inc: -2, quality: "lo"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := buildOptions(&tt.o, "in_%d.png", "out.knib")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if opts.Template != "in_%d.png" || opts.Output != "out.knib" {
				t.Errorf("paths not carried over: %+v", opts)
			}
		})
	}
}

func TestBuildOptionsMapping(t *testing.T) {
	o := cliOptions{
		etc1:    true,
		lz4:     true,
		packed:  true,
		quality: "MED",
		from:    10,
		to:      1,
		inc:     1,
		threads: 4,
	}
	opts, err := buildOptions(&o, "f_%03d.png", "o.knib")
	if err != nil {
		t.Fatal(err)
	}
	if opts.Format != knib.TextureETC1 {
		t.Errorf("format = %v, want ETC1", opts.Format)
	}
	if !opts.LZ4 || !opts.Packed {
		t.Error("lz4/packed flags not carried over")
	}
	if opts.Quality != knib.QualityMedium {
		t.Errorf("quality = %v, want medium", opts.Quality)
	}
	if opts.From != 10 || opts.To != 1 || opts.Increment != 1 {
		t.Errorf("range = %d..%d step %d", opts.From, opts.To, opts.Increment)
	}
	if opts.Workers != 4 {
		t.Errorf("workers = %d, want 4", opts.Workers)
	}
}

func TestNoTextureFormatError(t *testing.T) {
	o := cliOptions{inc: 1, quality: "HI"}
	_, err := buildOptions(&o, "a_%d.png", "b.knib")
	if !errors.Is(err, errNoTextureFormat) {
		t.Errorf("err = %v, want errNoTextureFormat", err)
	}
}

func TestRangeLength(t *testing.T) {
	tests := []struct {
		from, to, inc, want int
	}{
		{1, 10, 1, 10},
		{1, 10, 3, 4},
		{10, 1, -1, 10},
		{10, 1, 1, 10}, // auto-negated
		{5, 5, 1, 1},
	}
	for _, tt := range tests {
		if got := rangeLength(tt.from, tt.to, tt.inc); got != tt.want {
			t.Errorf("rangeLength(%d, %d, %d) = %d, want %d",
				tt.from, tt.to, tt.inc, got, tt.want)
		}
	}
}

func TestRootCommandRejectsBadArgCount(t *testing.T) {
	cmd := newRootCmd(nil)
	cmd.SetArgs([]string{"only-one-arg"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected an error for a single positional argument")
	}
}
