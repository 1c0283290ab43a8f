package knib

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4/v4"
)

// writeFrame writes one synthetic PNG frame. Pixel values depend on the
// seed so distinct frames have distinct content. When alpha is false the
// image is fully opaque and the PNG encoder emits a plain truecolor file.
func writeFrame(t *testing.T, path string, w, h, seed int, alpha bool) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := uint8(255)
			if alpha {
				a = uint8(10 + (x+y+seed)*7%240)
			}
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x*16 + seed*40) % 256),
				G: uint8((y*16 + seed*80) % 256),
				B: uint8((x + y + seed) % 256),
				A: a,
			})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating frame: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encoding frame: %v", err)
	}
}

// makeFrames writes n frames named img_%02d.png, numbered from 1, and
// returns the path template. content(i) gives the seed of frame i.
func makeFrames(t *testing.T, n, w, h int, alpha bool, content func(i int) int) string {
	t.Helper()
	dir := t.TempDir()
	template := filepath.Join(dir, "img_%02d.png")
	for i := 1; i <= n; i++ {
		writeFrame(t, fmt.Sprintf(template, i), w, h, content(i), alpha)
	}
	return template
}

func identitySeed(i int) int { return i }

// parsedFile is a decoded knib file: header, set records and payloads.
type parsedFile struct {
	hdr      FileHeader
	recs     []SetRecord
	payloads [][]byte
}

// parseKnib walks an encoded file and verifies the structural chaining
// invariants as it goes.
func parseKnib(t *testing.T, path string) parsedFile {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	hdr, err := ParseFileHeader(data)
	if err != nil {
		t.Fatalf("parsing header: %v", err)
	}
	if hdr.FirstSetOffset != HeaderSize {
		t.Errorf("first_set_offset = %d, want %d", hdr.FirstSetOffset, HeaderSize)
	}

	pf := parsedFile{hdr: hdr}
	off := int(hdr.FirstSetOffset)
	for off < len(data) {
		rec, err := ParseSetRecord(data[off:])
		if err != nil {
			t.Fatalf("parsing set record at %d: %v", off, err)
		}
		if int(rec.DataOffset) != off+SetRecordSize {
			t.Errorf("record at %d: data_offset = %d, want %d", off, rec.DataOffset, off+SetRecordSize)
		}
		if rec.NextSetOffset != rec.DataOffset+rec.DataSize {
			t.Errorf("record at %d: next_set_offset = %d, want %d",
				off, rec.NextSetOffset, rec.DataOffset+rec.DataSize)
		}
		pf.recs = append(pf.recs, rec)
		pf.payloads = append(pf.payloads, data[rec.DataOffset:rec.NextSetOffset])
		off = int(rec.NextSetOffset)
	}
	if off != len(data) {
		t.Errorf("trailing bytes: walked to %d, file is %d", off, len(data))
	}

	// The buffer-size maxima must match what the records claim.
	var maxComp, maxUncomp int32
	for _, r := range pf.recs {
		if r.DataSize > maxComp {
			maxComp = r.DataSize
		}
		if r.DataUncompressedSize > maxUncomp {
			maxUncomp = r.DataUncompressedSize
		}
	}
	if hdr.CompressedBufferSize != maxComp {
		t.Errorf("compressed_buffer_size = %d, want %d", hdr.CompressedBufferSize, maxComp)
	}
	if hdr.Flags&DataMask == DataLZ4 {
		if hdr.UncompressedBufferSize != maxUncomp {
			t.Errorf("uncompressed_buffer_size = %d, want %d", hdr.UncompressedBufferSize, maxUncomp)
		}
	} else if hdr.UncompressedBufferSize != 0 {
		t.Errorf("uncompressed_buffer_size = %d, want 0 without LZ4", hdr.UncompressedBufferSize)
	}
	return pf
}

func TestEncodePlanarNoAlpha(t *testing.T) {
	template := makeFrames(t, 3, 8, 8, false, identitySeed)
	out := filepath.Join(t.TempDir(), "out.knib")

	res, err := EncodeSequence(EncodeOptions{
		Template: template,
		Output:   out,
		From:     1,
		To:       3,
		Workers:  2,
	})
	if err != nil {
		t.Fatalf("EncodeSequence: %v", err)
	}
	if res.Frames != 3 || res.Sets != 1 {
		t.Errorf("frames/sets = %d/%d, want 3/1", res.Frames, res.Sets)
	}
	if res.ReadErr != nil {
		t.Errorf("unexpected read error: %v", res.ReadErr)
	}

	pf := parseKnib(t, out)
	if got := pf.hdr.Flags; got != ChannelsPlanar|DataPlain|TexDXT1 {
		t.Errorf("flags = %#x, want %#x", got, ChannelsPlanar|DataPlain|TexDXT1)
	}
	if pf.hdr.Frames != 3 {
		t.Errorf("frames = %d, want 3", pf.hdr.Frames)
	}
	if pf.hdr.OrigWidth != 8 || pf.hdr.FrameWidth != 8 {
		t.Errorf("widths = %d/%d, want 8/8", pf.hdr.OrigWidth, pf.hdr.FrameWidth)
	}
	if len(pf.recs) != 1 {
		t.Fatalf("records = %d, want 1", len(pf.recs))
	}

	// 8x8 luma is four 4x4 blocks of 8 bytes; 4x4 chroma is one block.
	rec := pf.recs[0]
	if rec.YSize != 32 || rec.CbSize != 8 || rec.CrSize != 8 || rec.ASize != 0 {
		t.Errorf("plane sizes = %d/%d/%d/%d, want 32/8/8/0",
			rec.YSize, rec.CbSize, rec.CrSize, rec.ASize)
	}
	if rec.YOffset != 0 || rec.CbOffset != 32 || rec.CrOffset != 40 || rec.AOffset != 48 {
		t.Errorf("plane offsets = %d/%d/%d/%d, want 0/32/40/48",
			rec.YOffset, rec.CbOffset, rec.CrOffset, rec.AOffset)
	}
	if rec.DataSize != 48 || rec.DataUncompressedSize != 48 {
		t.Errorf("data sizes = %d/%d, want 48/48", rec.DataSize, rec.DataUncompressedSize)
	}
	if rec.SetIndex != 0 {
		t.Errorf("set index = %d, want 0", rec.SetIndex)
	}
}

func TestEncodeLZ4RoundTrip(t *testing.T) {
	template := makeFrames(t, 3, 8, 8, false, identitySeed)
	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.knib")
	packed := filepath.Join(dir, "lz4.knib")

	base := EncodeOptions{Template: template, From: 1, To: 3, Workers: 2}

	optsPlain := base
	optsPlain.Output = plain
	if _, err := EncodeSequence(optsPlain); err != nil {
		t.Fatalf("plain encode: %v", err)
	}
	optsLZ4 := base
	optsLZ4.Output = packed
	optsLZ4.LZ4 = true
	if _, err := EncodeSequence(optsLZ4); err != nil {
		t.Fatalf("lz4 encode: %v", err)
	}

	pp := parseKnib(t, plain)
	pl := parseKnib(t, packed)
	if pl.hdr.Flags&DataMask != DataLZ4 {
		t.Fatalf("lz4 flags = %#x, want DataLZ4 set", pl.hdr.Flags)
	}
	if len(pp.recs) != len(pl.recs) {
		t.Fatalf("record counts differ: %d vs %d", len(pp.recs), len(pl.recs))
	}
	for i := range pl.recs {
		if pl.recs[i].DataUncompressedSize != pp.recs[i].DataSize {
			t.Errorf("record %d: uncompressed size %d, want %d",
				i, pl.recs[i].DataUncompressedSize, pp.recs[i].DataSize)
		}
		dst := make([]byte, pl.recs[i].DataUncompressedSize)
		n, err := lz4.UncompressBlock(pl.payloads[i], dst)
		if err != nil {
			t.Fatalf("record %d: lz4 decompress: %v", i, err)
		}
		if !bytes.Equal(dst[:n], pp.payloads[i]) {
			t.Errorf("record %d: decompressed payload differs from plain encode", i)
		}
	}
}

func TestEncodeAlphaPartialSet(t *testing.T) {
	template := makeFrames(t, 4, 16, 16, true, identitySeed)
	out := filepath.Join(t.TempDir(), "out.knib")

	res, err := EncodeSequence(EncodeOptions{
		Template: template,
		Output:   out,
		From:     1,
		To:       4,
		Format:   TextureETC1,
		Workers:  2,
	})
	if err != nil {
		t.Fatalf("EncodeSequence: %v", err)
	}
	if res.Frames != 4 || res.Sets != 2 {
		t.Errorf("frames/sets = %d/%d, want 4/2", res.Frames, res.Sets)
	}
	if !res.Alpha {
		t.Error("alpha not detected")
	}

	pf := parseKnib(t, out)
	if pf.hdr.Flags&FlagAlpha == 0 {
		t.Error("FlagAlpha not set")
	}
	if pf.hdr.Flags&TexMask != TexETC1 {
		t.Errorf("texture flags = %#x, want ETC1", pf.hdr.Flags&TexMask)
	}
	if len(pf.recs) != 2 {
		t.Fatalf("records = %d, want 2", len(pf.recs))
	}
	for i, rec := range pf.recs {
		if rec.ASize == 0 {
			t.Errorf("record %d: a_size = 0, want > 0", i)
		}
		if rec.SetIndex != int32(i) {
			t.Errorf("record %d: set index = %d", i, rec.SetIndex)
		}
	}
}

func TestEncodePackedPadding(t *testing.T) {
	template := makeFrames(t, 3, 10, 10, false, identitySeed)
	out := filepath.Join(t.TempDir(), "out.knib")

	res, err := EncodeSequence(EncodeOptions{
		Template: template,
		Output:   out,
		From:     1,
		To:       3,
		Packed:   true,
		Workers:  2,
	})
	if err != nil {
		t.Fatalf("EncodeSequence: %v", err)
	}
	if res.FrameWidth != 16 || res.FrameHeight != 16 {
		t.Errorf("padded dims = %dx%d, want 16x16", res.FrameWidth, res.FrameHeight)
	}

	pf := parseKnib(t, out)
	if pf.hdr.OrigWidth != 10 || pf.hdr.OrigHeight != 10 {
		t.Errorf("orig dims = %dx%d, want 10x10", pf.hdr.OrigWidth, pf.hdr.OrigHeight)
	}
	if pf.hdr.FrameWidth != 16 || pf.hdr.FrameHeight != 16 {
		t.Errorf("frame dims = %dx%d, want 16x16", pf.hdr.FrameWidth, pf.hdr.FrameHeight)
	}
	if pf.hdr.Flags&ChannelsMask != ChannelsPacked {
		t.Errorf("channel flags = %#x, want packed", pf.hdr.Flags&ChannelsMask)
	}
	// Packed mode: one record per frame, all from set 0.
	if len(pf.recs) != 3 {
		t.Fatalf("records = %d, want 3", len(pf.recs))
	}
	// 16x16 DXT1 is sixteen 8-byte blocks.
	for i, rec := range pf.recs {
		if rec.YSize != 128 {
			t.Errorf("record %d: y_size = %d, want 128", i, rec.YSize)
		}
		if rec.CbSize != 0 || rec.CrSize != 0 || rec.ASize != 0 {
			t.Errorf("record %d: cb/cr/a sizes = %d/%d/%d, want 0/0/0",
				i, rec.CbSize, rec.CrSize, rec.ASize)
		}
		if rec.SetIndex != 0 {
			t.Errorf("record %d: set index = %d, want 0", i, rec.SetIndex)
		}
	}
}

func TestEncodePackedAlpha(t *testing.T) {
	template := makeFrames(t, 3, 8, 8, true, identitySeed)
	out := filepath.Join(t.TempDir(), "out.knib")

	if _, err := EncodeSequence(EncodeOptions{
		Template: template,
		Output:   out,
		From:     1,
		To:       3,
		Format:   TextureETC1,
		Packed:   true,
		Workers:  2,
	}); err != nil {
		t.Fatalf("EncodeSequence: %v", err)
	}

	pf := parseKnib(t, out)
	if len(pf.recs) != 3 {
		t.Fatalf("records = %d, want 3", len(pf.recs))
	}
	// The shared alpha texture rides with the first record only.
	first := pf.recs[0]
	if first.ASize == 0 {
		t.Error("first record: a_size = 0, want > 0")
	}
	if first.AOffset != first.YSize {
		t.Errorf("first record: a_off = %d, want %d", first.AOffset, first.YSize)
	}
	for i, rec := range pf.recs[1:] {
		if rec.ASize != 0 {
			t.Errorf("record %d: a_size = %d, want 0", i+1, rec.ASize)
		}
	}
	for i, rec := range pf.recs {
		if rec.YOffset != 0 {
			t.Errorf("record %d: y_off = %d, want 0", i, rec.YOffset)
		}
	}
}

func TestWorkerCountDeterminism(t *testing.T) {
	template := makeFrames(t, 7, 16, 16, true, identitySeed)
	dir := t.TempDir()

	var files [2]string
	for i, workers := range []int{1, 8} {
		out := filepath.Join(dir, fmt.Sprintf("out_%d.knib", workers))
		files[i] = out
		if _, err := EncodeSequence(EncodeOptions{
			Template: template,
			Output:   out,
			From:     1,
			To:       7,
			LZ4:      true,
			Workers:  workers,
		}); err != nil {
			t.Fatalf("encode with %d workers: %v", workers, err)
		}
	}
	a, _ := os.ReadFile(files[0])
	b, _ := os.ReadFile(files[1])
	if !bytes.Equal(a, b) {
		t.Error("output differs between 1 and 8 workers")
	}
}

func TestReverseRange(t *testing.T) {
	// Directory A numbered 1..4 with content 1..4; directory B numbered
	// 1..4 with the content order reversed. Encoding A backwards must
	// produce the same bytes as encoding B forwards.
	tA := makeFrames(t, 4, 8, 8, false, identitySeed)
	tB := makeFrames(t, 4, 8, 8, false, func(i int) int { return 5 - i })
	dir := t.TempDir()
	outA := filepath.Join(dir, "a.knib")
	outB := filepath.Join(dir, "b.knib")

	// from > to with a positive increment: the encoder flips the sign.
	if _, err := EncodeSequence(EncodeOptions{
		Template: tA, Output: outA, From: 4, To: 1, Increment: 1, Workers: 2,
	}); err != nil {
		t.Fatalf("reverse encode: %v", err)
	}
	if _, err := EncodeSequence(EncodeOptions{
		Template: tB, Output: outB, From: 1, To: 4, Increment: 1, Workers: 2,
	}); err != nil {
		t.Fatalf("forward encode: %v", err)
	}

	a, _ := os.ReadFile(outA)
	b, _ := os.ReadFile(outB)
	if !bytes.Equal(a, b) {
		t.Error("reverse range output differs from equivalent forward encode")
	}
}

func TestEncodeFirstFrameUndecodable(t *testing.T) {
	// A PNG truncated after its header: Stat (DecodeConfig) succeeds but
	// the full decode fails, so zero frames are delivered and the file
	// holds only the header.
	dir := t.TempDir()
	template := filepath.Join(dir, "img_%02d.png")
	writeFrame(t, fmt.Sprintf(template, 1), 8, 8, 1, false)
	full, err := os.ReadFile(fmt.Sprintf(template, 1))
	if err != nil {
		t.Fatal(err)
	}
	// PNG signature (8) + IHDR chunk (25) is enough for DecodeConfig.
	if err := os.WriteFile(fmt.Sprintf(template, 1), full[:33], 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out.knib")
	res, err := EncodeSequence(EncodeOptions{
		Template: template, Output: out, From: 1, To: 1, Workers: 2,
	})
	if err != nil {
		t.Fatalf("EncodeSequence: %v", err)
	}
	if res.Frames != 0 || res.Sets != 0 {
		t.Errorf("frames/sets = %d/%d, want 0/0", res.Frames, res.Sets)
	}
	if res.ReadErr == nil {
		t.Error("expected a read error")
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != HeaderSize {
		t.Errorf("file size = %d, want header only (%d)", len(data), HeaderSize)
	}
	pf := parseKnib(t, out)
	if pf.hdr.Frames != 0 || pf.hdr.CompressedBufferSize != 0 {
		t.Errorf("frames/compressed_buffer_size = %d/%d, want 0/0",
			pf.hdr.Frames, pf.hdr.CompressedBufferSize)
	}
}

func TestEncodeMissingFirstFrame(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.knib")
	_, err := EncodeSequence(EncodeOptions{
		Template: filepath.Join(t.TempDir(), "missing_%d.png"),
		Output:   out,
		From:     1,
		To:       3,
	})
	if err == nil {
		t.Fatal("expected an error for a missing first frame")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("output file should not exist when the first frame cannot be statted")
	}
}

func TestParseQuality(t *testing.T) {
	tests := []struct {
		in      string
		want    Quality
		wantErr bool
	}{
		{"HI", QualityHigh, false},
		{"hi", QualityHigh, false},
		{"MED", QualityMedium, false},
		{"LO", QualityLow, false},
		{"ultra", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseQuality(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseQuality(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseQuality(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
