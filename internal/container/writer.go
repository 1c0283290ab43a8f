// Package container writes the knib file: a reserved header, one set
// record plus payload per unit of output, and a final header rewrite with
// the closing tallies. The Writer is single-threaded by contract; during
// encoding it is driven exclusively by the reorderer's writer goroutine.
package container

import (
	"errors"
	"fmt"
	"os"

	"github.com/pierrec/lz4/v4"

	"github.com/deepteams/knib/internal/header"
)

var (
	ErrClosed = errors.New("container: writer closed")
)

// Writer owns the output file and the in-memory file header.
type Writer struct {
	f      *os.File
	path   string
	hdr    header.FileHeader
	offset int64 // current write cursor; the file is only ever appended to
	closed bool

	lz4Enabled bool
	hc         lz4.CompressorHC

	// Scratch buffers grow monotonically to the largest set seen and are
	// reused for every subsequent set.
	uncompressed []byte
	compressed   []byte
	record       []byte
}

// NewWriter creates the output file and reserves the header bytes by
// writing a mostly-zero header. The header is rewritten on Close.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("container: create %s: %w", path, err)
	}
	w := &Writer{
		f:      f,
		path:   path,
		record: make([]byte, 0, header.SetRecordSize),
	}
	w.hdr.FirstSetOffset = header.HeaderSize
	if err := w.writeHeader(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	w.offset = header.HeaderSize
	return w, nil
}

func (w *Writer) writeHeader() error {
	buf := w.hdr.AppendBinary(make([]byte, 0, header.HeaderSize))
	if _, err := w.f.Write(buf); err != nil {
		return fmt.Errorf("container: write header: %w", err)
	}
	return nil
}

// SetSize records the source and stored frame dimensions. The stored
// dimensions differ from the source when padding rounded them up.
func (w *Writer) SetSize(origW, origH, frameW, frameH int) {
	w.hdr.OrigWidth = int32(origW)
	w.hdr.OrigHeight = int32(origH)
	w.hdr.FrameWidth = int32(frameW)
	w.hdr.FrameHeight = int32(frameH)
}

// SetFlags replaces the header flag word and latches whether set payloads
// are LZ4 compressed.
func (w *Writer) SetFlags(flags uint32) {
	w.hdr.Flags = flags
	w.lz4Enabled = flags&header.DataMask == header.DataLZ4
}

// SetFrames records the total number of frames delivered.
func (w *Writer) SetFrames(n int) {
	w.hdr.Frames = int32(n)
}

// Flags returns the current header flag word.
func (w *Writer) Flags() uint32 { return w.hdr.Flags }

// region pairs one channel's offset and size inside a set's uncompressed
// payload.
type region struct {
	off, size int
}

// OutputPlanar writes one set record holding the four planar channel
// buffers, concatenated Y‖Cb‖Cr‖A. a may be empty.
func (w *Writer) OutputPlanar(setIndex int, y, cb, cr, a []byte) error {
	if w.closed {
		return ErrClosed
	}
	if len(a) > 0 {
		w.hdr.Flags |= header.FlagAlpha
	}
	return w.outputPart(setIndex,
		[][]byte{y, cb, cr, a},
		region{0, len(y)},
		region{len(y), len(cb)},
		region{len(y) + len(cb), len(cr)},
		region{len(y) + len(cb) + len(cr), len(a)})
}

// OutputPacked writes the packed representation of a set: one record per
// populated RGB texture. The packed-alpha texture rides with the first
// record only; later records carry an empty alpha region.
func (w *Writer) OutputPacked(setIndex int, rgb0, rgb1, rgb2, a012 []byte) error {
	if w.closed {
		return ErrClosed
	}
	if len(a012) > 0 {
		w.hdr.Flags |= header.FlagAlpha
	}
	first := true
	for _, rgb := range [][]byte{rgb0, rgb1, rgb2} {
		if len(rgb) == 0 {
			continue
		}
		alpha := a012
		if !first {
			alpha = nil
		}
		first = false
		err := w.outputPart(setIndex,
			[][]byte{rgb, alpha},
			region{0, len(rgb)},
			region{},
			region{},
			region{len(rgb), len(alpha)})
		if err != nil {
			return err
		}
	}
	return nil
}

// outputPart stages the concatenated channel buffers, optionally LZ4
// compresses them, and writes one set record followed by the payload.
// regions are the y, cb, cr, a bookkeeping entries for the record.
func (w *Writer) outputPart(setIndex int, chunks [][]byte, y, cb, cr, a region) error {
	uncompressedLen := 0
	for _, c := range chunks {
		uncompressedLen += len(c)
	}

	// Single-channel payloads skip the staging copy.
	var payload []byte
	if n := nonEmpty(chunks); n == 1 {
		for _, c := range chunks {
			if len(c) > 0 {
				payload = c
			}
		}
	} else {
		w.uncompressed = grow(w.uncompressed, uncompressedLen)
		stage := w.uncompressed[:0]
		for _, c := range chunks {
			stage = append(stage, c...)
		}
		payload = stage
	}

	dataSize := uncompressedLen
	if w.lz4Enabled {
		bound := lz4.CompressBlockBound(uncompressedLen)
		w.compressed = grow(w.compressed, bound)
		n, err := w.hc.CompressBlock(payload, w.compressed[:bound])
		if err != nil {
			return fmt.Errorf("container: lz4: %w", err)
		}
		if n == 0 {
			// Incompressible input: store it as one literal run, which
			// is still a valid LZ4 block.
			n = storeLiteralBlock(w.compressed[:bound], payload)
		}
		payload = w.compressed[:n]
		dataSize = n
	}

	rec := header.SetRecord{
		DataOffset:           int32(w.offset) + header.SetRecordSize,
		DataSize:             int32(dataSize),
		DataUncompressedSize: int32(uncompressedLen),
		YOffset:              int32(y.off),
		YSize:                int32(y.size),
		CbOffset:             int32(cb.off),
		CbSize:               int32(cb.size),
		CrOffset:             int32(cr.off),
		CrSize:               int32(cr.size),
		AOffset:              int32(a.off),
		ASize:                int32(a.size),
		SetIndex:             int32(setIndex),
	}
	rec.NextSetOffset = rec.DataOffset + rec.DataSize

	w.record = rec.AppendBinary(w.record[:0])
	if _, err := w.f.Write(w.record); err != nil {
		return fmt.Errorf("container: write set record: %w", err)
	}
	if _, err := w.f.Write(payload); err != nil {
		return fmt.Errorf("container: write set payload: %w", err)
	}
	w.offset = int64(rec.NextSetOffset)

	if rec.DataSize > w.hdr.CompressedBufferSize {
		w.hdr.CompressedBufferSize = rec.DataSize
	}
	if w.lz4Enabled && rec.DataUncompressedSize > w.hdr.UncompressedBufferSize {
		w.hdr.UncompressedBufferSize = rec.DataUncompressedSize
	}
	return nil
}

func nonEmpty(chunks [][]byte) int {
	n := 0
	for _, c := range chunks {
		if len(c) > 0 {
			n++
		}
	}
	return n
}

// grow returns a buffer of at least n bytes, reusing b when it is already
// big enough. The buffer only ever grows.
func grow(b []byte, n int) []byte {
	if cap(b) >= n {
		return b[:n]
	}
	return make([]byte, n)
}

// storeLiteralBlock writes src into dst as a single LZ4 literal sequence
// and returns the encoded length. Used when the HC compressor reports the
// input incompressible, since the container format has no per-set "stored"
// escape: every payload under the LZ4 flag must be a decodable block.
func storeLiteralBlock(dst, src []byte) int {
	n := len(src)
	i := 0
	if n < 15 {
		dst[i] = byte(n) << 4
		i++
	} else {
		dst[i] = 0xf0
		i++
		for rem := n - 15; ; rem -= 255 {
			if rem < 255 {
				dst[i] = byte(rem)
				i++
				break
			}
			dst[i] = 255
			i++
		}
	}
	copy(dst[i:], src)
	return i + n
}

// Close rewrites the file header with the final tallies and closes the
// file. It runs on every exit path; calling it again is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var firstErr error
	if _, err := w.f.Seek(0, 0); err != nil {
		firstErr = fmt.Errorf("container: seek: %w", err)
	} else if err := w.writeHeader(); err != nil {
		firstErr = err
	}
	if err := w.f.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("container: close %s: %w", w.path, err)
	}
	return firstErr
}
