// Package header defines the knib container's on-disk file header and
// per-set record layouts. It exists separately from the root knib package
// so that internal/container (and other internal packages) can depend on
// the format definitions without importing the root package, which itself
// depends on internal/container.
package header

import (
	"encoding/binary"
	"errors"
)

// Header flag bits. The flags field of the file header combines one bit or
// value from each group below.
const (
	// FlagAlpha is set when the video carries an alpha channel.
	FlagAlpha uint32 = 1 << 0

	// Channel format. Exactly one must be set.
	ChannelsPlanar uint32 = 1 << 1 // block-compressed YCbCr(A) planes
	ChannelsPacked uint32 = 2 << 1 // block-compressed RGB(A) textures
	ChannelsMask   uint32 = 3 << 1

	// Set payload compression. Exactly one must be set.
	DataPlain uint32 = 1 << 22 // payload bytes stored as-is
	DataLZ4   uint32 = 2 << 22 // payload bytes LZ4 compressed
	DataMask  uint32 = 3 << 22

	// Texture format. Exactly one must be set. Grey is reserved for
	// readers; this encoder never produces it.
	TexGrey uint32 = 1 << 27
	TexETC1 uint32 = 2 << 27
	TexDXT1 uint32 = 3 << 27
	TexMask uint32 = 3 << 27
)

// Magic is the four-byte signature opening every knib file.
var Magic = [4]byte{'k', 'n', 'i', 'b'}

// Version is the container version written by this encoder.
const Version = 0

var (
	ErrBadMagic   = errors.New("knib: bad magic")
	ErrBadVersion = errors.New("knib: unsupported version")
	ErrTruncated  = errors.New("knib: truncated data")
)

// HeaderSize is the encoded size of a FileHeader in bytes. It is also the
// file offset of the first set record.
const HeaderSize = 48

// SetRecordSize is the encoded size of a SetRecord in bytes.
const SetRecordSize = 52

// FileHeader is the fixed header at offset 0 of a knib file. It is written
// once, mostly zero, when the file is opened to reserve its bytes, and
// rewritten with the final tallies when encoding finishes.
//
// All integer fields are little-endian int32 on disk.
type FileHeader struct {
	Flags                  uint32
	OrigWidth              int32 // width of the input media
	OrigHeight             int32 // height of the input media
	FrameWidth             int32 // stored frame width (padded to a multiple of 8)
	FrameHeight            int32 // stored frame height (padded to a multiple of 8)
	Frames                 int32 // total number of frames delivered
	Framerate              int32 // unused, written as zero
	CompressedBufferSize   int32 // size of the largest set payload on disk
	UncompressedBufferSize int32 // size of the largest payload once uncompressed (LZ4 only)
	FirstSetOffset         int32 // offset of the first set record; always HeaderSize
}

// AppendBinary appends the 48-byte encoding of h to dst.
func (h *FileHeader) AppendBinary(dst []byte) []byte {
	dst = append(dst, Magic[:]...)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(Version))
	dst = binary.LittleEndian.AppendUint32(dst, h.Flags)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(h.OrigWidth))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(h.OrigHeight))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(h.FrameWidth))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(h.FrameHeight))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(h.Frames))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(h.Framerate))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(h.CompressedBufferSize))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(h.UncompressedBufferSize))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(h.FirstSetOffset))
	return dst
}

// ParseFileHeader decodes a FileHeader from the first HeaderSize bytes of
// data. It verifies the magic and version.
func ParseFileHeader(data []byte) (FileHeader, error) {
	if len(data) < HeaderSize {
		return FileHeader{}, ErrTruncated
	}
	if data[0] != Magic[0] || data[1] != Magic[1] || data[2] != Magic[2] || data[3] != Magic[3] {
		return FileHeader{}, ErrBadMagic
	}
	if v := int32(binary.LittleEndian.Uint32(data[4:8])); v != Version {
		return FileHeader{}, ErrBadVersion
	}
	var h FileHeader
	h.Flags = binary.LittleEndian.Uint32(data[8:12])
	h.OrigWidth = int32(binary.LittleEndian.Uint32(data[12:16]))
	h.OrigHeight = int32(binary.LittleEndian.Uint32(data[16:20]))
	h.FrameWidth = int32(binary.LittleEndian.Uint32(data[20:24]))
	h.FrameHeight = int32(binary.LittleEndian.Uint32(data[24:28]))
	h.Frames = int32(binary.LittleEndian.Uint32(data[28:32]))
	h.Framerate = int32(binary.LittleEndian.Uint32(data[32:36]))
	h.CompressedBufferSize = int32(binary.LittleEndian.Uint32(data[36:40]))
	h.UncompressedBufferSize = int32(binary.LittleEndian.Uint32(data[40:44]))
	h.FirstSetOffset = int32(binary.LittleEndian.Uint32(data[44:48]))
	return h, nil
}

// SetRecord is the per-set header preceding each set's payload.
//
// The y/cb/cr/a offset and size pairs locate each channel inside the
// uncompressed payload. In packed mode the record describes a single RGB
// texture in the y fields and the packed-alpha texture in the a fields;
// the cb and cr fields are zero.
type SetRecord struct {
	DataOffset           int32 // file offset of this set's payload
	DataSize             int32 // payload size on disk
	DataUncompressedSize int32 // payload size once uncompressed
	YOffset              int32
	YSize                int32
	CbOffset             int32
	CbSize               int32
	CrOffset             int32
	CrSize               int32
	AOffset              int32
	ASize                int32
	NextSetOffset        int32 // file offset of the next set record
	SetIndex             int32 // position of this set in the encode order
}

// AppendBinary appends the 52-byte encoding of r to dst.
func (r *SetRecord) AppendBinary(dst []byte) []byte {
	for _, v := range [13]int32{
		r.DataOffset, r.DataSize, r.DataUncompressedSize,
		r.YOffset, r.YSize,
		r.CbOffset, r.CbSize,
		r.CrOffset, r.CrSize,
		r.AOffset, r.ASize,
		r.NextSetOffset, r.SetIndex,
	} {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(v))
	}
	return dst
}

// ParseSetRecord decodes a SetRecord from the first SetRecordSize bytes of
// data.
func ParseSetRecord(data []byte) (SetRecord, error) {
	if len(data) < SetRecordSize {
		return SetRecord{}, ErrTruncated
	}
	var f [13]int32
	for i := range f {
		f[i] = int32(binary.LittleEndian.Uint32(data[i*4 : i*4+4]))
	}
	return SetRecord{
		DataOffset:           f[0],
		DataSize:             f[1],
		DataUncompressedSize: f[2],
		YOffset:              f[3],
		YSize:                f[4],
		CbOffset:             f[5],
		CbSize:               f[6],
		CrOffset:             f[7],
		CrSize:               f[8],
		AOffset:              f[9],
		ASize:                f[10],
		NextSetOffset:        f[11],
		SetIndex:             f[12],
	}, nil
}
