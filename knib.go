// Package knib implements an encoder for the knib video container.
//
// Knib (the 'k' is silent) stores a frame series as GPU-ready
// texture-compressed blocks (DXT1 or ETC1) so that playback needs almost no
// CPU: a player uploads each set's data straight into textures and lets a
// fragment shader pick the right frame. Frames are grouped in sets of three
// and stored either planar (YCbCrA 4:2:0, the three frames' samples
// interleaved byte-wise inside each plane) or packed (one RGB texture per
// frame plus a shared alpha texture). Each set's payload may additionally be
// LZ4 compressed.
//
// This package provides the container format definition and the encoding
// pipeline ([EncodeSequence]). Decoding for playback is the job of a
// separate reader library.
package knib

import "github.com/deepteams/knib/internal/header"

// Header flag bits. The flags field of the file header combines one bit or
// value from each group below.
const (
	// FlagAlpha is set when the video carries an alpha channel.
	FlagAlpha uint32 = header.FlagAlpha

	// Channel format. Exactly one must be set.
	ChannelsPlanar uint32 = header.ChannelsPlanar // block-compressed YCbCr(A) planes
	ChannelsPacked uint32 = header.ChannelsPacked // block-compressed RGB(A) textures
	ChannelsMask   uint32 = header.ChannelsMask

	// Set payload compression. Exactly one must be set.
	DataPlain uint32 = header.DataPlain // payload bytes stored as-is
	DataLZ4   uint32 = header.DataLZ4   // payload bytes LZ4 compressed
	DataMask  uint32 = header.DataMask

	// Texture format. Exactly one must be set. Grey is reserved for
	// readers; this encoder never produces it.
	TexGrey uint32 = header.TexGrey
	TexETC1 uint32 = header.TexETC1
	TexDXT1 uint32 = header.TexDXT1
	TexMask uint32 = header.TexMask
)

// Magic is the four-byte signature opening every knib file.
var Magic = header.Magic

// Version is the container version written by this encoder.
const Version = header.Version

var (
	ErrBadMagic   = header.ErrBadMagic
	ErrBadVersion = header.ErrBadVersion
	ErrTruncated  = header.ErrTruncated
)
