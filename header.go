package knib

import "github.com/deepteams/knib/internal/header"

// HeaderSize is the encoded size of a FileHeader in bytes. It is also the
// file offset of the first set record.
const HeaderSize = header.HeaderSize

// SetRecordSize is the encoded size of a SetRecord in bytes.
const SetRecordSize = header.SetRecordSize

// FileHeader is the fixed header at offset 0 of a knib file. It is written
// once, mostly zero, when the file is opened to reserve its bytes, and
// rewritten with the final tallies when encoding finishes.
//
// All integer fields are little-endian int32 on disk.
type FileHeader = header.FileHeader

// ParseFileHeader decodes a FileHeader from the first HeaderSize bytes of
// data. It verifies the magic and version.
func ParseFileHeader(data []byte) (FileHeader, error) {
	return header.ParseFileHeader(data)
}

// SetRecord is the per-set header preceding each set's payload.
//
// The y/cb/cr/a offset and size pairs locate each channel inside the
// uncompressed payload. In packed mode the record describes a single RGB
// texture in the y fields and the packed-alpha texture in the a fields;
// the cb and cr fields are zero.
type SetRecord = header.SetRecord

// ParseSetRecord decodes a SetRecord from the first SetRecordSize bytes of
// data.
func ParseSetRecord(data []byte) (SetRecord, error) {
	return header.ParseSetRecord(data)
}
