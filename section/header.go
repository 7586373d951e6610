package section

import (
	"fmt"

	"github.com/arloliu/appinfo/encoding"
	"github.com/arloliu/appinfo/endian"
	"github.com/arloliu/appinfo/errs"
	"github.com/arloliu/appinfo/format"
)

const (
	// BaseHeaderSize is the header size of versions without a string table:
	// the magic/version word and the universe.
	BaseHeaderSize = 8
	// StringTableHeaderSize is the header size from Version41, which appends
	// the 8-byte string table offset.
	StringTableHeaderSize = 16
	// StringTableOffsetPos is the byte position of the string table offset
	// inside the header.
	StringTableOffsetPos = BaseHeaderSize
)

// Header is the file header of appinfo.vdf.
//
// Layout (little-endian):
//
//	Bytes  | Field             | Type   | Present
//	-------|-------------------|--------|-------------
//	0      | Version           | uint8  | always
//	1-3    | Magic (0x075644)  | uint24 | always
//	4-7    | Universe          | uint32 | always
//	8-15   | StringTableOffset | uint64 | Version41
type Header struct {
	Version  format.Version
	Universe format.Universe
	// StringTableOffset is the absolute offset of the string table, zero
	// before Version41.
	StringTableOffset uint64
}

// Size returns the encoded header size for h.Version.
func (h Header) Size() int {
	if h.Version.HasStringTable() {
		return StringTableHeaderSize
	}

	return BaseHeaderSize
}

// ParseHeader reads the header at the cursor position.
//
// The magic and version are checked before any further byte is read: an
// unknown magic or unsupported version returns *errs.IncompatibleVersionError
// and leaves the cursor right after the header word. A universe outside the
// known range returns errs.ErrInvalidUniverse. For Version41 the string table
// offset must point inside the cursor's data, past the header, or
// errs.ErrStringTableOffset is returned.
//
// Parameters:
//   - c: cursor at the start of the file
//
// Returns:
//   - Header: the parsed header, valid only when err is nil
//   - error: errs.ErrInvalidHeaderSize wrapping errs.ErrTruncatedInput when
//     c is shorter than the header, or one of the errors above
func ParseHeader(c *encoding.Cursor) (Header, error) {
	var h Header

	word, err := c.Uint32()
	if err != nil {
		return h, fmt.Errorf("%w: %w", errs.ErrInvalidHeaderSize, err)
	}

	magic := word >> 8
	h.Version = format.Version(word & 0xFF) //nolint:gosec
	if magic != format.Magic || !h.Version.Supported() {
		return h, &errs.IncompatibleVersionError{Version: uint8(h.Version), Magic: magic}
	}

	universe, err := c.Uint32()
	if err != nil {
		return h, fmt.Errorf("%w: %w", errs.ErrInvalidHeaderSize, err)
	}
	h.Universe = format.Universe(universe)
	if !h.Universe.Valid() {
		return h, fmt.Errorf("%w: %d", errs.ErrInvalidUniverse, universe)
	}

	if !h.Version.HasStringTable() {
		return h, nil
	}

	h.StringTableOffset, err = c.Uint64()
	if err != nil {
		return h, fmt.Errorf("%w: %w", errs.ErrInvalidHeaderSize, err)
	}
	if h.StringTableOffset < StringTableHeaderSize || h.StringTableOffset > uint64(c.Len()) { //nolint:gosec
		return h, fmt.Errorf("%w: %d not in [%d, %d]", errs.ErrStringTableOffset,
			h.StringTableOffset, StringTableHeaderSize, c.Len())
	}

	return h, nil
}

// AppendHeader appends the encoded header to dst. The string table offset is
// written as a zero placeholder; patch it with PatchStringTableOffset once
// the table position is known.
func AppendHeader(dst []byte, h Header) []byte {
	engine := endian.GetLittleEndianEngine()

	dst = engine.AppendUint32(dst, h.Version.Word())
	dst = engine.AppendUint32(dst, uint32(h.Universe))
	if h.Version.HasStringTable() {
		dst = engine.AppendUint64(dst, 0)
	}

	return dst
}

// PatchStringTableOffset writes offset into the header at the start of buf.
func PatchStringTableOffset(buf []byte, offset uint64) error {
	if len(buf) < StringTableHeaderSize {
		return fmt.Errorf("%w: %d bytes, need %d", errs.ErrInvalidHeaderSize, len(buf), StringTableHeaderSize)
	}

	endian.GetLittleEndianEngine().PutUint64(buf[StringTableOffsetPos:StringTableHeaderSize], offset)

	return nil
}
