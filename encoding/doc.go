// Package encoding implements the binary KeyValue primitives of appinfo.vdf.
//
// The package has four parts:
//
//   - Cursor: a bounds-checked little-endian reader over an immutable slice.
//     Every decoder in this module threads one Cursor through its reads
//     instead of keeping a shared offset.
//   - TreeDecoder / TreeEncoder: the recursive (tag, key, value) tree codec.
//   - AppendText: the canonical text rendering hashed into the text SHA-1.
//   - TextChecksum / BinaryChecksum: the two SHA-1 digests of an app entry.
//
// # Tree layout
//
// A tree is a sequence of entries terminated by tag 0x08:
//
//	tag   uint8        0x00 dict, 0x01 string, 0x02 int32, 0x03 float32, 0x07 int64
//	key   cstring      inline (before version 41)
//	      uint32       string table index (version 41)
//	value dict         nested entries up to their own 0x08
//	      cstring      NUL-terminated bytes
//	      4 or 8 bytes little-endian number
//
// Keys are resolved through KeyResolver when decoding and KeyInterner when
// encoding; both are implemented by section.StringTable.
//
// # Example
//
//	enc := encoding.NewTreeEncoder(nil)
//	tree, err := enc.Append(nil, app)
//	if err != nil {
//	    return err
//	}
//
//	dec := encoding.NewTreeDecoder(nil)
//	decoded, err := dec.Decode(encoding.NewCursor(tree))
package encoding
