// Package section defines the fixed binary structures of appinfo.vdf: the
// file header, the per-version app envelope layout and the trailing string
// table.
//
// # File Structure
//
//	┌─────────────────────────────────────────────────────────┐
//	│ Header (8 or 16 bytes)                                  │
//	│  - Version (1 byte) + Magic (3 bytes)                   │
//	│  - Universe (4 bytes)                                   │
//	│  - StringTableOffset (8 bytes, Version41 only)          │
//	├─────────────────────────────────────────────────────────┤
//	│ App entries (variable, repeated)                        │
//	│  - Envelope (AppHeader, width depends on Layout)        │
//	│  - Binary KeyValue tree                                 │
//	├─────────────────────────────────────────────────────────┤
//	│ End marker (4 zero bytes)                               │
//	├─────────────────────────────────────────────────────────┤
//	│ String table (Version41 only)                           │
//	│  - Count (4 bytes)                                      │
//	│  - Count NUL-terminated strings                         │
//	└─────────────────────────────────────────────────────────┘
//
// # App Envelope
//
//	Field        | Type     | Present
//	-------------|----------|-----------------
//	AppID        | uint32   | always
//	Size         | uint32   | Version39+
//	InfoState    | uint32   | always
//	LastUpdated  | uint32   | always
//	AccessToken  | uint64   | Version39+
//	TextSHA1     | [20]byte | Version39+
//	ChangeNumber | uint32   | Version39+
//	BinarySHA1   | [20]byte | Version40+
//
// The per-version presence lives in one table, see LayoutFor.
//
// # Writing
//
// The string table offset is only known after every entry is encoded, so a
// writer appends the header with a zero offset, appends the entries and the
// table, then calls PatchStringTableOffset on the assembled buffer.
package section
