package section

import (
	"fmt"
	"math"

	"github.com/arloliu/appinfo/encoding"
	"github.com/arloliu/appinfo/endian"
	"github.com/arloliu/appinfo/errs"
)

// StringTable is the key pool of Version41 files: a uint32 count followed by
// that many NUL-terminated strings, referenced from trees by index.
//
// Strings keep the order they were read or first interned in, so an
// unmodified store writes its table back byte for byte. Duplicates present
// in a file are preserved; lookups by key resolve to the first occurrence.
//
// StringTable implements encoding.KeyResolver and encoding.KeyInterner.
//
// Note: The StringTable is NOT thread-safe.
type StringTable struct {
	strings []string
	index   map[string]uint32
}

var (
	_ encoding.KeyResolver = (*StringTable)(nil)
	_ encoding.KeyInterner = (*StringTable)(nil)
)

// NewStringTable creates a table holding seed in order.
func NewStringTable(seed []string) *StringTable {
	t := &StringTable{
		strings: make([]string, 0, len(seed)),
		index:   make(map[string]uint32, len(seed)),
	}
	for _, s := range seed {
		t.add(s)
	}

	return t
}

// ReadStringTable parses the string table starting at offset in data.
//
// Returns an error wrapping errs.ErrStringTableOffset when offset lies
// outside data, and errs.ErrTruncatedInput when the table runs past the end.
func ReadStringTable(data []byte, offset uint64) (*StringTable, error) {
	if offset > uint64(len(data)) {
		return nil, fmt.Errorf("%w: %d beyond %d bytes", errs.ErrStringTableOffset, offset, len(data))
	}

	c := encoding.NewCursor(data)
	if err := c.Seek(int(offset)); err != nil { //nolint:gosec
		return nil, err
	}

	count, err := c.Uint32()
	if err != nil {
		return nil, fmt.Errorf("string table count: %w", err)
	}
	// every entry takes at least its terminator
	if uint64(count) > uint64(c.Remaining()) { //nolint:gosec
		return nil, fmt.Errorf("%w: string table claims %d entries in %d bytes",
			errs.ErrTruncatedInput, count, c.Remaining())
	}

	t := &StringTable{
		strings: make([]string, 0, count),
		index:   make(map[string]uint32, count),
	}
	for i := range count {
		s, err := c.CString()
		if err != nil {
			return nil, fmt.Errorf("string table entry %d: %w", i, err)
		}
		t.add(s)
	}

	return t, nil
}

func (t *StringTable) add(s string) uint32 {
	i := uint32(len(t.strings)) //nolint:gosec
	t.strings = append(t.strings, s)
	if _, ok := t.index[s]; !ok {
		t.index[s] = i
	}

	return i
}

// Key returns the string at index i.
func (t *StringTable) Key(i uint32) (string, bool) {
	if uint64(i) >= uint64(len(t.strings)) {
		return "", false
	}

	return t.strings[i], true
}

// Index returns the index of key.
func (t *StringTable) Index(key string) (uint32, bool) {
	i, ok := t.index[key]
	return i, ok
}

// Intern returns the index of key, appending it when absent.
//
// Panics if the table already holds math.MaxUint32 strings.
func (t *StringTable) Intern(key string) uint32 {
	if i, ok := t.index[key]; ok {
		return i
	}
	if uint64(len(t.strings)) >= math.MaxUint32 {
		panic("section: string table full")
	}

	return t.add(key)
}

// Len returns the number of strings, duplicates included.
func (t *StringTable) Len() int {
	return len(t.strings)
}

// Strings returns a copy of the strings in table order.
func (t *StringTable) Strings() []string {
	out := make([]string, len(t.strings))
	copy(out, t.strings)

	return out
}

// Clone returns an independent copy of t.
func (t *StringTable) Clone() *StringTable {
	c := &StringTable{
		strings: t.Strings(),
		index:   make(map[string]uint32, len(t.index)),
	}
	for k, v := range t.index {
		c.index[k] = v
	}

	return c
}

// AppendTo appends the encoded table to dst.
func (t *StringTable) AppendTo(dst []byte) []byte {
	dst = endian.GetLittleEndianEngine().AppendUint32(dst, uint32(len(t.strings))) //nolint:gosec
	for _, s := range t.strings {
		dst = encoding.AppendCString(dst, s)
	}

	return dst
}
