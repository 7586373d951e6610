package encoding

import (
	"bytes"
	"fmt"

	"github.com/arloliu/appinfo/endian"
	"github.com/arloliu/appinfo/errs"
)

// Cursor reads little-endian fields sequentially from an immutable byte slice.
//
// Every read checks bounds first and leaves the position unchanged when it
// fails, so the error always names the offset where the field started.
//
// Note: A Cursor is NOT thread-safe.
type Cursor struct {
	data   []byte
	off    int
	engine endian.EndianEngine
}

// NewCursor creates a cursor positioned at the start of data.
func NewCursor(data []byte) *Cursor {
	return &Cursor{
		data:   data,
		engine: endian.GetLittleEndianEngine(),
	}
}

// Offset returns the absolute read position.
func (c *Cursor) Offset() int {
	return c.off
}

// Len returns the length of the underlying data.
func (c *Cursor) Len() int {
	return len(c.data)
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.off
}

// Seek moves the read position to the absolute offset off.
func (c *Cursor) Seek(off int) error {
	if off < 0 || off > len(c.data) {
		return fmt.Errorf("%w: seek to %d, length %d", errs.ErrTruncatedInput, off, len(c.data))
	}
	c.off = off

	return nil
}

// Skip advances the read position by n bytes.
func (c *Cursor) Skip(n int) error {
	if err := c.need(n, "skip"); err != nil {
		return err
	}
	c.off += n

	return nil
}

func (c *Cursor) need(n int, what string) error {
	if n < 0 || c.Remaining() < n {
		return fmt.Errorf("%w: %s needs %d bytes at offset %d, have %d",
			errs.ErrTruncatedInput, what, n, c.off, c.Remaining())
	}

	return nil
}

// Uint8 reads one byte.
func (c *Cursor) Uint8() (uint8, error) {
	if err := c.need(1, "uint8"); err != nil {
		return 0, err
	}
	v := c.data[c.off]
	c.off++

	return v, nil
}

// Uint32 reads a 4-byte unsigned integer.
func (c *Cursor) Uint32() (uint32, error) {
	if err := c.need(4, "uint32"); err != nil {
		return 0, err
	}
	v := c.engine.Uint32(c.data[c.off:])
	c.off += 4

	return v, nil
}

// Uint64 reads an 8-byte unsigned integer.
func (c *Cursor) Uint64() (uint64, error) {
	if err := c.need(8, "uint64"); err != nil {
		return 0, err
	}
	v := c.engine.Uint64(c.data[c.off:])
	c.off += 8

	return v, nil
}

// Int32 reads a 4-byte signed integer.
func (c *Cursor) Int32() (int32, error) {
	if err := c.need(4, "int32"); err != nil {
		return 0, err
	}
	v := endian.Int32(c.engine, c.data[c.off:])
	c.off += 4

	return v, nil
}

// Int64 reads an 8-byte signed integer.
func (c *Cursor) Int64() (int64, error) {
	if err := c.need(8, "int64"); err != nil {
		return 0, err
	}
	v := endian.Int64(c.engine, c.data[c.off:])
	c.off += 8

	return v, nil
}

// Float32 reads a 4-byte IEEE 754 single.
func (c *Cursor) Float32() (float32, error) {
	if err := c.need(4, "float32"); err != nil {
		return 0, err
	}
	v := endian.Float32(c.engine, c.data[c.off:])
	c.off += 4

	return v, nil
}

// Bytes reads n raw bytes. The returned slice aliases the cursor data.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if err := c.need(n, "bytes"); err != nil {
		return nil, err
	}
	b := c.data[c.off : c.off+n : c.off+n]
	c.off += n

	return b, nil
}

// CString reads a NUL-terminated string and consumes the terminator.
// The bytes are returned as-is, without any UTF-8 validation.
func (c *Cursor) CString() (string, error) {
	end := bytes.IndexByte(c.data[c.off:], 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated string at offset %d", errs.ErrTruncatedInput, c.off)
	}
	s := string(c.data[c.off : c.off+end])
	c.off += end + 1

	return s, nil
}

// AppendCString appends s followed by a NUL terminator.
func AppendCString(dst []byte, s string) []byte {
	dst = append(dst, s...)
	return append(dst, 0)
}
