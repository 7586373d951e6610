// Package endian provides the byte order engine used by the appinfo codecs.
//
// Every integer in appinfo.vdf is little-endian, so the codecs only ever ask
// for GetLittleEndianEngine. GetBigEndianEngine serves keys that must sort
// numerically as bytes, such as the app id keys of the overrides journal. The EndianEngine interface combines
// binary.ByteOrder and binary.AppendByteOrder so the same value can both
// decode fixed-width fields from a cursor and append them to an output
// buffer without temporary slices:
//
//	engine := endian.GetLittleEndianEngine()
//	buf = engine.AppendUint32(buf, appID)
//	appID = engine.Uint32(buf[off:])
//
// All functions in this package are safe for concurrent use.
package endian

import (
	"encoding/binary"
	"math"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// Int32 decodes a two's complement int32 from the first 4 bytes of b.
func Int32(engine EndianEngine, b []byte) int32 {
	return int32(engine.Uint32(b)) //nolint:gosec
}

// Int64 decodes a two's complement int64 from the first 8 bytes of b.
func Int64(engine EndianEngine, b []byte) int64 {
	return int64(engine.Uint64(b)) //nolint:gosec
}

// Float32 decodes an IEEE 754 single from the first 4 bytes of b.
func Float32(engine EndianEngine, b []byte) float32 {
	return math.Float32frombits(engine.Uint32(b))
}

// AppendInt32 appends v as 4 bytes.
func AppendInt32(engine EndianEngine, dst []byte, v int32) []byte {
	return engine.AppendUint32(dst, uint32(v)) //nolint:gosec
}

// AppendInt64 appends v as 8 bytes.
func AppendInt64(engine EndianEngine, dst []byte, v int64) []byte {
	return engine.AppendUint64(dst, uint64(v)) //nolint:gosec
}

// AppendFloat32 appends the IEEE 754 bits of v as 4 bytes.
func AppendFloat32(engine EndianEngine, dst []byte, v float32) []byte {
	return engine.AppendUint32(dst, math.Float32bits(v))
}
