package kv

import (
	"math"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Kind identifies a node variant.
type Kind uint8

const (
	KindDict Kind = iota
	KindString
	KindInt32
	KindInt64
	KindFloat32
)

func (k Kind) String() string {
	switch k {
	case KindDict:
		return "dict"
	case KindString:
		return "string"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	default:
		return "unknown"
	}
}

// Node is one value of a KeyValue tree. The set of implementations is closed:
// *Dict, String, Int32, Int64 and Float32.
type Node interface {
	Kind() Kind
	node()
}

type (
	String  string
	Int32   int32
	Int64   int64
	Float32 float32
)

func (String) Kind() Kind  { return KindString }
func (Int32) Kind() Kind   { return KindInt32 }
func (Int64) Kind() Kind   { return KindInt64 }
func (Float32) Kind() Kind { return KindFloat32 }

func (String) node()  {}
func (Int32) node()   {}
func (Int64) node()   {}
func (Float32) node() {}

// Int returns an Int32 when v fits in 32 bits and an Int64 otherwise.
func Int(v int64) Node {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		return Int32(v)
	}

	return Int64(v)
}

// Equal reports whether a and b are the same variant with the same value.
// Dicts are compared recursively and key order matters.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	da, ok := a.(*Dict)
	if !ok {
		fa, isFloat := a.(Float32)
		if isFloat {
			fb, _ := b.(Float32)
			// NaN payloads survive a round trip bit for bit
			return math.Float32bits(float32(fa)) == math.Float32bits(float32(fb))
		}

		return a == b
	}

	db, _ := b.(*Dict)
	if da == nil || db == nil {
		return da == db
	}
	if len(da.entries) != len(db.entries) {
		return false
	}
	for i := range da.entries {
		if da.entries[i].Key != db.entries[i].Key {
			return false
		}
		if !Equal(da.entries[i].Value, db.entries[i].Value) {
			return false
		}
	}

	return true
}

// DisplayString returns s unchanged when it is valid UTF-8 and its latin-1
// decoding otherwise.
func DisplayString(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return s
	}

	return decoded
}
