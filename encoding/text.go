package encoding

import (
	"crypto/sha1" //nolint:gosec
	"math"
	"strconv"
	"strings"

	"github.com/arloliu/appinfo/internal/pool"
	"github.com/arloliu/appinfo/kv"
)

// AppendText appends the canonical text KeyValue rendering of d to dst.
//
// The rendering is the input of the text SHA-1 stored in each app entry, so
// it has to match Steam byte for byte:
//
//	"key"\t\t"value"\n        scalar pair
//	"key"\n{\n ... }\n         nested dict, children indented one more tab
//
// Only backslashes are escaped; quotes are emitted as-is. Strings are written
// as their raw bytes, integers in decimal and floats in shortest round-trip
// form with at least one fractional digit.
func AppendText(dst []byte, d *kv.Dict) []byte {
	return appendText(dst, d, 0)
}

func appendText(dst []byte, d *kv.Dict, depth int) []byte {
	for _, entry := range d.Entries() {
		dst = appendTabs(dst, depth)
		dst = appendQuoted(dst, entry.Key)

		if sub, ok := entry.Value.(*kv.Dict); ok {
			dst = append(dst, '\n')
			dst = appendTabs(dst, depth)
			dst = append(dst, "{\n"...)
			if sub != nil {
				dst = appendText(dst, sub, depth+1)
			}
			dst = appendTabs(dst, depth)
			dst = append(dst, "}\n"...)

			continue
		}

		dst = append(dst, "\t\t"...)
		dst = appendQuoted(dst, scalarText(entry.Value))
		dst = append(dst, '\n')
	}

	return dst
}

func appendTabs(dst []byte, n int) []byte {
	for range n {
		dst = append(dst, '\t')
	}

	return dst
}

func appendQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			dst = append(dst, '\\')
		}
		dst = append(dst, s[i])
	}

	return append(dst, '"')
}

func scalarText(n kv.Node) string {
	switch v := n.(type) {
	case kv.String:
		return string(v)
	case kv.Int32:
		return strconv.FormatInt(int64(v), 10)
	case kv.Int64:
		return strconv.FormatInt(int64(v), 10)
	case kv.Float32:
		return FormatFloat(float32(v))
	default:
		return ""
	}
}

// FormatFloat renders f the way the text checksum expects: the shortest
// decimal that round-trips the widened float64, in positional notation with
// a trailing ".0" for integral values, and in exponent notation ("1e-05",
// "1.5e+16") below 1e-4 or from 1e16 up.
func FormatFloat(f float32) string {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case v == 0:
		if math.Signbit(v) {
			return "-0.0"
		}
		return "0.0"
	}

	sci := strconv.FormatFloat(v, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err == nil && (exp < -4 || exp >= 16) {
		return sci
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}

	return s
}

// TextChecksum returns the SHA-1 of the canonical text rendering of d.
func TextChecksum(d *kv.Dict) [20]byte {
	buf := pool.GetTreeBuffer()
	defer pool.PutTreeBuffer(buf)

	buf.B = AppendText(buf.B, d)

	return sha1.Sum(buf.B) //nolint:gosec
}

// BinaryChecksum returns the SHA-1 of an encoded tree.
func BinaryChecksum(tree []byte) [20]byte {
	return sha1.Sum(tree) //nolint:gosec
}
