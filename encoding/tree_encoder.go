package encoding

import (
	"fmt"
	"strings"

	"github.com/arloliu/appinfo/endian"
	"github.com/arloliu/appinfo/errs"
	"github.com/arloliu/appinfo/format"
	"github.com/arloliu/appinfo/kv"
)

// KeyInterner maps keys to string table indices, adding unseen keys.
type KeyInterner interface {
	Intern(key string) uint32
}

// TreeEncoder encodes binary KeyValue trees, the mirror of TreeDecoder.
//
// Tags follow the node variant: *Dict 0x00, String 0x01, Int32 0x02,
// Float32 0x03, Int64 0x07. The width of an integer is never narrowed: an
// Int64 holding a value that fits 32 bits is still written as 0x07, so a
// decoded tree re-encodes byte for byte. Build new integers with kv.Int to
// get 0x02 whenever the value fits. Keys are written in Dict order, inline
// or as string table indices depending on whether a KeyInterner was given.
//
// Note: The TreeEncoder is NOT thread-safe when its KeyInterner is not.
type TreeEncoder struct {
	keys   KeyInterner
	engine endian.EndianEngine
}

// NewTreeEncoder creates an encoder. keys may be nil for inline keys.
func NewTreeEncoder(keys KeyInterner) *TreeEncoder {
	return &TreeEncoder{
		keys:   keys,
		engine: endian.GetLittleEndianEngine(),
	}
}

// Append appends the encoding of d, including its end tag, to dst.
//
// Returns an error wrapping errs.ErrInvalidNode for a nil node or for a key
// or string value containing a NUL byte, which the format cannot represent.
// dst is returned unmodified in that case.
func (e *TreeEncoder) Append(dst []byte, d *kv.Dict) ([]byte, error) {
	if d == nil {
		return dst, fmt.Errorf("%w: nil dict", errs.ErrInvalidNode)
	}

	out, err := e.appendDict(dst, d, "")
	if err != nil {
		return dst, err
	}

	return out, nil
}

func (e *TreeEncoder) appendDict(dst []byte, d *kv.Dict, path string) ([]byte, error) {
	var err error
	for _, entry := range d.Entries() {
		if strings.IndexByte(entry.Key, 0) >= 0 {
			return dst, fmt.Errorf("%w: key %q under %q contains NUL", errs.ErrInvalidNode, entry.Key, path)
		}

		switch v := entry.Value.(type) {
		case *kv.Dict:
			if v == nil {
				return dst, fmt.Errorf("%w: nil dict at %q", errs.ErrInvalidNode, path+"/"+entry.Key)
			}
			dst = e.appendKey(append(dst, byte(format.TagDict)), entry.Key)
			if dst, err = e.appendDict(dst, v, path+"/"+entry.Key); err != nil {
				return dst, err
			}
		case kv.String:
			if strings.IndexByte(string(v), 0) >= 0 {
				return dst, fmt.Errorf("%w: value at %q contains NUL", errs.ErrInvalidNode, path+"/"+entry.Key)
			}
			dst = e.appendKey(append(dst, byte(format.TagString)), entry.Key)
			dst = AppendCString(dst, string(v))
		case kv.Int32:
			dst = e.appendKey(append(dst, byte(format.TagInt32)), entry.Key)
			dst = endian.AppendInt32(e.engine, dst, int32(v))
		case kv.Float32:
			dst = e.appendKey(append(dst, byte(format.TagFloat32)), entry.Key)
			dst = endian.AppendFloat32(e.engine, dst, float32(v))
		case kv.Int64:
			dst = e.appendKey(append(dst, byte(format.TagInt64)), entry.Key)
			dst = endian.AppendInt64(e.engine, dst, int64(v))
		default:
			return dst, fmt.Errorf("%w: unsupported value %T at %q", errs.ErrInvalidNode, entry.Value, path+"/"+entry.Key)
		}
	}

	return append(dst, byte(format.TagEnd)), nil
}

func (e *TreeEncoder) appendKey(dst []byte, key string) []byte {
	if e.keys == nil {
		return AppendCString(dst, key)
	}

	return e.engine.AppendUint32(dst, e.keys.Intern(key))
}
