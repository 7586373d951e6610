package encoding

import (
	"fmt"

	"github.com/arloliu/appinfo/errs"
	"github.com/arloliu/appinfo/format"
	"github.com/arloliu/appinfo/kv"
)

// MaxDepth bounds dict nesting. Real appinfo trees stay below ten levels.
const MaxDepth = 128

// KeyResolver maps string table indices to keys.
type KeyResolver interface {
	Key(index uint32) (string, bool)
}

// UnknownKey is the placeholder key for a string table index that does not
// resolve. Consumers can recognise and skip such keys.
func UnknownKey(index uint32) string {
	return fmt.Sprintf("__unknown_%d__", index)
}

// UnknownTagPolicy selects how much of a tree an unknown type tag ends.
type UnknownTagPolicy uint8

const (
	// StopTree ends the whole tree at the unknown tag. The cursor is left
	// right after the tag byte.
	StopTree UnknownTagPolicy = iota
	// StopDict reads the key that follows the unknown tag and ends only the
	// dict holding it; the parent dict resumes at the next byte. The value of
	// the unknown tag is not skipped, so the parent may misread what follows.
	StopDict
)

func (p UnknownTagPolicy) String() string {
	switch p {
	case StopTree:
		return "StopTree"
	case StopDict:
		return "StopDict"
	default:
		return fmt.Sprintf("UnknownTagPolicy(%d)", uint8(p))
	}
}

// Valid reports whether p is StopTree or StopDict.
func (p UnknownTagPolicy) Valid() bool {
	return p == StopTree || p == StopDict
}

// TreeDecoder decodes binary KeyValue trees.
//
// With a nil KeyResolver keys are read as NUL-terminated strings; otherwise
// each key is a uint32 string table index.
//
// Content anomalies do not fail decoding:
//   - an index the resolver does not know becomes UnknownKey(index)
//   - an unknown type tag ends the tree. The enclosing dicts end too, since
//     the value width of an unknown tag is unknown and nothing after it can
//     be located. The tree decoded so far is returned and Stopped reports true.
//     SetUnknownTagPolicy(StopDict) ends only the current dict instead.
//
// Both are recorded and available from Anomalies until the next Decode.
// Running out of input is an error wrapping errs.ErrTruncatedInput.
//
// Note: The TreeDecoder is NOT thread-safe.
type TreeDecoder struct {
	keys      KeyResolver
	policy    UnknownTagPolicy
	anomalies []error
	stopped   bool
}

// NewTreeDecoder creates a decoder with the StopTree policy. keys may be nil.
func NewTreeDecoder(keys KeyResolver) *TreeDecoder {
	return &TreeDecoder{keys: keys}
}

// SetUnknownTagPolicy sets how an unknown type tag ends decoding. Invalid
// values are ignored.
func (d *TreeDecoder) SetUnknownTagPolicy(p UnknownTagPolicy) {
	if p.Valid() {
		d.policy = p
	}
}

// Decode reads one tree, up to and including its end tag, from c.
//
// Parameters:
//   - c: cursor positioned at the first tag of the tree
//
// Returns:
//   - *kv.Dict: the decoded tree, partial when Stopped reports true
//   - error: errs.ErrTruncatedInput when c ends inside the tree,
//     errs.ErrInvalidNode when nesting exceeds MaxDepth
//
// Content anomalies are not errors; read them from Anomalies.
func (d *TreeDecoder) Decode(c *Cursor) (*kv.Dict, error) {
	d.anomalies = d.anomalies[:0]
	d.stopped = false

	return d.decodeDict(c, 1)
}

// Anomalies returns the content anomalies found by the last Decode.
func (d *TreeDecoder) Anomalies() []error {
	return d.anomalies
}

// Stopped reports whether the last Decode met an unknown tag. Under
// StopTree the tree ended there; under StopDict decoding went on in the
// enclosing dicts.
func (d *TreeDecoder) Stopped() bool {
	return d.stopped
}

func (d *TreeDecoder) decodeDict(c *Cursor, depth int) (*kv.Dict, error) {
	dict := kv.NewDict()

	for {
		tagOffset := c.Offset()
		b, err := c.Uint8()
		if err != nil {
			return dict, err
		}

		tag := format.Tag(b)
		if tag == format.TagEnd {
			return dict, nil
		}
		if !decodable(tag) {
			d.stopped = true
			d.anomalies = append(d.anomalies,
				fmt.Errorf("%w: %s at offset %d", errs.ErrUnknownTag, tag, tagOffset))
			if d.policy == StopDict {
				if _, err := d.readKey(c); err != nil {
					return dict, err
				}
			}

			return dict, nil
		}

		key, err := d.readKey(c)
		if err != nil {
			return dict, err
		}

		value, err := d.readValue(c, tag, depth)
		if err != nil {
			return dict, err
		}
		dict.Set(key, value)

		if d.stopped && d.policy == StopTree {
			return dict, nil
		}
	}
}

func (d *TreeDecoder) readKey(c *Cursor) (string, error) {
	if d.keys == nil {
		return c.CString()
	}

	offset := c.Offset()
	index, err := c.Uint32()
	if err != nil {
		return "", err
	}

	key, ok := d.keys.Key(index)
	if !ok {
		d.anomalies = append(d.anomalies,
			fmt.Errorf("%w: index %d at offset %d", errs.ErrStringIndexOutOfRange, index, offset))

		return UnknownKey(index), nil
	}

	return key, nil
}

func (d *TreeDecoder) readValue(c *Cursor, tag format.Tag, depth int) (kv.Node, error) {
	switch tag { //nolint:exhaustive
	case format.TagDict:
		if depth >= MaxDepth {
			return nil, fmt.Errorf("%w: nesting deeper than %d at offset %d", errs.ErrInvalidNode, MaxDepth, c.Offset())
		}
		sub, err := d.decodeDict(c, depth+1)
		if err != nil {
			return nil, err
		}

		return sub, nil
	case format.TagString:
		s, err := c.CString()
		return kv.String(s), err
	case format.TagInt32:
		v, err := c.Int32()
		return kv.Int32(v), err
	case format.TagFloat32:
		v, err := c.Float32()
		return kv.Float32(v), err
	case format.TagInt64:
		v, err := c.Int64()
		return kv.Int64(v), err
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnknownTag, tag)
	}
}

func decodable(tag format.Tag) bool {
	switch tag { //nolint:exhaustive
	case format.TagDict, format.TagString, format.TagInt32, format.TagFloat32, format.TagInt64:
		return true
	default:
		return false
	}
}
