package section

import (
	"github.com/arloliu/appinfo/encoding"
	"github.com/arloliu/appinfo/endian"
)

// AppHeader is the fixed envelope preceding each app's KeyValue tree.
// Fields the layout does not carry are left zero on parse and skipped on
// append.
type AppHeader struct {
	AppID uint32
	// Size is the byte count following the size field: the remaining
	// envelope fields plus the tree.
	Size         uint32
	InfoState    uint32
	LastUpdated  uint32
	AccessToken  uint64
	TextSHA1     [SHA1Size]byte
	ChangeNumber uint32
	BinarySHA1   [SHA1Size]byte
}

// ParseAppHeader reads an app envelope at the cursor position. An app id of
// zero is the end-of-apps marker: only AppID is read and the cursor stops
// right after it.
func ParseAppHeader(c *encoding.Cursor, l Layout) (AppHeader, error) {
	var (
		h   AppHeader
		err error
	)

	if h.AppID, err = c.Uint32(); err != nil || h.AppID == 0 {
		return h, err
	}

	if l.HasSize {
		if h.Size, err = c.Uint32(); err != nil {
			return h, err
		}
	}
	if h.InfoState, err = c.Uint32(); err != nil {
		return h, err
	}
	if h.LastUpdated, err = c.Uint32(); err != nil {
		return h, err
	}
	if l.HasAccessToken {
		if h.AccessToken, err = c.Uint64(); err != nil {
			return h, err
		}
	}
	if l.HasTextSHA1 {
		if err = readSHA1(c, &h.TextSHA1); err != nil {
			return h, err
		}
	}
	if l.HasChangeNumber {
		if h.ChangeNumber, err = c.Uint32(); err != nil {
			return h, err
		}
	}
	if l.HasBinarySHA1 {
		if err = readSHA1(c, &h.BinarySHA1); err != nil {
			return h, err
		}
	}

	return h, nil
}

func readSHA1(c *encoding.Cursor, dst *[SHA1Size]byte) error {
	b, err := c.Bytes(SHA1Size)
	if err != nil {
		return err
	}
	copy(dst[:], b)

	return nil
}

// AppendAppHeader appends the envelope fields of h present in l to dst.
func AppendAppHeader(dst []byte, l Layout, h *AppHeader) []byte {
	engine := endian.GetLittleEndianEngine()

	dst = engine.AppendUint32(dst, h.AppID)
	if l.HasSize {
		dst = engine.AppendUint32(dst, h.Size)
	}
	dst = engine.AppendUint32(dst, h.InfoState)
	dst = engine.AppendUint32(dst, h.LastUpdated)
	if l.HasAccessToken {
		dst = engine.AppendUint64(dst, h.AccessToken)
	}
	if l.HasTextSHA1 {
		dst = append(dst, h.TextSHA1[:]...)
	}
	if l.HasChangeNumber {
		dst = engine.AppendUint32(dst, h.ChangeNumber)
	}
	if l.HasBinarySHA1 {
		dst = append(dst, h.BinarySHA1[:]...)
	}

	return dst
}
