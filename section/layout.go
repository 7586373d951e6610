package section

import (
	"github.com/arloliu/appinfo/errs"
	"github.com/arloliu/appinfo/format"
)

// Envelope field widths in bytes.
const (
	AppIDSize        = 4
	SizeFieldSize    = 4
	InfoStateSize    = 4
	LastUpdatedSize  = 4
	AccessTokenSize  = 8
	SHA1Size         = 20
	ChangeNumberSize = 4
)

// Layout describes which envelope fields an app entry carries for one
// version. Every encode and decode path asks its Layout instead of comparing
// versions.
type Layout struct {
	Version         format.Version
	HasSize         bool
	HasAccessToken  bool
	HasTextSHA1     bool
	HasChangeNumber bool
	HasBinarySHA1   bool
	HasStringTable  bool
}

var layouts = [...]Layout{
	{Version: format.Version28},
	{Version: format.Version29},
	{
		Version:         format.Version39,
		HasSize:         true,
		HasAccessToken:  true,
		HasTextSHA1:     true,
		HasChangeNumber: true,
	},
	{
		Version:         format.Version40,
		HasSize:         true,
		HasAccessToken:  true,
		HasTextSHA1:     true,
		HasChangeNumber: true,
		HasBinarySHA1:   true,
	},
	{
		Version:         format.Version41,
		HasSize:         true,
		HasAccessToken:  true,
		HasTextSHA1:     true,
		HasChangeNumber: true,
		HasBinarySHA1:   true,
		HasStringTable:  true,
	},
}

// LayoutFor returns the layout of v, or an error matching
// errs.ErrIncompatibleVersion for an unsupported version.
func LayoutFor(v format.Version) (Layout, error) {
	for _, l := range layouts {
		if l.Version == v {
			return l, nil
		}
	}

	return Layout{}, &errs.IncompatibleVersionError{Version: uint8(v), Magic: format.Magic}
}

// SizedFieldsSize returns the width of the fixed fields that follow the size
// field. The size field of an entry holds this plus the tree length.
func (l Layout) SizedFieldsSize() int {
	n := InfoStateSize + LastUpdatedSize
	if l.HasAccessToken {
		n += AccessTokenSize
	}
	if l.HasTextSHA1 {
		n += SHA1Size
	}
	if l.HasChangeNumber {
		n += ChangeNumberSize
	}
	if l.HasBinarySHA1 {
		n += SHA1Size
	}

	return n
}

// EnvelopeSize returns the width of an app entry before its tree, app id
// included.
func (l Layout) EnvelopeSize() int {
	n := AppIDSize + l.SizedFieldsSize()
	if l.HasSize {
		n += SizeFieldSize
	}

	return n
}
