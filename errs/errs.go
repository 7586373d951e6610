// Package errs defines the error values returned by the appinfo packages.
//
// Structural errors (header, truncation, IO) abort the operation that
// produced them. Content anomalies (unknown tags, bad string indices, size
// drift) are reported through store diagnostics and only become errors when
// strict decoding is requested.
package errs

import (
	"errors"
	"fmt"
)

var (
	// Header and structure errors.
	ErrIncompatibleVersion = errors.New("incompatible appinfo version")
	ErrInvalidUniverse     = errors.New("invalid universe")
	ErrInvalidHeaderSize   = errors.New("invalid header size")
	ErrTruncatedInput      = errors.New("truncated input")
	ErrStringTableOffset   = errors.New("string table offset out of range")

	// Content anomalies. Non-fatal unless strict decoding is enabled.
	ErrUnknownTag            = errors.New("unknown type tag")
	ErrStringIndexOutOfRange = errors.New("string table index out of range")
	ErrSizeMismatch          = errors.New("app entry size mismatch")

	// Tree and store errors.
	ErrInvalidNode  = errors.New("invalid node")
	ErrInvalidAppID = errors.New("invalid app id")
	ErrAppNotFound  = errors.New("app not found")

	// Write errors.
	ErrWriteIO = errors.New("write failed")
	ErrNoPath  = errors.New("no output path")

	// Integrity errors.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// Snapshot errors.
	ErrInvalidSnapshot         = errors.New("invalid snapshot")
	ErrUnsupportedCompression  = errors.New("unsupported compression type")
	ErrInvalidSnapshotChecksum = fmt.Errorf("%w: payload digest mismatch", ErrInvalidSnapshot)
)

// IncompatibleVersionError reports a header whose magic or version is not
// supported. It matches ErrIncompatibleVersion with errors.Is.
type IncompatibleVersionError struct {
	Version uint8
	Magic   uint32
}

func (e *IncompatibleVersionError) Error() string {
	return fmt.Sprintf("incompatible version %d (magic: 0x%06X)", e.Version, e.Magic)
}

// Is reports whether target is ErrIncompatibleVersion.
func (e *IncompatibleVersionError) Is(target error) bool {
	return target == ErrIncompatibleVersion
}
