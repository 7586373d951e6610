// Package snapshot archives appinfo.vdf images as compressed, checksummed
// files.
//
// A snapshot is a 24-byte header followed by the compressed image:
//
//	Bytes  | Field        | Type    | Description
//	-------|--------------|---------|----------------------------------
//	0-3    | Magic        | [4]byte | "AIVS"
//	4      | Version      | uint8   | snapshot format version (1)
//	5      | Compression  | uint8   | format.CompressionType
//	6-7    | Reserved     | uint16  | must be zero
//	8-15   | RawLength    | uint64  | length of the uncompressed image
//	16-23  | Digest       | uint64  | xxHash64 of the uncompressed image
//
// All integers are little-endian. The image is an ordinary appinfo.vdf, so a
// restored snapshot can be written straight back to the Steam appcache.
package snapshot

import (
	"fmt"
	"io"
	"os"

	"github.com/arloliu/appinfo/compress"
	"github.com/arloliu/appinfo/endian"
	"github.com/arloliu/appinfo/errs"
	"github.com/arloliu/appinfo/format"
	"github.com/arloliu/appinfo/internal/hash"
	"github.com/arloliu/appinfo/internal/options"
	"github.com/arloliu/appinfo/internal/pool"
	"github.com/arloliu/appinfo/store"
)

const (
	// Magic opens every snapshot.
	Magic = "AIVS"
	// FormatVersion is the snapshot layout written by Encode.
	FormatVersion uint8 = 1
	// HeaderSize is the fixed snapshot header size.
	HeaderSize = 24
	// MaxRawLength bounds the image size a snapshot may declare.
	MaxRawLength = 1 << 30
)

// Header is the decoded snapshot header.
type Header struct {
	Version     uint8
	Compression format.CompressionType
	RawLength   uint64
	Digest      uint64
}

// Config holds the snapshot options.
type Config struct {
	compression format.CompressionType
	storeOpts   []store.Option
}

// Option is a functional option for snapshot encoding and decoding.
type Option = options.Option[*Config]

// WithCompression selects the payload codec used by Encode.
// Default is format.CompressionZstd.
func WithCompression(c format.CompressionType) Option {
	return options.New(func(cfg *Config) error {
		if _, err := compress.GetCodec(c); err != nil {
			return err
		}
		cfg.compression = c

		return nil
	})
}

// WithStoreOptions passes opts to store.Decode when a snapshot is decoded.
func WithStoreOptions(opts ...store.Option) Option {
	return options.NoError(func(cfg *Config) {
		cfg.storeOpts = append(cfg.storeOpts, opts...)
	})
}

func newConfig(opts []Option) (*Config, error) {
	cfg := &Config{compression: format.CompressionZstd}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Encode encodes s and packs the image into a snapshot.
func Encode(s *store.Store, opts ...Option) ([]byte, error) {
	raw, err := s.Bytes()
	if err != nil {
		return nil, err
	}

	return Pack(raw, opts...)
}

// Pack packs an already encoded appinfo.vdf image, byte for byte.
func Pack(raw []byte, opts ...Option) ([]byte, error) {
	buf, err := pack(raw, opts)
	if err != nil {
		return nil, err
	}
	defer pool.PutStoreBuffer(buf)

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	return out, nil
}

// WriteTo encodes s and writes the snapshot to w.
//
// Returns the number of bytes written. Write failures wrap errs.ErrWriteIO.
func WriteTo(w io.Writer, s *store.Store, opts ...Option) (int64, error) {
	raw, err := s.Bytes()
	if err != nil {
		return 0, err
	}

	buf, err := pack(raw, opts)
	if err != nil {
		return 0, err
	}
	defer pool.PutStoreBuffer(buf)

	n, err := buf.WriteTo(w)
	if err != nil {
		return n, fmt.Errorf("%w: %w", errs.ErrWriteIO, err)
	}

	return n, nil
}

// pack builds the snapshot in a pooled buffer the caller must return.
func pack(raw []byte, opts []Option) (*pool.ByteBuffer, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	if len(raw) > MaxRawLength {
		return nil, fmt.Errorf("%w: image of %d bytes exceeds %d", errs.ErrInvalidSnapshot, len(raw), MaxRawLength)
	}

	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return nil, err
	}
	payload, err := codec.Compress(raw)
	if err != nil {
		return nil, fmt.Errorf("compress snapshot: %w", err)
	}

	buf := pool.GetStoreBuffer()
	buf.Grow(HeaderSize + len(payload))
	buf.B = appendHeader(buf.B, Header{
		Version:     FormatVersion,
		Compression: cfg.compression,
		RawLength:   uint64(len(raw)),
		Digest:      hash.Sum(raw),
	})
	buf.MustWrite(payload)

	return buf, nil
}

func appendHeader(dst []byte, h Header) []byte {
	engine := endian.GetLittleEndianEngine()

	dst = append(dst, Magic...)
	dst = append(dst, h.Version, byte(h.Compression))
	dst = engine.AppendUint16(dst, 0)
	dst = engine.AppendUint64(dst, h.RawLength)

	return engine.AppendUint64(dst, h.Digest)
}

// ParseHeader decodes and validates the header at the start of data.
func ParseHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < HeaderSize {
		return h, fmt.Errorf("%w: %d bytes, header needs %d", errs.ErrInvalidSnapshot, len(data), HeaderSize)
	}
	if string(data[:4]) != Magic {
		return h, fmt.Errorf("%w: bad magic %q", errs.ErrInvalidSnapshot, data[:4])
	}

	engine := endian.GetLittleEndianEngine()
	h.Version = data[4]
	h.Compression = format.CompressionType(data[5])
	h.RawLength = engine.Uint64(data[8:16])
	h.Digest = engine.Uint64(data[16:24])

	if h.Version != FormatVersion {
		return h, fmt.Errorf("%w: format version %d", errs.ErrInvalidSnapshot, h.Version)
	}
	if reserved := engine.Uint16(data[6:8]); reserved != 0 {
		return h, fmt.Errorf("%w: reserved field 0x%04x", errs.ErrInvalidSnapshot, reserved)
	}
	if h.RawLength > MaxRawLength {
		return h, fmt.Errorf("%w: declared image of %d bytes exceeds %d", errs.ErrInvalidSnapshot, h.RawLength, MaxRawLength)
	}

	return h, nil
}

// Unpack validates a snapshot and returns the appinfo.vdf image in it.
//
// RawLength is not trusted: a length the payload cannot decode to is
// refused before the output buffer is sized from it.
//
// Returns an error wrapping errs.ErrInvalidSnapshot for a malformed header or
// payload, errs.ErrUnsupportedCompression for an unknown codec, and
// errs.ErrInvalidSnapshotChecksum when the image does not match its digest.
func Unpack(data []byte) ([]byte, Header, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, h, err
	}

	codec, err := compress.CreateCodec(h.Compression, "snapshot payload")
	if err != nil {
		return nil, h, err
	}

	raw, err := compress.DecompressSize(codec, data[HeaderSize:], int(h.RawLength)) //nolint:gosec
	if err != nil {
		return nil, h, fmt.Errorf("%w: %w", errs.ErrInvalidSnapshot, err)
	}
	if hash.Sum(raw) != h.Digest {
		return nil, h, errs.ErrInvalidSnapshotChecksum
	}

	return raw, h, nil
}

// Decode unpacks a snapshot and decodes the image into a store.
func Decode(data []byte, opts ...Option) (*store.Store, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	raw, _, err := Unpack(data)
	if err != nil {
		return nil, err
	}

	return store.Decode(raw, cfg.storeOpts...)
}

// WriteFile writes a snapshot of s to path.
func WriteFile(path string, s *store.Store, opts ...Option) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrWriteIO, err)
	}

	if _, err := WriteTo(f, s, opts...); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrWriteIO, err)
	}

	return nil
}

// ReadFile reads and decodes the snapshot at path.
func ReadFile(path string, opts ...Option) (*store.Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	return Decode(data, opts...)
}
