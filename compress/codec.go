package compress

import (
	"fmt"
	"math"

	"github.com/arloliu/appinfo/errs"
	"github.com/arloliu/appinfo/format"
)

// Compressor compresses a complete payload.
//
// The returned slice is owned by the caller; the input is not modified.
// Compressing an empty input returns nil.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor of the same algorithm.
//
// Returns an error if data is corrupted or was produced by another
// algorithm. Decompressing an empty input returns nil.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// SizedDecompressor is implemented by codecs that decompress more efficiently
// when the decompressed size is known up front.
type SizedDecompressor interface {
	DecompressSize(data []byte, size int) ([]byte, error)
}

// BoundedDecompressor is implemented by codecs whose output can be no
// larger than a fixed multiple of their input.
type BoundedDecompressor interface {
	// MaxDecompressedLen returns the largest output compressedLen bytes can
	// decode to.
	MaxDecompressedLen(compressedLen int) int
}

// DecompressSize decompresses data that is expected to expand to exactly
// size bytes, using the codec's SizedDecompressor when it has one.
//
// size usually comes from an untrusted header. It is checked against the
// codec's BoundedDecompressor before any buffer is sized from it, so a
// short payload cannot claim a large output.
func DecompressSize(d Decompressor, data []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("negative decompressed size %d", size)
	}
	if bd, ok := d.(BoundedDecompressor); ok {
		if limit := bd.MaxDecompressedLen(len(data)); size > limit {
			return nil, fmt.Errorf("decompressed size %d exceeds %d for %d input bytes", size, limit, len(data))
		}
	}

	var (
		out []byte
		err error
	)
	if sd, ok := d.(SizedDecompressor); ok {
		out, err = sd.DecompressSize(data, size)
	} else {
		out, err = d.Decompress(data)
	}
	if err != nil {
		return nil, err
	}
	if len(out) != size {
		return nil, fmt.Errorf("decompressed %d bytes, expected %d", len(out), size)
	}

	return out, nil
}

// mulSat returns n*k, saturating at math.MaxInt.
func mulSat(n, k int) int {
	if n > math.MaxInt/k {
		return math.MaxInt
	}

	return n * k
}

// initialCap sizes the first output buffer of a codec that grows on demand.
func initialCap(size, compressedLen int) int {
	return min(size, mulSat(compressedLen, 4))
}

// CreateCodec creates a Codec for compressionType. target names the payload
// in the error for an unknown type.
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("%w: %s %s", errs.ErrUnsupportedCompression, target, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, compressionType)
}
