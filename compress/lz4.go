package compress

import (
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4CompressorPool pools lz4.Compressor instances, which keep a hash table
// between calls.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Compressor compresses payloads as a single LZ4 block.
type LZ4Compressor struct{}

var (
	_ Codec               = (*LZ4Compressor)(nil)
	_ SizedDecompressor   = (*LZ4Compressor)(nil)
	_ BoundedDecompressor = (*LZ4Compressor)(nil)
)

// lz4MaxRatio bounds LZ4 block expansion: each extra match length byte adds
// at most 255 output bytes.
const lz4MaxRatio = 255

// NewLZ4Compressor creates a new LZ4 compressor.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses the input data using LZ4 block compression.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}

// lz4MaxSize bounds the buffer Decompress grows to without a size hint.
const lz4MaxSize = 512 * 1024 * 1024

// Decompress decompresses an LZ4 block of unknown decompressed size.
//
// The buffer starts at 4x the input and doubles on
// lz4.ErrInvalidSourceShortBuffer, up to 512MiB. Prefer DecompressSize when
// the size is known.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	bufSize := len(data) * 4
	for bufSize <= lz4MaxSize {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, buf)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < lz4MaxSize {
				bufSize = min(bufSize*2, lz4MaxSize)
				continue
			}

			return nil, err
		}

		return buf[:n], nil
	}

	return nil, lz4.ErrInvalidSourceShortBuffer
}

// MaxDecompressedLen returns the largest output an LZ4 block of
// compressedLen bytes can hold.
func (c LZ4Compressor) MaxDecompressedLen(compressedLen int) int {
	return mulSat(compressedLen, lz4MaxRatio)
}

// DecompressSize decompresses an LZ4 block into a buffer of exactly size
// bytes. Callers going through the package DecompressSize get size checked
// against MaxDecompressedLen first.
func (c LZ4Compressor) DecompressSize(data []byte, size int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	buf := make([]byte, size)
	n, err := lz4.UncompressBlock(data, buf)
	if err != nil {
		return nil, err
	}

	return buf[:n], nil
}
