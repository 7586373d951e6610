package compress

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/s2"
)

// s2WriterPool pools stream writers; each keeps its block buffers between
// snapshots.
var s2WriterPool = sync.Pool{
	New: func() any {
		return s2.NewWriter(nil, s2.WriterConcurrency(1))
	},
}

var s2ReaderPool = sync.Pool{
	New: func() any {
		return s2.NewReader(nil)
	},
}

// S2Compressor compresses payloads in the S2 stream format.
//
// The stream format is used instead of a single block: a block declares its
// decoded length up front and is decoded into a buffer of that length, while
// a stream is read chunk by chunk, so the memory used follows the data
// actually decoded. Each chunk carries a CRC.
type S2Compressor struct{}

var (
	_ Codec             = (*S2Compressor)(nil)
	_ SizedDecompressor = (*S2Compressor)(nil)
)

// NewS2Compressor creates a new S2 compressor.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress writes data as one S2 stream.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w, _ := s2WriterPool.Get().(*s2.Writer)
	defer s2WriterPool.Put(w)
	w.Reset(&buf)

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("s2 compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("s2 compression failed: %w", err)
	}
	w.Reset(nil)

	return buf.Bytes(), nil
}

// Decompress reads a whole S2 stream of unknown decoded size.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	return c.decompress(data, -1)
}

// DecompressSize reads an S2 stream expected to decode to size bytes. It
// stops one byte past size, so a longer stream is reported by the caller's
// length check without being decoded in full.
func (c S2Compressor) DecompressSize(data []byte, size int) ([]byte, error) {
	return c.decompress(data, size)
}

func (c S2Compressor) decompress(data []byte, size int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r, _ := s2ReaderPool.Get().(*s2.Reader)
	defer s2ReaderPool.Put(r)
	r.Reset(bytes.NewReader(data))
	defer r.Reset(nil)

	var (
		buf bytes.Buffer
		src io.Reader = r
	)
	if size >= 0 {
		buf.Grow(initialCap(size, len(data)))
		src = io.LimitReader(r, int64(size)+1)
	}

	if _, err := io.Copy(&buf, src); err != nil {
		return nil, fmt.Errorf("s2 decompression failed: %w", err)
	}

	return buf.Bytes(), nil
}
