// Package compress provides the payload codecs used by appinfo snapshots.
//
// An encoded appinfo.vdf is dominated by repeated keys and short strings and
// compresses well with any general-purpose algorithm. The package wraps four
// of them behind one interface:
//
//	type Codec interface {
//	    Compress(data []byte) ([]byte, error)
//	    Decompress(data []byte) ([]byte, error)
//	}
//
// # Supported Algorithms
//
//   - format.CompressionNone: data is passed through unchanged
//   - format.CompressionZstd: best ratio, the snapshot default
//   - format.CompressionS2: fast with a good ratio, written as an S2 stream
//   - format.CompressionLZ4: fastest decompression; LZ4 blocks do not record
//     their decompressed size, so callers that know it should use
//     DecompressSize
//
// DecompressSize treats the expected size as untrusted. Codecs with a fixed
// worst-case ratio (none, zstd and LZ4) implement BoundedDecompressor and a
// size the payload could not reach is refused before any allocation. S2
// streams are decoded chunk by chunk instead.
//
// Codecs are obtained from GetCodec, which returns shared stateless
// instances, or CreateCodec:
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//	    return err
//	}
//	packed, err := codec.Compress(raw)
//
// All codecs are safe for concurrent use. Encoder and decoder state for zstd,
// S2 and LZ4 is pooled.
package compress
