// Package appinfo reads and writes Steam's appinfo.vdf, the binary KeyValue
// file holding the metadata of every app known to a Steam client.
//
// # Core Features
//
//   - Versions 28, 29, 39, 40 and 41, detected from the header word
//   - Ordered, typed KeyValue trees (dict, string, int32, int64, float32)
//   - Size, text SHA-1 and binary SHA-1 recomputed on every write
//   - Version41 string table, grown while encoding and patched into the header
//   - Tolerant decoding: unknown tags and bad string indices are contained to
//     one app and reported as diagnostics
//
// # Basic Usage
//
// Renaming an app:
//
//	import "github.com/arloliu/appinfo"
//
//	s, err := appinfo.LoadFile("/path/to/Steam/appcache/appinfo.vdf")
//	if err != nil {
//	    return err
//	}
//	entry, ok := s.GetApp(440)
//	if !ok {
//	    return errs.ErrAppNotFound
//	}
//	entry.Data.EnsureDict("common").Set("name", kv.String("TF2"))
//	return s.Write("")
//
// Building a file from scratch:
//
//	s, _ := appinfo.New(store.WithVersion(format.Version40))
//	_ = s.SetApp(70, kv.NewDict().Set("common", kv.NewDict().Set("name", kv.String("Half-Life"))))
//	data, _ := appinfo.Encode(s)
//
// # Package Structure
//
// This package provides top-level wrappers around the store package. The
// kv package holds the tree model, encoding the tree codec and text
// rendering, section the header, envelope and string table structures.
// The metadata, overrides and snapshot packages build on a loaded store.
package appinfo

import (
	"fmt"
	"io"

	"github.com/arloliu/appinfo/store"
)

// New creates an empty store. See store.New.
func New(opts ...store.Option) (*store.Store, error) {
	return store.New(opts...)
}

// LoadFile reads and decodes the appinfo.vdf at path. Write("") on the
// returned store writes back to path.
func LoadFile(path string, opts ...store.Option) (*store.Store, error) {
	return store.Load(path, opts...)
}

// Load reads r to the end and decodes it.
func Load(r io.Reader, opts ...store.Option) (*store.Store, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read appinfo: %w", err)
	}

	return store.Decode(data, opts...)
}

// Decode decodes an in-memory appinfo.vdf image. See store.Decode.
func Decode(data []byte, opts ...store.Option) (*store.Store, error) {
	return store.Decode(data, opts...)
}

// Encode encodes s with freshly computed sizes and checksums.
func Encode(s *store.Store) ([]byte, error) {
	return s.Bytes()
}
