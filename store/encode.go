package store

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arloliu/appinfo/encoding"
	"github.com/arloliu/appinfo/errs"
	"github.com/arloliu/appinfo/internal/pool"
	"github.com/arloliu/appinfo/section"
)

// Bytes encodes the whole store.
//
// Every entry is re-encoded: its size, text SHA-1 and binary SHA-1 are
// recomputed from Data for the versions that carry them. For Version41 the
// string table starts from the loaded one, grows with keys first seen while
// encoding, is appended after the end marker and its offset is patched into
// the header.
//
// The recomputed envelopes and the grown string table are committed to the
// store only when encoding succeeds.
//
// Returns:
//   - []byte: the complete file image, owned by the caller
//   - error: a node the format cannot hold, such as a nil dict
func (s *Store) Bytes() ([]byte, error) {
	buf := pool.GetStoreBuffer()
	defer pool.PutStoreBuffer(buf)
	tree := pool.GetTreeBuffer()
	defer pool.PutTreeBuffer(tree)

	var (
		strings *section.StringTable
		keys    encoding.KeyInterner
	)
	if s.layout.HasStringTable {
		strings = s.strings.Clone()
		keys = strings
	}
	enc := encoding.NewTreeEncoder(keys)

	buf.MustWrite(section.AppendHeader(nil, s.header))

	headers := make([]section.AppHeader, 0, len(s.order))
	for _, id := range s.order {
		e := s.apps[id]

		var err error
		tree.Reset()
		if tree.B, err = enc.Append(tree.B, e.Data); err != nil {
			return nil, fmt.Errorf("app %d: %w", id, err)
		}

		h := s.envelope(e, tree.B)
		buf.B = section.AppendAppHeader(buf.B, s.layout, &h)
		buf.MustWrite(tree.B)
		headers = append(headers, h)
	}
	buf.MustWrite([]byte{0, 0, 0, 0})

	if s.layout.HasStringTable {
		offset := buf.Len()
		buf.B = strings.AppendTo(buf.B)
		if err := section.PatchStringTableOffset(buf.Slice(0, section.StringTableHeaderSize), uint64(offset)); err != nil { //nolint:gosec
			return nil, err
		}
		s.header.StringTableOffset = uint64(offset) //nolint:gosec
		s.strings = strings
	}

	for i, id := range s.order {
		s.apps[id].AppHeader = headers[i]
	}

	return bytes.Clone(buf.Bytes()), nil
}

// envelope returns the header of e with the fields derived from its tree
// recomputed.
func (s *Store) envelope(e *AppEntry, tree []byte) section.AppHeader {
	h := e.AppHeader
	if s.layout.HasSize {
		h.Size = uint32(s.layout.SizedFieldsSize() + len(tree)) //nolint:gosec
	}
	if s.layout.HasTextSHA1 {
		h.TextSHA1 = encoding.TextChecksum(e.Data)
	}
	if s.layout.HasBinarySHA1 {
		h.BinarySHA1 = encoding.BinaryChecksum(tree)
	}

	return h
}

// Write encodes the store and writes it to path, or to the path it was
// loaded from when path is empty. The file is written to a temporary file
// in the target directory and renamed over the target.
//
// Returns errs.ErrNoPath when no path is known and an error wrapping
// errs.ErrWriteIO when the file cannot be written.
func (s *Store) Write(path string) error {
	if path == "" {
		path = s.path
	}
	if path == "" {
		return errs.ErrNoPath
	}

	data, err := s.Bytes()
	if err != nil {
		return err
	}

	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrWriteIO, err)
	}
	s.path = path

	return nil
}

func writeFile(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// VerifyChecksums recomputes the text and binary SHA-1 of every entry and
// returns the ids whose stored checksums differ, in file order. Versions
// without checksums always verify.
func (s *Store) VerifyChecksums() ([]uint32, error) {
	if !s.layout.HasTextSHA1 && !s.layout.HasBinarySHA1 {
		return nil, nil
	}

	var keys encoding.KeyInterner
	if s.layout.HasStringTable {
		keys = s.strings.Clone()
	}
	enc := encoding.NewTreeEncoder(keys)

	tree := pool.GetTreeBuffer()
	defer pool.PutTreeBuffer(tree)

	var mismatched []uint32
	for _, id := range s.order {
		e := s.apps[id]

		var err error
		tree.Reset()
		if tree.B, err = enc.Append(tree.B, e.Data); err != nil {
			return nil, fmt.Errorf("app %d: %w", id, err)
		}

		h := s.envelope(e, tree.B)
		if h.TextSHA1 != e.TextSHA1 || h.BinarySHA1 != e.BinarySHA1 {
			mismatched = append(mismatched, id)
		}
	}

	return mismatched, nil
}
