// Package store holds a decoded appinfo.vdf file in memory and writes it back.
//
// A Store is loaded once, mutated by callers through GetApp, SetApp and
// DeleteApp, and serialized in full: every entry is re-encoded on write, its
// size and checksums recomputed, and for Version41 the string table is
// appended last with its offset patched into the header.
//
// Decoding is tolerant of the drift found in real files. Unknown type tags,
// unresolvable string table indices and size fields that disagree with the
// payload are recorded as Diagnostics and logged; only structural damage
// (bad header, truncation) fails the load, unless WithStrict is given.
//
// Basic usage:
//
//	s, err := store.Load("appinfo.vdf", store.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	entry, ok := s.GetApp(440)
//	if ok {
//	    entry.Data.EnsureDict("common").Set("name", kv.String("TF2"))
//	}
//	err = s.Write("")
//
// A Store is not safe for concurrent use.
package store
