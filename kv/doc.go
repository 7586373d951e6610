// Package kv provides the in-memory tree of a binary KeyValue document.
//
// A tree is built from five node variants, each held by value:
//
//	*Dict    ordered map of string keys to nodes (tag 0x00)
//	String   byte string (tag 0x01)
//	Int32    signed 32-bit integer (tag 0x02)
//	Float32  IEEE 754 single (tag 0x03)
//	Int64    signed 64-bit integer (tag 0x07)
//
// Dict keys are unique and keep insertion order. The order is part of the
// document: both appinfo checksums are computed over an encoding that walks
// the keys in order, so reordering a Dict changes the checksums.
//
// String values and keys are kept as the raw bytes found in the file. Steam
// writes UTF-8, but older entries can carry latin-1 text; keeping the bytes
// makes a load/write cycle byte exact. DisplayString converts such values to
// UTF-8 for presentation.
//
// # Building trees
//
//	app := kv.NewDict().
//		Set("common", kv.NewDict().
//			Set("name", kv.String("Team Fortress 2")).
//			Set("type", kv.String("Game"))).
//		Set("gameid", kv.Int32(440))
//
//	name, ok := app.Lookup("common", "name")
package kv
