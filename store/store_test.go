package store

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/arloliu/appinfo/encoding"
	"github.com/arloliu/appinfo/errs"
	"github.com/arloliu/appinfo/format"
	"github.com/arloliu/appinfo/kv"
	"github.com/arloliu/appinfo/section"
	"github.com/stretchr/testify/require"
)

var quiet = WithLogger(nil)

func halfLife() *kv.Dict {
	return kv.NewDict().Set("common", kv.NewDict().Set("name", kv.String("Half-Life")))
}

func sampleApps() map[uint32]*kv.Dict {
	return map[uint32]*kv.Dict{
		440: kv.NewDict().
			Set("appid", kv.Int32(440)).
			Set("common", kv.NewDict().
				Set("name", kv.String("Team Fortress 2")).
				Set("type", kv.String("Game")).
				Set("metacritic_score", kv.Int32(92)).
				Set("review_percentage", kv.Float32(0.93)).
				Set("associations", kv.NewDict().
					Set("0", kv.NewDict().Set("type", kv.String("developer")).Set("name", kv.String("Valve"))))).
			Set("extended", kv.NewDict().Set("filesize", kv.Int64(30_000_000_000))),
		70:  halfLife(),
		730: kv.NewDict().Set("common", kv.NewDict().Set("name", kv.String("Counter-Strike 2"))),
	}
}

var sampleOrder = []uint32{440, 70, 730}

func newSampleStore(t *testing.T, v format.Version) *Store {
	t.Helper()

	s, err := New(WithVersion(v), quiet)
	require.NoError(t, err)
	apps := sampleApps()
	for _, id := range sampleOrder {
		require.NoError(t, s.SetApp(id, apps[id]))
	}

	return s
}

type rawEntry struct {
	id        uint32
	tree      []byte
	sizeDelta int
}

// buildFile assembles a file by hand from raw trees.
func buildFile(t *testing.T, v format.Version, table []string, entries ...rawEntry) []byte {
	t.Helper()

	l, err := section.LayoutFor(v)
	require.NoError(t, err)

	buf := section.AppendHeader(nil, section.Header{Version: v, Universe: format.UniversePublic})
	for _, e := range entries {
		h := section.AppHeader{
			AppID:       e.id,
			Size:        uint32(l.SizedFieldsSize() + len(e.tree) + e.sizeDelta), //nolint:gosec
			InfoState:   2,
			LastUpdated: 1700000000,
		}
		buf = section.AppendAppHeader(buf, l, &h)
		buf = append(buf, e.tree...)
	}
	buf = append(buf, 0, 0, 0, 0)

	if l.HasStringTable {
		offset := len(buf)
		buf = section.NewStringTable(table).AppendTo(buf)
		require.NoError(t, section.PatchStringTableOffset(buf, uint64(offset)))
	}

	return buf
}

func inlineTree(key, value string) []byte {
	tree := []byte{0x01}
	tree = encoding.AppendCString(tree, key)
	tree = encoding.AppendCString(tree, value)

	return append(tree, 0x08)
}

func TestNew(t *testing.T) {
	s, err := New(quiet)
	require.NoError(t, err)
	require.Equal(t, format.Version41, s.Version())
	require.Equal(t, format.UniversePublic, s.Universe())
	require.NotNil(t, s.StringTable())
	require.Zero(t, s.Len())

	s, err = New(WithVersion(format.Version28), WithUniverse(format.UniverseBeta))
	require.NoError(t, err)
	require.Equal(t, format.Version28, s.Version())
	require.Equal(t, format.UniverseBeta, s.Universe())
	require.Nil(t, s.StringTable())

	_, err = New(WithVersion(30))
	require.ErrorIs(t, err, errs.ErrIncompatibleVersion)

	_, err = New(WithUniverse(9))
	require.ErrorIs(t, err, errs.ErrInvalidUniverse)
}

func TestStore_SetGetDelete(t *testing.T) {
	s := newSampleStore(t, format.Version40)
	require.Equal(t, sampleOrder, s.AppIDs())

	e, ok := s.GetApp(70)
	require.True(t, ok)
	require.True(t, kv.Equal(halfLife(), e.Data))
	e.InfoState = 7

	replaced := kv.NewDict().Set("common", kv.NewDict().Set("name", kv.String("HL")))
	require.NoError(t, s.SetApp(70, replaced))
	e, _ = s.GetApp(70)
	require.Same(t, replaced, e.Data)
	require.Equal(t, uint32(7), e.InfoState, "replacing data keeps the envelope")
	require.Equal(t, sampleOrder, s.AppIDs(), "replacing keeps the position")

	require.True(t, s.DeleteApp(440))
	require.False(t, s.DeleteApp(440))
	require.Equal(t, []uint32{70, 730}, s.AppIDs())
	_, ok = s.GetApp(440)
	require.False(t, ok)

	require.ErrorIs(t, s.SetApp(0, halfLife()), errs.ErrInvalidAppID)
	require.ErrorIs(t, s.SetApp(1, nil), errs.ErrInvalidNode)

	var ids []uint32
	for id, entry := range s.All() {
		require.Equal(t, id, entry.AppID)
		ids = append(ids, id)
	}
	require.Equal(t, []uint32{70, 730}, ids)
}

func TestStore_RoundTrip(t *testing.T) {
	for _, v := range format.SupportedVersions {
		t.Run(v.String(), func(t *testing.T) {
			s := newSampleStore(t, v)
			b1, err := s.Bytes()
			require.NoError(t, err)

			loaded, err := Decode(b1, quiet)
			require.NoError(t, err)
			require.Empty(t, loaded.Diagnostics())
			require.Equal(t, v, loaded.Version())
			require.Equal(t, sampleOrder, loaded.AppIDs())

			apps := sampleApps()
			for id, entry := range loaded.All() {
				require.True(t, kv.Equal(apps[id], entry.Data), "app %d", id)
				want, _ := s.GetApp(id)
				require.Equal(t, want.AppHeader, entry.AppHeader)
			}

			b2, err := loaded.Bytes()
			require.NoError(t, err)
			require.Equal(t, b1, b2)
		})
	}
}

func TestStore_ChecksumConsistency(t *testing.T) {
	for _, v := range []format.Version{format.Version39, format.Version40, format.Version41} {
		t.Run(v.String(), func(t *testing.T) {
			data, err := newSampleStore(t, v).Bytes()
			require.NoError(t, err)

			loaded, err := Decode(data, quiet)
			require.NoError(t, err)

			mismatched, err := loaded.VerifyChecksums()
			require.NoError(t, err)
			require.Empty(t, mismatched)

			// binary checksums cover the tree bytes exactly as written
			l := loaded.Layout()
			hdr, err := section.ParseHeader(encoding.NewCursor(data))
			require.NoError(t, err)
			c := encoding.NewCursor(data)
			require.NoError(t, c.Seek(hdr.Size()))
			for range sampleOrder {
				start := c.Offset()
				h, err := section.ParseAppHeader(c, l)
				require.NoError(t, err)

				treeEnd := start + section.AppIDSize + section.SizeFieldSize + int(h.Size)
				tree := data[c.Offset():treeEnd]
				if l.HasBinarySHA1 {
					require.Equal(t, encoding.BinaryChecksum(tree), h.BinarySHA1)
				}
				entry, _ := loaded.GetApp(h.AppID)
				require.Equal(t, encoding.TextChecksum(entry.Data), h.TextSHA1)
				require.NoError(t, c.Seek(treeEnd))
			}
		})
	}
}

func TestStore_VerifyChecksumsDetectsEdits(t *testing.T) {
	data, err := newSampleStore(t, format.Version40).Bytes()
	require.NoError(t, err)
	s, err := Decode(data, quiet)
	require.NoError(t, err)

	e, _ := s.GetApp(730)
	e.Data.EnsureDict("common").Set("name", kv.String("CS2"))

	mismatched, err := s.VerifyChecksums()
	require.NoError(t, err)
	require.Equal(t, []uint32{730}, mismatched)

	_, err = s.Bytes()
	require.NoError(t, err)
	mismatched, err = s.VerifyChecksums()
	require.NoError(t, err)
	require.Empty(t, mismatched, "writing refreshes the stored checksums")

	old, err := New(WithVersion(format.Version28), quiet)
	require.NoError(t, err)
	require.NoError(t, old.SetApp(1, halfLife()))
	mismatched, err = old.VerifyChecksums()
	require.NoError(t, err)
	require.Empty(t, mismatched)
}

func TestStore_HalfLifeVersion40(t *testing.T) {
	s, err := New(WithVersion(format.Version40), quiet)
	require.NoError(t, err)
	require.NoError(t, s.SetApp(440, halfLife()))

	data, err := s.Bytes()
	require.NoError(t, err)

	loaded, err := Decode(data, quiet)
	require.NoError(t, err)
	e, ok := loaded.GetApp(440)
	require.True(t, ok)

	name, ok := e.Data.Lookup("common", "name")
	require.True(t, ok)
	require.Equal(t, kv.String("Half-Life"), name)

	tree, err := encoding.NewTreeEncoder(nil).Append(nil, e.Data)
	require.NoError(t, err)
	require.Equal(t, encoding.BinaryChecksum(tree), e.BinarySHA1)
	require.Equal(t, uint32(60+len(tree)), e.Size) //nolint:gosec
	require.Len(t, data, 8+68+len(tree)+4)
}

func TestStore_ZeroApps(t *testing.T) {
	for _, v := range format.SupportedVersions {
		t.Run(v.String(), func(t *testing.T) {
			s, err := New(WithVersion(v), quiet)
			require.NoError(t, err)

			data, err := s.Bytes()
			require.NoError(t, err)

			want := section.AppendHeader(nil, section.Header{Version: v, Universe: format.UniversePublic})
			want = append(want, 0, 0, 0, 0)
			if v.HasStringTable() {
				want = append(want, 0, 0, 0, 0)
				require.NoError(t, section.PatchStringTableOffset(want, 20))
			}
			require.Equal(t, want, data)

			loaded, err := Decode(data, quiet)
			require.NoError(t, err)
			require.Zero(t, loaded.Len())
			require.Empty(t, loaded.Diagnostics())
		})
	}
}

func TestDecode_Version28ReadsNoOptionalFields(t *testing.T) {
	data := buildFile(t, format.Version28, nil,
		rawEntry{id: 10, tree: inlineTree("name", "a")},
		rawEntry{id: 20, tree: inlineTree("name", "b")},
	)
	// header 8 + two entries of 12 envelope bytes + 9 tree bytes + end marker
	require.Len(t, data, 8+2*(12+9)+4)

	s, err := Decode(data, quiet)
	require.NoError(t, err)
	require.Equal(t, []uint32{10, 20}, s.AppIDs())

	e, _ := s.GetApp(20)
	require.Equal(t, section.AppHeader{AppID: 20, InfoState: 2, LastUpdated: 1700000000}, e.AppHeader)
	v, _ := e.Data.GetString("name")
	require.Equal(t, "b", v)
}

func TestDecode_Version41ResolvesKeysThroughTable(t *testing.T) {
	tree := []byte{
		0x00, 1, 0, 0, 0,
		0x01, 0, 0, 0, 0, 'H', 'L', 0,
		0x08,
		0x08,
	}
	data := buildFile(t, format.Version41, []string{"name", "common"}, rawEntry{id: 70, tree: tree})

	s, err := Decode(data, quiet)
	require.NoError(t, err)

	e, _ := s.GetApp(70)
	name, ok := e.Data.Lookup("common", "name")
	require.True(t, ok)
	require.Equal(t, kv.String("HL"), name)
	require.Equal(t, []string{"name", "common"}, s.StringTable().Strings())

	out, err := s.Bytes()
	require.NoError(t, err)
	require.Equal(t, tree, out[16+68:16+68+len(tree)], "loaded indices are reused on write")
}

func TestDecode_IncompatibleVersion(t *testing.T) {
	data := []byte{99, 0x44, 0x56, 0x07, 1, 0, 0, 0, 0, 0, 0, 0}

	_, err := Decode(data, quiet)

	require.ErrorIs(t, err, errs.ErrIncompatibleVersion)
	var ive *errs.IncompatibleVersionError
	require.True(t, errors.As(err, &ive))
	require.Equal(t, uint8(99), ive.Version)
}

func TestDecode_StringIndexOutOfRange(t *testing.T) {
	tree := []byte{
		0x01, 0, 0, 0, 0, 'a', 0,
		0x01, 7, 0, 0, 0, 'b', 0,
		0x08,
	}
	data := buildFile(t, format.Version41, []string{"name"}, rawEntry{id: 5, tree: tree})

	s, err := Decode(data, quiet)
	require.NoError(t, err)

	e, _ := s.GetApp(5)
	require.Equal(t, []string{"name", "__unknown_7__"}, e.Data.Keys())
	diags := s.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, uint32(5), diags[0].AppID)
	require.ErrorIs(t, diags[0].Err, errs.ErrStringIndexOutOfRange)

	_, err = Decode(data, quiet, WithStrict(true))
	require.ErrorIs(t, err, errs.ErrStringIndexOutOfRange)
}

func TestDecode_UnknownTagResumesOnSize(t *testing.T) {
	bad := []byte{
		0x01, 'a', 0, 'x', 0,
		0x0A, 'w', 0, 0xde, 0xad, 0xbe, 0xef,
		0x08,
	}
	data := buildFile(t, format.Version40, nil,
		rawEntry{id: 1, tree: bad},
		rawEntry{id: 2, tree: inlineTree("name", "ok")},
	)

	var logs bytes.Buffer
	s, err := Decode(data, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	require.NoError(t, err)

	require.Equal(t, []uint32{1, 2}, s.AppIDs())
	e, _ := s.GetApp(1)
	require.Equal(t, []string{"a"}, e.Data.Keys())
	e, _ = s.GetApp(2)
	v, _ := e.Data.GetString("name")
	require.Equal(t, "ok", v)

	diags := s.Diagnostics()
	require.Len(t, diags, 1)
	require.ErrorIs(t, diags[0].Err, errs.ErrUnknownTag)
	require.Contains(t, logs.String(), "level=WARN")
	require.Contains(t, logs.String(), "app_id=1")
}

func TestDecode_UnknownTagWithoutSize(t *testing.T) {
	data := buildFile(t, format.Version29, nil,
		rawEntry{id: 1, tree: []byte{0x0A, 'w', 0, 1, 2, 0x08}},
		rawEntry{id: 2, tree: inlineTree("name", "lost")},
	)

	s, err := Decode(data, quiet)
	require.NoError(t, err)
	require.Equal(t, []uint32{1}, s.AppIDs())
	require.NotEmpty(t, s.Diagnostics())
	for _, d := range s.Diagnostics() {
		require.ErrorIs(t, d.Err, errs.ErrUnknownTag)
	}
}

func TestDecode_UnknownTagStopDictWithoutSize(t *testing.T) {
	data := buildFile(t, format.Version29, nil,
		rawEntry{id: 1, tree: []byte{0x01, 'a', 0, 'x', 0, 0x0A, 'w', 0}},
		rawEntry{id: 2, tree: inlineTree("name", "kept")},
	)

	s, err := Decode(data, quiet, WithUnknownTagPolicy(encoding.StopDict))
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2}, s.AppIDs())
	require.Len(t, s.Diagnostics(), 1)
	require.ErrorIs(t, s.Diagnostics()[0].Err, errs.ErrUnknownTag)

	first, ok := s.GetApp(1)
	require.True(t, ok)
	require.Equal(t, []string{"a"}, first.Data.Keys())
	second, ok := s.GetApp(2)
	require.True(t, ok)
	name, ok := second.Data.GetString("name")
	require.True(t, ok)
	require.Equal(t, "kept", name)
}

func TestWithUnknownTagPolicy_Invalid(t *testing.T) {
	_, err := Decode(buildFile(t, format.Version29, nil), WithUnknownTagPolicy(encoding.UnknownTagPolicy(7)))
	require.Error(t, err)
}

func TestDecode_SizeMismatch(t *testing.T) {
	data := buildFile(t, format.Version40, nil,
		rawEntry{id: 1, tree: inlineTree("name", "a"), sizeDelta: 3},
		rawEntry{id: 2, tree: inlineTree("name", "b")},
	)

	s, err := Decode(data, quiet)
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2}, s.AppIDs(), "trees are bounded by their end tag, not by size")
	diags := s.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, uint32(1), diags[0].AppID)
	require.ErrorIs(t, diags[0].Err, errs.ErrSizeMismatch)

	s, err = Decode(data, quiet, WithSizeValidation(false))
	require.NoError(t, err)
	require.Empty(t, s.Diagnostics())

	rewritten, err := s.Bytes()
	require.NoError(t, err)
	s, err = Decode(rewritten, quiet)
	require.NoError(t, err)
	require.Empty(t, s.Diagnostics(), "sizes are recomputed on write")
}

func TestDecode_Truncated(t *testing.T) {
	data := buildFile(t, format.Version40, nil, rawEntry{id: 1, tree: inlineTree("name", "Half-Life")})

	for _, n := range []int{3, 6, 8 + 10, 8 + 68 + 3, len(data) - 6} {
		_, err := Decode(data[:n], quiet)
		require.ErrorIs(t, err, errs.ErrTruncatedInput, "cut at %d", n)
	}
}

func TestDecode_MissingEndMarker(t *testing.T) {
	data := buildFile(t, format.Version28, nil, rawEntry{id: 1, tree: inlineTree("k", "v")})
	data = data[:len(data)-4]

	s, err := Decode(data, quiet)
	require.NoError(t, err)
	require.Equal(t, []uint32{1}, s.AppIDs())
	require.Len(t, s.Diagnostics(), 1)
	require.ErrorIs(t, s.Diagnostics()[0].Err, errs.ErrTruncatedInput)
}

func TestDecode_DuplicateAppID(t *testing.T) {
	data := buildFile(t, format.Version28, nil,
		rawEntry{id: 1, tree: inlineTree("k", "first")},
		rawEntry{id: 2, tree: inlineTree("k", "x")},
		rawEntry{id: 1, tree: inlineTree("k", "second")},
	)

	s, err := Decode(data, quiet)
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2}, s.AppIDs())
	e, _ := s.GetApp(1)
	v, _ := e.Data.GetString("k")
	require.Equal(t, "second", v)
	require.ErrorIs(t, s.Diagnostics()[0].Err, errs.ErrInvalidAppID)
}

func TestStore_BytesFailureLeavesStoreUntouched(t *testing.T) {
	s := newSampleStore(t, format.Version41)
	_, err := s.Bytes()
	require.NoError(t, err)
	tableLen := s.StringTable().Len()
	before, _ := s.GetApp(440)
	header := before.AppHeader

	require.NoError(t, s.SetApp(9, kv.NewDict().Set("fresh", kv.String("bad\x00value"))))
	_, err = s.Bytes()
	require.ErrorIs(t, err, errs.ErrInvalidNode)

	require.Equal(t, tableLen, s.StringTable().Len())
	after, _ := s.GetApp(440)
	require.Equal(t, header, after.AppHeader)
}

func TestStore_WriteAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "appinfo.vdf")

	s := newSampleStore(t, format.Version41)
	require.ErrorIs(t, s.Write(""), errs.ErrNoPath)
	require.NoError(t, s.Write(path))
	require.Equal(t, path, s.Path())

	loaded, err := Load(path, quiet)
	require.NoError(t, err)
	require.Equal(t, path, loaded.Path())
	require.Equal(t, sampleOrder, loaded.AppIDs())

	require.NoError(t, loaded.SetApp(70, kv.NewDict().Set("common", kv.NewDict().Set("name", kv.String("HL1")))))
	require.NoError(t, loaded.Write(""))

	again, err := Load(path, quiet)
	require.NoError(t, err)
	name, _ := again.apps[70].Data.Lookup("common", "name")
	require.Equal(t, kv.String("HL1"), name)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary files are left behind")

	err = s.Write(filepath.Join(dir, "missing", "appinfo.vdf"))
	require.ErrorIs(t, err, errs.ErrWriteIO)

	_, err = Load(filepath.Join(dir, "nope.vdf"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestBytes_InvalidNodeCommitsNothing(t *testing.T) {
	s := newSampleStore(t, format.Version41)
	before, err := s.Bytes()
	require.NoError(t, err)

	e, ok := s.GetApp(s.AppIDs()[0])
	require.True(t, ok)
	e.Data.Set("fresh", kv.NewDict().Set("bad", (*kv.Dict)(nil)))

	_, err = s.Bytes()
	require.ErrorIs(t, err, errs.ErrInvalidNode)

	require.True(t, e.Data.Delete("fresh"))
	after, err := s.Bytes()
	require.NoError(t, err)
	require.Equal(t, before, after, "the failed write left the string table untouched")
}
