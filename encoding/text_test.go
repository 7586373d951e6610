package encoding

import (
	"encoding/hex"
	"math"
	"testing"

	"github.com/arloliu/appinfo/kv"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func TestAppendText_Golden(t *testing.T) {
	tree := kv.NewDict().
		Set("common", kv.NewDict().
			Set("name", kv.String("Half-Life")).
			Set("type", kv.String("Game")).
			Set("path", kv.String(`C:\\Games\\HL`)).
			Set("gameid", kv.Int32(70)).
			Set("size", kv.Int64(1099511627776)).
			Set("ratio", kv.Float32(0.5)).
			Set("neg", kv.Int32(-3)).
			Set("associations", kv.NewDict().
				Set("0", kv.NewDict().
					Set("type", kv.String("developer")).
					Set("name", kv.String("Valve"))))).
		Set("extended", kv.NewDict())

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "text_vdf", AppendText(nil, tree))
}

func TestAppendText_Layout(t *testing.T) {
	tests := []struct {
		name string
		tree *kv.Dict
		want string
	}{
		{"empty", kv.NewDict(), ""},
		{"scalar", kv.NewDict().Set("a", kv.String("b")), "\"a\"\t\t\"b\"\n"},
		{"quotes are not escaped", kv.NewDict().Set("q", kv.String(`say "hi"`)), "\"q\"\t\t\"say \"hi\"\"\n"},
		{"backslash in key", kv.NewDict().Set(`a\b`, kv.Int32(1)), "\"a\\\\b\"\t\t\"1\"\n"},
		{"empty dict", kv.NewDict().Set("d", kv.NewDict()), "\"d\"\n{\n}\n"},
		{"int32 is signed", kv.NewDict().Set("n", kv.Int32(math.MinInt32)), "\"n\"\t\t\"-2147483648\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, string(AppendText(nil, tt.tree)))
		})
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float32
		want string
	}{
		{0.5, "0.5"},
		{100, "100.0"},
		{-2.25, "-2.25"},
		{0.1, "0.10000000149011612"},
		{1 << 60, "1.152921504606847e+18"},
		{1e16, "1.0000000272564224e+16"},
		{1.0 / (1 << 20), "9.5367431640625e-07"},
		{0.0001220703125, "0.0001220703125"},
		{0, "0.0"},
		{float32(math.Copysign(0, -1)), "-0.0"},
		{float32(math.Inf(1)), "inf"},
		{float32(math.Inf(-1)), "-inf"},
		{float32(math.NaN()), "nan"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, FormatFloat(tt.in))
		})
	}
}

func TestChecksums(t *testing.T) {
	tree := kv.NewDict().Set("common", kv.NewDict().Set("name", kv.String("Half-Life")))

	text := TextChecksum(tree)
	require.Equal(t, "96e1711842813ca1099c7dcb1e7e05122003e4bb", hex.EncodeToString(text[:]))

	data, err := NewTreeEncoder(nil).Append(nil, tree)
	require.NoError(t, err)
	bin := BinaryChecksum(data)
	require.Equal(t, "c5565bc29b1117fea2ddac867ba635cd3e07e272", hex.EncodeToString(bin[:]))

	t.Run("Text checksum ignores key storage", func(t *testing.T) {
		indexed, err := NewTreeEncoder(newMemTable()).Append(nil, tree)
		require.NoError(t, err)
		decoded, err := NewTreeDecoder(newMemTable("common", "name")).Decode(NewCursor(indexed))
		require.NoError(t, err)
		require.Equal(t, text, TextChecksum(decoded))
	})
}
