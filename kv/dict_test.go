package kv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDict_SetKeepsInsertionOrder(t *testing.T) {
	d := NewDict().
		Set("name", String("Portal")).
		Set("type", String("Game")).
		Set("gameid", Int32(400))

	require.Equal(t, []string{"name", "type", "gameid"}, d.Keys())
	require.Equal(t, 3, d.Len())

	t.Run("Replace keeps position", func(t *testing.T) {
		d.Set("name", String("Portal 2"))

		require.Equal(t, []string{"name", "type", "gameid"}, d.Keys())
		name, ok := d.GetString("name")
		require.True(t, ok)
		require.Equal(t, "Portal 2", name)
	})

	t.Run("Delete reindexes", func(t *testing.T) {
		require.True(t, d.Delete("name"))
		require.False(t, d.Delete("name"))

		require.Equal(t, []string{"type", "gameid"}, d.Keys())
		id, ok := d.GetInt("gameid")
		require.True(t, ok)
		require.Equal(t, int64(400), id)

		d.Set("name", String("Portal"))
		require.Equal(t, []string{"type", "gameid", "name"}, d.Keys())
	})
}

func TestDict_Lookup(t *testing.T) {
	d := NewDict().Set("common", NewDict().
		Set("name", String("Half-Life")).
		Set("associations", NewDict().
			Set("0", NewDict().Set("type", String("developer")))))

	n, ok := d.Lookup("common", "name")
	require.True(t, ok)
	require.Equal(t, String("Half-Life"), n)

	n, ok = d.Lookup("common", "associations", "0", "type")
	require.True(t, ok)
	require.Equal(t, String("developer"), n)

	_, ok = d.Lookup("common", "name", "deeper")
	require.False(t, ok)

	_, ok = d.Lookup("missing")
	require.False(t, ok)

	n, ok = d.Lookup()
	require.True(t, ok)
	require.Same(t, d, n)
}

func TestDict_TypedGetters(t *testing.T) {
	d := NewDict().
		Set("s", String("x")).
		Set("i32", Int32(-7)).
		Set("i64", Int64(1<<40)).
		Set("f", Float32(0.5)).
		Set("sub", NewDict())

	_, ok := d.GetString("i32")
	require.False(t, ok)

	v, ok := d.GetInt("i64")
	require.True(t, ok)
	require.Equal(t, int64(1<<40), v)

	v, ok = d.GetInt("i32")
	require.True(t, ok)
	require.Equal(t, int64(-7), v)

	_, ok = d.GetInt("f")
	require.False(t, ok)

	sub, ok := d.GetDict("sub")
	require.True(t, ok)
	require.Equal(t, 0, sub.Len())

	_, ok = d.GetDict("s")
	require.False(t, ok)
}

func TestDict_EnsureDict(t *testing.T) {
	d := NewDict().Set("common", String("not a dict"))

	common := d.EnsureDict("common")
	common.Set("name", String("x"))

	n, ok := d.Lookup("common", "name")
	require.True(t, ok)
	require.Equal(t, String("x"), n)
	require.Same(t, common, d.EnsureDict("common"))
}

func TestDict_CloneIsDeep(t *testing.T) {
	orig := NewDict().Set("common", NewDict().Set("name", String("a")))
	c := orig.Clone()

	require.True(t, Equal(orig, c))

	inner, _ := c.GetDict("common")
	inner.Set("name", String("b"))

	n, _ := orig.Lookup("common", "name")
	require.Equal(t, String("a"), n)
	require.False(t, Equal(orig, c))
}

func TestDict_All(t *testing.T) {
	d := NewDict().Set("a", Int32(1)).Set("b", Int32(2)).Set("c", Int32(3))

	var keys []string
	for k := range d.All() {
		keys = append(keys, k)
		if k == "b" {
			break
		}
	}
	require.Equal(t, []string{"a", "b"}, keys)
}

func TestInt(t *testing.T) {
	require.Equal(t, Int32(5), Int(5))
	require.Equal(t, Int32(math.MinInt32), Int(math.MinInt32))
	require.Equal(t, Int64(math.MaxInt32+1), Int(math.MaxInt32+1))
	require.Equal(t, Int64(math.MinInt32-1), Int(math.MinInt32-1))
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Node
		want bool
	}{
		{"same string", String("a"), String("a"), true},
		{"different kind", Int32(1), Int64(1), false},
		{"nil both", nil, nil, true},
		{"nil one", nil, String(""), false},
		{"float", Float32(1.25), Float32(1.25), true},
		{"nan", Float32(float32(math.NaN())), Float32(float32(math.NaN())), true},
		{"order matters",
			NewDict().Set("a", Int32(1)).Set("b", Int32(2)),
			NewDict().Set("b", Int32(2)).Set("a", Int32(1)),
			false},
		{"nested equal",
			NewDict().Set("x", NewDict().Set("y", String("z"))),
			NewDict().Set("x", NewDict().Set("y", String("z"))),
			true},
		{"nested differ",
			NewDict().Set("x", NewDict().Set("y", String("z"))),
			NewDict().Set("x", NewDict().Set("y", String("w"))),
			false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestDisplayString(t *testing.T) {
	require.Equal(t, "Pokémon", DisplayString("Pokémon"))
	// "Café" in latin-1
	require.Equal(t, "Café", DisplayString("Caf\xe9"))
}
