package kv

import "iter"

// Entry is one key/value pair of a Dict.
type Entry struct {
	Key   string
	Value Node
}

// Dict is an insertion-ordered map from string keys to nodes.
//
// The zero value is not usable; create dicts with NewDict.
type Dict struct {
	entries []Entry
	index   map[string]int
}

var _ Node = (*Dict)(nil)

// NewDict creates an empty Dict.
func NewDict() *Dict {
	return &Dict{index: make(map[string]int)}
}

func (*Dict) Kind() Kind { return KindDict }
func (*Dict) node()      {}

// Len returns the number of keys.
func (d *Dict) Len() int {
	return len(d.entries)
}

// Set stores value under key and returns d. An existing key keeps its
// position, a new key is appended.
func (d *Dict) Set(key string, value Node) *Dict {
	if i, ok := d.index[key]; ok {
		d.entries[i].Value = value
		return d
	}

	d.index[key] = len(d.entries)
	d.entries = append(d.entries, Entry{Key: key, Value: value})

	return d
}

// Get returns the node stored under key.
func (d *Dict) Get(key string) (Node, bool) {
	i, ok := d.index[key]
	if !ok {
		return nil, false
	}

	return d.entries[i].Value, true
}

// Has reports whether key is present.
func (d *Dict) Has(key string) bool {
	_, ok := d.index[key]
	return ok
}

// Delete removes key and reports whether it was present.
func (d *Dict) Delete(key string) bool {
	i, ok := d.index[key]
	if !ok {
		return false
	}

	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	delete(d.index, key)
	for j := i; j < len(d.entries); j++ {
		d.index[d.entries[j].Key] = j
	}

	return true
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	keys := make([]string, len(d.entries))
	for i := range d.entries {
		keys[i] = d.entries[i].Key
	}

	return keys
}

// Entries returns the pairs in insertion order. The slice must not be modified.
func (d *Dict) Entries() []Entry {
	return d.entries
}

// All iterates over the pairs in insertion order.
func (d *Dict) All() iter.Seq2[string, Node] {
	return func(yield func(string, Node) bool) {
		for _, e := range d.entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Lookup follows path through nested dicts.
func (d *Dict) Lookup(path ...string) (Node, bool) {
	var cur Node = d
	for _, key := range path {
		dict, ok := cur.(*Dict)
		if !ok || dict == nil {
			return nil, false
		}
		if cur, ok = dict.Get(key); !ok {
			return nil, false
		}
	}

	return cur, true
}

// GetDict returns the Dict stored under key.
func (d *Dict) GetDict(key string) (*Dict, bool) {
	n, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	dict, ok := n.(*Dict)

	return dict, ok
}

// GetString returns the String stored under key.
func (d *Dict) GetString(key string) (string, bool) {
	n, ok := d.Get(key)
	if !ok {
		return "", false
	}
	s, ok := n.(String)

	return string(s), ok
}

// GetInt returns the integer stored under key, widening Int32 values.
func (d *Dict) GetInt(key string) (int64, bool) {
	n, ok := d.Get(key)
	if !ok {
		return 0, false
	}

	switch v := n.(type) {
	case Int32:
		return int64(v), true
	case Int64:
		return int64(v), true
	default:
		return 0, false
	}
}

// EnsureDict returns the Dict stored under key, replacing any other value
// with a new empty Dict.
func (d *Dict) EnsureDict(key string) *Dict {
	if dict, ok := d.GetDict(key); ok && dict != nil {
		return dict
	}

	dict := NewDict()
	d.Set(key, dict)

	return dict
}

// Clone returns a deep copy of d.
func (d *Dict) Clone() *Dict {
	c := &Dict{
		entries: make([]Entry, len(d.entries)),
		index:   make(map[string]int, len(d.entries)),
	}
	for i, e := range d.entries {
		if sub, ok := e.Value.(*Dict); ok && sub != nil {
			e.Value = sub.Clone()
		}
		c.entries[i] = e
		c.index[e.Key] = i
	}

	return c
}
