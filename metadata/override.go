package metadata

import (
	"strconv"

	"github.com/arloliu/appinfo/kv"
)

// Override is a partial metadata change. Nil fields are left as they are.
// Developer and Publisher are comma separated lists.
type Override struct {
	Name        *string `msgpack:"name,omitempty" yaml:"name,omitempty"`
	Type        *string `msgpack:"type,omitempty" yaml:"type,omitempty"`
	Developer   *string `msgpack:"developer,omitempty" yaml:"developer,omitempty"`
	Publisher   *string `msgpack:"publisher,omitempty" yaml:"publisher,omitempty"`
	ReleaseDate *string `msgpack:"release_date,omitempty" yaml:"release_date,omitempty"`
}

// IsZero reports whether o changes nothing.
func (o Override) IsZero() bool {
	return o.Name == nil && o.Type == nil && o.Developer == nil && o.Publisher == nil && o.ReleaseDate == nil
}

// Merge returns o with the fields set in other replaced.
func (o Override) Merge(other Override) Override {
	if other.Name != nil {
		o.Name = other.Name
	}
	if other.Type != nil {
		o.Type = other.Type
	}
	if other.Developer != nil {
		o.Developer = other.Developer
	}
	if other.Publisher != nil {
		o.Publisher = other.Publisher
	}
	if other.ReleaseDate != nil {
		o.ReleaseDate = other.ReleaseDate
	}

	return o
}

// Apply writes o into the common section of data, creating the section
// when the tree has none.
//
// Developers and publishers replace the matching associations entries; other
// associations (franchise and so on) are kept and the entries renumbered
// from "0". Plain "developer" and "publisher" fields are updated when
// present. A release date is written to "steam_release_date" and mirrored to
// "release_date" when that key exists; a key already holding an integer
// keeps an integer when the new date parses as one.
func Apply(data *kv.Dict, o Override) {
	if o.IsZero() {
		return
	}

	common, ok := FindCommon(data)
	if !ok {
		common = data.EnsureDict("common")
	}

	if o.Name != nil {
		common.Set("name", kv.String(*o.Name))
	}
	if o.Type != nil {
		common.Set("type", kv.String(*o.Type))
	}
	if o.Developer != nil {
		setAssociations(common, "developer", SplitList(*o.Developer))
		if common.Has("developer") {
			common.Set("developer", kv.String(*o.Developer))
		}
	}
	if o.Publisher != nil {
		setAssociations(common, "publisher", SplitList(*o.Publisher))
		if common.Has("publisher") {
			common.Set("publisher", kv.String(*o.Publisher))
		}
	}
	if o.ReleaseDate != nil {
		common.Set("steam_release_date", releaseDate(common, "steam_release_date", *o.ReleaseDate))
		if common.Has("release_date") {
			common.Set("release_date", releaseDate(common, "release_date", *o.ReleaseDate))
		}
	}
}

func setAssociations(common *kv.Dict, kind string, names []string) {
	old, _ := common.GetDict("associations")

	assoc := kv.NewDict()
	next := 0
	add := func(item *kv.Dict) {
		assoc.Set(strconv.Itoa(next), item)
		next++
	}

	if old != nil {
		for _, entry := range old.Entries() {
			item, ok := entry.Value.(*kv.Dict)
			if ok && item != nil && text(item, "type") == kind {
				continue
			}
			if ok && item != nil {
				add(item)
			}
		}
	}
	for _, name := range names {
		add(kv.NewDict().Set("type", kv.String(kind)).Set("name", kv.String(name)))
	}

	common.Set("associations", assoc)
}

func releaseDate(common *kv.Dict, key, s string) kv.Node {
	if old, ok := common.Get(key); ok {
		switch old.Kind() { //nolint:exhaustive
		case kv.KindInt32, kv.KindInt64:
			if v, err := strconv.ParseInt(s, 10, 64); err == nil {
				return kv.Int(v)
			}
		}
	}

	return kv.String(s)
}
