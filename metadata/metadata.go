// Package metadata reads and overrides the descriptive fields of an app's
// KeyValue tree: name, type, developers, publishers and release date.
//
// These live in the tree's "common" section. Developers and publishers are
// listed under "common/associations" as numbered entries of the form
// {"type": "developer", "name": "Valve"}; older trees carry plain
// "developer" and "publisher" strings instead.
package metadata

import (
	"strconv"
	"strings"

	"github.com/arloliu/appinfo/kv"
)

// Info is the descriptive metadata of one app.
type Info struct {
	Name        string   `msgpack:"name,omitempty" yaml:"name,omitempty"`
	Type        string   `msgpack:"type,omitempty" yaml:"type,omitempty"`
	Developers  []string `msgpack:"developers,omitempty" yaml:"developers,omitempty"`
	Publishers  []string `msgpack:"publishers,omitempty" yaml:"publishers,omitempty"`
	ReleaseDate string   `msgpack:"release_date,omitempty" yaml:"release_date,omitempty"`
}

// Developer returns the developers joined with ", ".
func (i Info) Developer() string {
	return strings.Join(i.Developers, ", ")
}

// Publisher returns the publishers joined with ", ".
func (i Info) Publisher() string {
	return strings.Join(i.Publishers, ", ")
}

// With returns i with the fields set in o replaced.
func (i Info) With(o Override) Info {
	if o.Name != nil {
		i.Name = *o.Name
	}
	if o.Type != nil {
		i.Type = *o.Type
	}
	if o.Developer != nil {
		i.Developers = SplitList(*o.Developer)
	}
	if o.Publisher != nil {
		i.Publishers = SplitList(*o.Publisher)
	}
	if o.ReleaseDate != nil {
		i.ReleaseDate = *o.ReleaseDate
	}

	return i
}

// FindCommon locates the "common" section of an app tree. It is looked up
// directly, under "appinfo", and one level below any top-level dict.
func FindCommon(data *kv.Dict) (*kv.Dict, bool) {
	if data == nil {
		return nil, false
	}
	if common, ok := directCommon(data); ok {
		return common, true
	}

	for _, entry := range data.Entries() {
		sub, ok := entry.Value.(*kv.Dict)
		if !ok || sub == nil {
			continue
		}
		if common, ok := directCommon(sub); ok {
			return common, true
		}
	}

	return nil, false
}

func directCommon(d *kv.Dict) (*kv.Dict, bool) {
	if common, ok := d.GetDict("common"); ok {
		return common, true
	}
	if appinfo, ok := d.GetDict("appinfo"); ok {
		return appinfo.GetDict("common")
	}

	return nil, false
}

// Extract reads the metadata of an app tree. It reports false when the tree
// has no common section.
//
// Developers and publishers come from associations; the plain "developer"
// and "publisher" fields are used only when associations list none. The
// release date is "steam_release_date", falling back to "release_date".
func Extract(data *kv.Dict) (Info, bool) {
	var info Info

	common, ok := FindCommon(data)
	if !ok {
		return info, false
	}

	info.Name = text(common, "name")
	info.Type = text(common, "type")

	if assoc, ok := common.GetDict("associations"); ok {
		for _, entry := range assoc.Entries() {
			item, ok := entry.Value.(*kv.Dict)
			if !ok || item == nil {
				continue
			}
			name := text(item, "name")
			if name == "" {
				continue
			}
			switch text(item, "type") {
			case "developer":
				info.Developers = append(info.Developers, name)
			case "publisher":
				info.Publishers = append(info.Publishers, name)
			}
		}
	}
	if len(info.Developers) == 0 {
		if dev := text(common, "developer"); dev != "" {
			info.Developers = []string{dev}
		}
	}
	if len(info.Publishers) == 0 {
		if pub := text(common, "publisher"); pub != "" {
			info.Publishers = []string{pub}
		}
	}

	if common.Has("steam_release_date") {
		info.ReleaseDate = text(common, "steam_release_date")
	} else {
		info.ReleaseDate = text(common, "release_date")
	}

	return info, true
}

// text renders a scalar as a string. Dicts and missing keys are empty.
func text(d *kv.Dict, key string) string {
	n, ok := d.Get(key)
	if !ok {
		return ""
	}

	switch v := n.(type) {
	case kv.String:
		return kv.DisplayString(string(v))
	case kv.Int32:
		return strconv.FormatInt(int64(v), 10)
	case kv.Int64:
		return strconv.FormatInt(int64(v), 10)
	case kv.Float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	default:
		return ""
	}
}

// SplitList splits a comma separated list and drops empty items.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
