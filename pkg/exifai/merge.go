package exifai

import (
	"maps"
	"slices"
	"strings"

	"github.com/samber/lo"
	"k8s.io/klog/v2"
)

// Value is an existing metadata value: absent, a single string, or a list.
type Value struct {
	Set    bool
	IsList bool
	Str    string
	List   []string
}

// StringValue returns a single-valued Value.
func StringValue(s string) Value {
	return Value{Set: true, Str: s}
}

// ListValue returns a multi-valued Value.
func ListValue(ss ...string) Value {
	return Value{Set: true, IsList: true, List: ss}
}

// Blank reports whether v is absent or contains only whitespace.
func (v Value) Blank() bool {
	if !v.Set {
		return true
	}
	if v.IsList {
		return !lo.SomeBy(v.List, func(s string) bool { return strings.TrimSpace(s) != "" })
	}
	return strings.TrimSpace(v.Str) == ""
}

// Strings returns v as a list.
func (v Value) Strings() []string {
	switch {
	case !v.Set:
		return nil
	case v.IsList:
		return v.List
	default:
		return []string{v.Str}
	}
}

// FieldMap is the set of values to write to a single image.
// Keys are present only when there is something to write.
type FieldMap struct {
	Descriptions map[FieldKey]string
	Tags         map[FieldKey][]string
}

// Empty reports whether m has nothing to write.
func (m FieldMap) Empty() bool {
	return len(m.Descriptions) == 0 && len(m.Tags) == 0
}

// Keys returns the sorted field names in m.
func (m FieldMap) Keys() []FieldKey {
	ks := slices.Collect(maps.Keys(m.Descriptions))
	ks = append(ks, slices.Collect(maps.Keys(m.Tags))...)
	slices.Sort(ks)
	return ks
}

// Merge returns a FieldMap holding the entries of m and o; o wins on conflict.
func (m FieldMap) Merge(o FieldMap) FieldMap {
	out := FieldMap{
		Descriptions: map[FieldKey]string{},
		Tags:         map[FieldKey][]string{},
	}
	maps.Copy(out.Descriptions, m.Descriptions)
	maps.Copy(out.Descriptions, o.Descriptions)
	maps.Copy(out.Tags, m.Tags)
	maps.Copy(out.Tags, o.Tags)
	return out
}

// MergeTags computes tag field values. A nil existing map means overwrite mode:
// every key receives tags verbatim. Otherwise tags are combined with what is
// already there, without duplicates, keeping first-seen order.
func MergeTags(tags []string, keys []FieldKey, existing map[FieldKey]Value) map[FieldKey][]string {
	out := map[FieldKey][]string{}
	if len(tags) == 0 {
		return out
	}

	for _, k := range keys {
		if existing == nil {
			out[k] = slices.Clone(tags)
			continue
		}

		var combined []string
		v := existing[k]
		switch {
		case !v.Set:
			combined = slices.Clone(tags)
		case v.IsList:
			combined = append(slices.Clone(v.List), tags...)
		default:
			combined = append(slices.Clone(tags), strings.TrimSpace(v.Str))
		}
		out[k] = lo.Uniq(lo.Compact(combined))
	}
	return out
}

// MergeDescription computes description field values. A nil existing map
// means overwrite mode. Otherwise only blank fields are filled; a field with
// no entry at all counts as blank.
func MergeDescription(desc string, keys []FieldKey, existing map[FieldKey]Value) map[FieldKey]string {
	out := map[FieldKey]string{}
	if strings.TrimSpace(desc) == "" {
		return out
	}

	for _, k := range keys {
		if existing != nil && !existing[k].Blank() {
			klog.V(1).Infof("keeping existing %s: %q", k, existing[k].Strings())
			continue
		}
		out[k] = desc
	}
	return out
}
