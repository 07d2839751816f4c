package useragent

import (
	"sort"
	"strings"
)

// Field is a single header line, with the name spelled as it was given.
type Field struct {
	Name  string
	Value string
}

// Header is an ordered multi-map of header fields. lookups ignore the case
// of names, the original spelling and order are kept for the wire.
//
// The zero value is an empty header ready to use. copies are independent:
// changing one never shows through another.
type Header struct {
	fields []Field
}

// HeaderFromMap builds a header from m, with keys in sorted order.
func HeaderFromMap(m map[string]string) Header {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	h := Header{fields: make([]Field, 0, len(keys))}
	for _, k := range keys {
		h.Add(k, m[k])
	}
	return h
}

func (h *Header) Add(name, value string) {
	// capped, so a copy sharing the array never sees the new field
	n := len(h.fields)
	h.fields = append(h.fields[:n:n], Field{Name: name, Value: value})
}

// Set replaces every value of name with value. the field keeps the position
// of the first occurrence, or is appended when absent.
func (h *Header) Set(name, value string) {
	at := -1
	kept := make([]Field, 0, len(h.fields)+1)
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			if at != -1 {
				continue
			}
			at = len(kept)
		}
		kept = append(kept, f)
	}
	if at == -1 {
		kept = append(kept, Field{Name: name, Value: value})
	} else {
		kept[at] = Field{Name: name, Value: value}
	}
	h.fields = kept
}

// Get returns the first value of name, or "".
func (h Header) Get(name string) string {
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

func (h Header) Values(name string) []string {
	var vs []string
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			vs = append(vs, f.Value)
		}
	}
	return vs
}

func (h Header) Has(name string) bool {
	for _, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

// Del removes all values of name.
func (h *Header) Del(name string) {
	if !h.Has(name) {
		return
	}
	kept := make([]Field, 0, len(h.fields))
	for _, f := range h.fields {
		if !strings.EqualFold(f.Name, name) {
			kept = append(kept, f)
		}
	}
	h.fields = kept
}

func (h Header) Len() int {
	return len(h.fields)
}

// Fields returns a copy of the fields in order.
func (h Header) Fields() []Field {
	return append([]Field(nil), h.fields...)
}

func (h Header) Clone() Header {
	return Header{fields: h.Fields()}
}

// Merge sets every field of other on h, so that names present in other
// win over the ones already in h.
func (h *Header) Merge(other Header) {
	seen := map[string]bool{}
	for _, f := range other.fields {
		key := strings.ToLower(f.Name)
		if !seen[key] {
			seen[key] = true
			h.Set(f.Name, f.Value)
			continue
		}
		h.Add(f.Name, f.Value)
	}
}
