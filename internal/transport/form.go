package transport

import (
	"net/url"
	"strings"
)

// FormPair is one name/value entry of an ordered form.
type FormPair struct {
	Name  string
	Value string
}

// Form is an ordered name→value mapping encoded in insertion order. Field
// presence is a correctness property against the portal: an omitted field
// silently defaults server-side, so builders always set every field they own
// even when the value is empty.
type Form struct {
	pairs []FormPair
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{}
}

// Set replaces the value of name, appending when absent.
func (f *Form) Set(name, value string) {
	for i := range f.pairs {
		if f.pairs[i].Name == name {
			f.pairs[i].Value = value
			return
		}
	}
	f.pairs = append(f.pairs, FormPair{Name: name, Value: value})
}

// Add appends an entry even when name is already present.
func (f *Form) Add(name, value string) {
	f.pairs = append(f.pairs, FormPair{Name: name, Value: value})
}

// Get returns the first value of name, empty when absent.
func (f *Form) Get(name string) string {
	for _, p := range f.pairs {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}

// Has reports whether name is present.
func (f *Form) Has(name string) bool {
	for _, p := range f.pairs {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Len returns the number of entries.
func (f *Form) Len() int {
	return len(f.pairs)
}

// Pairs returns the entries in insertion order.
func (f *Form) Pairs() []FormPair {
	out := make([]FormPair, len(f.pairs))
	copy(out, f.pairs)
	return out
}

// Clone returns an independent copy.
func (f *Form) Clone() *Form {
	return &Form{pairs: f.Pairs()}
}

// Merge appends every entry of other.
func (f *Form) Merge(other *Form) {
	if other == nil {
		return
	}
	for _, p := range other.pairs {
		f.Add(p.Name, p.Value)
	}
}

// Encode serializes the form as application/x-www-form-urlencoded in
// insertion order. Identical input always yields a byte-identical encoding.
func (f *Form) Encode() string {
	var b strings.Builder
	for i, p := range f.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}
