package domain

import "path"

// Tags is a duplicate-free ordered list of strings. Insertion order is
// observable in rendered output, so Tags is a sequence with uniqueness
// enforced on insert, not a set.
type Tags []string

// Add appends tag unless it is already present. Reports whether the tag
// was added.
func (t *Tags) Add(tag string) bool {
	for _, have := range *t {
		if have == tag {
			return false
		}
	}
	*t = append(*t, tag)
	return true
}

// Contains reports whether tag is present. Comparison is case-sensitive.
func (t Tags) Contains(tag string) bool {
	for _, have := range t {
		if have == tag {
			return true
		}
	}
	return false
}

// Clone returns an independent copy.
func (t Tags) Clone() Tags {
	if t == nil {
		return nil
	}
	out := make(Tags, len(t))
	copy(out, t)
	return out
}

// MatchAny reports whether any of the glob patterns matches any of the
// tags. Patterns use POSIX filename-pattern semantics (`*`, `?`,
// character classes); malformed patterns never match.
func MatchAny(patterns, tags Tags) bool {
	for _, p := range patterns {
		for _, tag := range tags {
			if ok, err := path.Match(p, tag); err == nil && ok {
				return true
			}
		}
	}
	return false
}
