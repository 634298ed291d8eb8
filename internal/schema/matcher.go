package schema

import "strings"

// NormalizeHeader lower-cases s and drops every character that is not an
// ASCII letter or digit.
func NormalizeHeader(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + ('a' - 'A'))
		}
	}
	return b.String()
}

// Matches reports whether candidate is one of aliases, first by
// case-insensitive equality and then by normalized equality.
func Matches(candidate string, aliases []string) bool {
	for _, a := range aliases {
		if strings.EqualFold(candidate, a) {
			return true
		}
	}
	norm := NormalizeHeader(candidate)
	for _, a := range aliases {
		if NormalizeHeader(a) == norm {
			return true
		}
	}
	return false
}

// lookup returns the first mapping in fields that accepts header.
func lookup(fields []FieldMapping, header string) (FieldMapping, bool) {
	for _, fm := range fields {
		if Matches(header, fm.Aliases) {
			return fm, true
		}
	}
	return FieldMapping{}, false
}
