package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NewNullString is a helper for string pointers, returning nil if string is empty.
// Useful for fields that are optional and should be NULL in DB if not provided.
func NewNullString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// DerefString returns the pointed value or fallback.
func DerefString(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

// Slugify lower-cases, strips accents and joins words with dashes ("Loja Açaí" -> "loja-acai").
func Slugify(s string) string {
	decomposed := norm.NFD.String(strings.ToLower(strings.TrimSpace(s)))
	var b strings.Builder
	dash := false
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
