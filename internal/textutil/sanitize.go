package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SanitizeFileName folds a title to ASCII and keeps only word characters,
// whitespace, and hyphens. Inner whitespace becomes underscores, so
// "Café: the Movie!" yields "Cafe_the_Movie". Characters with no ASCII
// decomposition are dropped.
func SanitizeFileName(name string) string {
	folded := foldASCII(strings.TrimSpace(name))
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r > unicode.MaxASCII:
			continue
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), "_")
}

// SanitizeFileNameOr returns SanitizeFileName(name) or fallback when nothing
// usable remains.
func SanitizeFileNameOr(name, fallback string) string {
	if cleaned := SanitizeFileName(name); cleaned != "" {
		return cleaned
	}
	return fallback
}

func foldASCII(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}
