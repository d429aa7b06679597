package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Ellipsis is appended to text cut by Truncate.
const Ellipsis = "…"

// NormalizeInput folds compatibility forms (full-width letters and digits,
// ideographic spaces) with NFKC, drops control characters and trims.
func NormalizeInput(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// CollapseWhitespace replaces every run of whitespace, newlines included,
// with a single space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RuneLen counts characters rather than bytes.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate caps s at max characters. When it cuts, the last kept character
// is replaced by Ellipsis so the result is exactly max characters long.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + Ellipsis
}

// SafeFileComponent turns free text into something usable inside a file
// name. Letters of any script and digits survive; everything else collapses
// into single dashes.
func SafeFileComponent(s string) string {
	s = NormalizeInput(s)
	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
