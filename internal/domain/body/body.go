// Package body turns raw email bodies (plain text, HTML, HTML with embedded
// CSS) into a compact single-line snippet for display.
//
// The pipeline always runs in the same order: markup is removed first, then
// invisible code points, and whitespace is collapsed last. Both earlier stages
// can leave new runs of whitespace behind, so collapsing any earlier would
// leave double spaces in the result.
package body

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ToPlainText converts a raw body into plain text with no markup, no style
// rules and single spaces between words. Empty input is returned unchanged.
func ToPlainText(raw string) string {
	if raw == "" {
		return raw
	}

	text := StripMarkup(raw)
	text = StripInvisible(text)
	text = CollapseWhitespace(text)

	return text
}

// CollapseWhitespace replaces every run of whitespace with a single space and
// trims both ends.
func CollapseWhitespace(s string) string {
	if s == "" {
		return s
	}
	return strings.Join(strings.Fields(s), " ")
}

// StripInvisible drops code points in Unicode category C (control, format,
// surrogate, private use, unassigned) and invalid UTF-8 bytes. Newline,
// carriage return and tab are kept for CollapseWhitespace to handle.
func StripInvisible(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size

		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(r)
		case r == utf8.RuneError && size == 1:
			// invalid byte
		case isOther(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isOther(r rune) bool {
	if unicode.Is(unicode.C, r) {
		return true
	}
	// unicode.C has no table for unassigned (Cn) code points.
	return !unicode.In(r, unicode.L, unicode.M, unicode.N, unicode.P, unicode.S, unicode.Z)
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	cssCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
	cssImportPattern  = regexp.MustCompile(`(?i)@import[^;]*;`)
	// A selector (or comma list of selectors) followed by a block that holds
	// at least one declaration. Blocks without a colon such as "{SAVE20}" are
	// left alone.
	cssRulePattern = regexp.MustCompile(
		`[#.@*a-zA-Z][\w\-.#:*\[\]="'>+~]*(?:\s*,\s*[#.@*a-zA-Z][\w\-.#:*\[\]="'>+~]*)*\s*\{(?:[^{}]*:[^{}]*|\s*)\}`)
)

const maxCSSPasses = 4

// stripResidualCSS removes style sheet fragments that survive as text, for
// example from a text/plain part generated out of an HTML mail.
func stripResidualCSS(s string) string {
	s = cssCommentPattern.ReplaceAllString(s, " ")
	s = cssImportPattern.ReplaceAllString(s, " ")
	// Nested blocks (@media) lose one level per pass.
	for i := 0; i < maxCSSPasses; i++ {
		next := cssRulePattern.ReplaceAllString(s, " ")
		if next == s {
			break
		}
		s = next
	}
	return s
}
