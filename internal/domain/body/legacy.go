package body

import "regexp"

// The functions in this file are the older pattern-based cleaner. They do
// not parse markup and can both miss unusual CSS and delete ordinary text
// that looks like "word: value;". ToPlainText supersedes them.

var (
	legacyTagPattern     = regexp.MustCompile(`<[^>]+>`)
	legacyStylePattern   = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	legacyImportPattern  = regexp.MustCompile(`(?i)@import[^;]*;`)
	legacyCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
	legacyRulePattern    = regexp.MustCompile(`[a-zA-Z#.][a-zA-Z0-9\-_.\s]*\s*\{[^}]*\}`)
	legacyGenericPattern = regexp.MustCompile(`[a-zA-Z\-]+\s*:\s*[^;]+;`)
)

// importantMarker is swept at its place in cssProperties, so declarations
// later in the catalogue no longer see a trailing "!important;".
const importantMarker = "!important"

// cssProperties is the catalogue of declarations removed when terminated by
// a semicolon, applied in order.
var cssProperties = []string{
	"font-family", "color", "background-color", "background", "padding",
	"margin", "border", "width", "height", "display", "position", "float",
	"clear", "overflow", "text-align", "line-height", "font-size",
	"font-weight", "text-decoration", importantMarker, "outline", "border-collapse",
	"table-layout", "overflow-wrap", "word-wrap", "word-break",
	"-webkit-text-size-adjust", "-ms-word-break", "src", "format",
	"font-style",
}

// trailingCSSProperties are also removed when cut off at the end of the text
// without a semicolon.
var trailingCSSProperties = []string{
	"line-height", "background", "border", "width", "height", "display",
	"position", "float", "clear", "overflow", "text-align", "font-size",
	"font-weight", "text-decoration", "outline", "border-collapse",
	"table-layout", "overflow-wrap", "word-wrap", "word-break",
	"-webkit-text-size-adjust", "-ms-word-break", "src", "format",
	"font-style",
}

var (
	declarationPatterns = compileDeclarations(cssProperties, `[^;]+;`)
	trailingPatterns    = compileDeclarations(trailingCSSProperties, `[^;]*$`)
)

func compileDeclarations(properties []string, valuePattern string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(properties))
	for _, p := range properties {
		if p == importantMarker {
			patterns = append(patterns, regexp.MustCompile(`(?i)!important;`))
			continue
		}
		patterns = append(patterns, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(p)+`\s*:\s*`+valuePattern))
	}
	return patterns
}

// CleanStrip runs the pattern-based pipeline: CleanHTML, CleanCSS, then
// whitespace collapsing.
func CleanStrip(s string) string {
	if s == "" {
		return s
	}
	s = CleanHTML(s)
	s = CleanCSS(s)
	return CollapseWhitespace(s)
}

// CleanHTML removes anything between angle brackets.
func CleanHTML(s string) string {
	if s == "" {
		return s
	}
	s = legacyTagPattern.ReplaceAllString(s, "")
	return CollapseWhitespace(s)
}

// CleanCSS removes style blocks, @import statements, comments, rule blocks
// and a fixed catalogue of declarations, then sweeps any remaining
// "property: value;" pair.
func CleanCSS(s string) string {
	if s == "" {
		return s
	}

	s = legacyStylePattern.ReplaceAllString(s, "")
	s = legacyImportPattern.ReplaceAllString(s, "")
	s = legacyCommentPattern.ReplaceAllString(s, "")
	s = legacyRulePattern.ReplaceAllString(s, "")

	for _, p := range declarationPatterns {
		s = p.ReplaceAllString(s, "")
	}
	for _, p := range trailingPatterns {
		s = p.ReplaceAllString(s, "")
	}

	s = legacyGenericPattern.ReplaceAllString(s, "")

	return CollapseWhitespace(s)
}
