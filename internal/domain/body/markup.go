package body

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skippedElements never contribute visible text.
var skippedElements = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Title:    true,
	atom.Style:    true,
	atom.Script:   true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Iframe:   true,
}

// blockElements are separated from their neighbours by a line break so that
// "<p>a</p><p>b</p>" reads "a b" rather than "ab".
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true, atom.Li: true,
	atom.Main: true, atom.Nav: true, atom.Ol: true, atom.P: true, atom.Pre: true,
	atom.Section: true, atom.Table: true, atom.Tbody: true, atom.Td: true,
	atom.Tfoot: true, atom.Th: true, atom.Thead: true, atom.Tr: true, atom.Ul: true,
}

// StripMarkup extracts the visible text of an HTML document or fragment.
// Tags, attributes (so link and image targets), style sheets and scripts are
// discarded; entities are decoded. Plain text passes through with only
// residual CSS and tag-like spans removed. Malformed markup is repaired by
// the HTML5 tree builder, so an unclosed <head> still yields the body text.
func StripMarkup(raw string) string {
	if raw == "" {
		return raw
	}

	var text string
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		// A strings.Reader never fails; keep the input rather than lose it.
		text = raw
	} else {
		var b strings.Builder
		b.Grow(len(raw))
		writeText(&b, doc)
		text = b.String()
	}

	text = stripResidualCSS(text)
	// Decoded entities such as "&lt;div&gt;" must not reintroduce tags.
	text = tagPattern.ReplaceAllString(text, " ")

	return text
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if skippedElements[n.DataAtom] {
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteByte('\n')
	}
}
