// Package normalizer reduces fetched content to the text that defines a change.
package normalizer

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// removedElements never contribute visible text.
const removedElements = "script, style, noscript, template, head, svg, iframe, object, canvas"

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Body: true, atom.Caption: true, atom.Dd: true, atom.Details: true,
	atom.Dialog: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true, atom.Html: true,
	atom.Li: true, atom.Main: true, atom.Nav: true, atom.Ol: true, atom.Option: true,
	atom.P: true, atom.Pre: true, atom.Section: true, atom.Summary: true,
	atom.Table: true, atom.Tbody: true, atom.Td: true, atom.Tfoot: true,
	atom.Th: true, atom.Thead: true, atom.Tr: true, atom.Ul: true,
}

// Normalize reduces raw to canonical text according to kind. Auto picks HTML
// when the content carries markup. selector, if non-empty, restricts HTML to
// the matching elements.
func Normalize(raw []byte, kind models.ContentKind, selector string) (string, error) {
	switch kind {
	case models.KindText:
		return NormalizeText(string(raw)), nil
	case models.KindHTML:
		return NormalizeHTML(raw, selector)
	default:
		if hasMarkup(raw) {
			return NormalizeHTML(raw, selector)
		}
		return NormalizeText(string(raw)), nil
	}
}

// NormalizeText collapses whitespace runs inside each line, trims lines,
// drops empty ones and joins the rest with "\n".
func NormalizeText(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if fields := strings.Fields(line); len(fields) > 0 {
			out = append(out, strings.Join(fields, " "))
		}
	}
	return strings.Join(out, "\n")
}

// NormalizeHTML extracts the visible text of an HTML document.
func NormalizeHTML(raw []byte, selector string) (string, error) {
	if !hasMarkup(raw) {
		return "", &MalformedContentError{Reason: "content declared as HTML contains no markup"}
	}

	var matcher cascadia.Selector
	if strings.TrimSpace(selector) != "" {
		sel, err := cascadia.Compile(selector)
		if err != nil {
			return "", &MalformedContentError{Reason: "invalid selector " + selector, Cause: err}
		}
		matcher = sel
	}

	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return "", &MalformedContentError{Reason: "unparsable HTML", Cause: err}
	}

	doc := goquery.NewDocumentFromNode(root)
	doc.Find(removedElements).Remove()

	scope := doc.Selection
	if matcher != nil {
		scope = doc.FindMatcher(matcher)
	}

	var sb strings.Builder
	scope.Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			sb.WriteByte('\n')
			writeText(&sb, n)
		}
	})

	return NormalizeText(sb.String()), nil
}

func writeText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		// Source line breaks inside a text node are layout, not content.
		sb.WriteString(strings.Join(strings.Fields(n.Data), " "))
		if endsWithSpace(n.Data) {
			sb.WriteByte(' ')
		}
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if n.DataAtom == atom.Br {
			sb.WriteByte('\n')
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		sb.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && startsWithSpace(c.Data) {
			sb.WriteByte(' ')
		}
		writeText(sb, c)
	}
	if block {
		sb.WriteByte('\n')
	}
}

// startsWithSpace and endsWithSpace use the same notion of whitespace as
// strings.Fields, so a trimmed boundary always leaves a separator behind.
func startsWithSpace(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return size > 0 && unicode.IsSpace(r)
}

func endsWithSpace(s string) bool {
	r, size := utf8.DecodeLastRuneInString(s)
	return size > 0 && unicode.IsSpace(r)
}

// hasMarkup reports whether raw contains at least one tag, doctype or comment token.
func hasMarkup(raw []byte) bool {
	z := html.NewTokenizer(bytes.NewReader(raw))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken, html.DoctypeToken, html.CommentToken:
			return true
		}
	}
}
