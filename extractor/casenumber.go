package extractor

import (
	"regexp"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Canonical CNJ numbering: 7-2-4-1-2-4 digit groups.
var (
	processNumberRe = regexp.MustCompile(`[0-9]{7}-[0-9]{2}\.[0-9]{4}\.[0-9]\.[0-9]{2}\.[0-9]{4}`)
	bareDigitsRe    = regexp.MustCompile(`[0-9]{20}`)
)

// numberMatcher locates a process number in a document tree, returning ""
// when its strategy finds nothing.
type numberMatcher func(doc *html.Node) string

// numberMatchers are tried in priority order; the first non-empty result wins.
var numberMatchers = []numberMatcher{
	matchNumberInHeadings,
	matchNumberInText,
	matchBareDigitsInText,
}

// extractProcessNumber returns the first process number located by the
// matcher chain, or "" when no matcher succeeds. The matched substring is
// returned exactly as it appears in the document, never reformatted.
func extractProcessNumber(doc *html.Node) string {
	for _, m := range numberMatchers {
		if number := m(doc); number != "" {
			return number
		}
	}
	return ""
}

// matchNumberInHeadings scans heading elements for the canonical pattern.
func matchNumberInHeadings(doc *html.Node) string {
	headings := findAll(doc, func(n *html.Node) bool {
		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			return true
		}
		return false
	})
	for _, h := range headings {
		if m := processNumberRe.FindString(nodeText(h)); m != "" {
			return m
		}
	}
	return ""
}

// matchNumberInText scans the full document text for the canonical pattern.
func matchNumberInText(doc *html.Node) string {
	return processNumberRe.FindString(documentText(doc))
}

// matchBareDigitsInText scans the full document text for an unformatted
// 20-digit run, the last resort for pages that strip the punctuation.
func matchBareDigitsInText(doc *html.Node) string {
	return bareDigitsRe.FindString(documentText(doc))
}
