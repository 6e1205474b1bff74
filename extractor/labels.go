package extractor

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// labeledField describes how to locate one label-adjacent value: a label
// token for the structural tier and an ordered regex list for the textual
// fallback tier.
type labeledField struct {
	label    string
	patterns []*regexp.Regexp
}

var (
	classField = labeledField{
		label: "Classe:",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Classe\s*:?\s*([^\n]+)`),
			regexp.MustCompile(`(?i)Tipo\s*:?\s*([^\n]+)`),
		},
	}
	subjectField = labeledField{
		label: "Assunto:",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Assunto\s*:?\s*([^\n]+)`),
			regexp.MustCompile(`(?i)Objeto\s*:?\s*([^\n]+)`),
		},
	}
	judgeField = labeledField{
		label: "Juiz:",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Juiz\s*:?\s*([^\n]+)`),
			regexp.MustCompile(`(?i)Magistrado\s*:?\s*([^\n]+)`),
			regexp.MustCompile(`(?i)Relator\s*:?\s*([^\n]+)`),
		},
	}
)

// extractLabeledField resolves one label-adjacent field: structural tier
// first, textual fallback second, placeholder on a double miss. Extraction
// of these fields never fails, it degrades.
func extractLabeledField(doc *html.Node, field labeledField) string {
	if v := matchLabeledSpan(doc, field.label); v != "" {
		return v
	}
	if v := matchLabelPatterns(documentText(doc), field.patterns); v != "" {
		return v
	}
	return NotInformed
}

// matchLabeledSpan scans span elements for one whose preceding sibling
// element carries the label token. First pair in document order wins.
func matchLabeledSpan(doc *html.Node, label string) string {
	spans := findAll(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Span
	})
	for _, span := range spans {
		prev := prevElementSibling(span)
		if prev == nil {
			continue
		}
		if strings.Contains(nodeText(prev), label) {
			if v := strings.TrimSpace(nodeText(span)); v != "" {
				return v
			}
		}
	}
	return ""
}

// matchLabelPatterns runs the fallback regexes in order against the full
// document text and returns the first capture.
func matchLabelPatterns(text string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
