package extractor

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document patterns, tried in order: labeled CPF, labeled CNPJ, then the
// bare shapes. First match wins; no match means the party has no document.
var documentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`CPF\s*:?\s*([0-9]{3}\.?[0-9]{3}\.?[0-9]{3}-?[0-9]{2})`),
	regexp.MustCompile(`CNPJ\s*:?\s*([0-9]{2}\.?[0-9]{3}\.?[0-9]{3}/?[0-9]{4}-?[0-9]{2})`),
	regexp.MustCompile(`([0-9]{3}\.?[0-9]{3}\.?[0-9]{3}-?[0-9]{2})`),
	regexp.MustCompile(`([0-9]{2}\.?[0-9]{3}\.?[0-9]{3}/?[0-9]{4}-?[0-9]{2})`),
}

// Patterns stripped from the raw text when deriving the clean name. The
// "Documento"-labeled variants show up on some court systems even though
// the document extraction itself never matches them.
var nameStripPatterns = []*regexp.Regexp{
	regexp.MustCompile(`CPF\s*:?\s*[0-9]{3}\.?[0-9]{3}\.?[0-9]{3}-?[0-9]{2}`),
	regexp.MustCompile(`CNPJ\s*:?\s*[0-9]{2}\.?[0-9]{3}\.?[0-9]{3}/?[0-9]{4}-?[0-9]{2}`),
	regexp.MustCompile(`Documento\s*:?\s*[0-9]{3}\.?[0-9]{3}\.?[0-9]{3}-?[0-9]{2}`),
	regexp.MustCompile(`Documento\s*:?\s*[0-9]{2}\.?[0-9]{3}\.?[0-9]{3}/?[0-9]{4}-?[0-9]{2}`),
	regexp.MustCompile(`[0-9]{3}\.?[0-9]{3}\.?[0-9]{3}-?[0-9]{2}`),
	regexp.MustCompile(`[0-9]{2}\.?[0-9]{3}\.?[0-9]{3}/?[0-9]{4}-?[0-9]{2}`),
}

var (
	rolePrefixRe = regexp.MustCompile(`(?i)^(EXEQUENTE|EXECUTADA|AUTOR|RÉU|REU|TERCEIRO|REQUERENTE|REQUERIDO|ADVOGADO|PROCURADOR)\s*:?\s*`)
	parensRe     = regexp.MustCompile(`\([^)]*\)`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// extractParties scans list-group items for party entries. Entries whose
// cleaned name is 2 characters or shorter are dropped as noise.
func extractParties(doc *html.Node) []PartyData {
	items := findAll(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Li && hasClass(n, "list-group-item")
	})

	var parties []PartyData
	for _, item := range items {
		text := nodeText(item)

		rawCategory := string(CategoryTerceiro)
		if badge := findBadge(item); badge != nil {
			badgeText := nodeText(badge)
			rawCategory = strings.ToUpper(strings.TrimSpace(badgeText))
			text = strings.TrimSpace(strings.ReplaceAll(text, badgeText, ""))
		}

		name := cleanPartyName(text)
		if name == "" {
			continue
		}
		parties = append(parties, PartyData{
			Name:     name,
			Document: extractDocument(text),
			Category: NormalizeCategory(rawCategory),
		})
	}
	return parties
}

// findBadge returns the first nested span.badge, or nil.
func findBadge(item *html.Node) *html.Node {
	badges := findAll(item, func(n *html.Node) bool {
		return n.DataAtom == atom.Span && hasClass(n, "badge")
	})
	if len(badges) == 0 {
		return nil
	}
	return badges[0]
}

// extractDocument pulls a CPF or CNPJ out of a party entry's text.
// Absence of a document is not an error, the field stays empty.
func extractDocument(text string) string {
	for _, re := range documentPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// cleanPartyName derives the litigant's name from raw entry text: document
// substrings, the leading role label and parenthesized segments are
// stripped, whitespace runs collapse to single spaces, and leftover
// separator punctuation is trimmed from the ends. Returns "" when the
// remainder is too short to be a name.
func cleanPartyName(text string) string {
	for _, re := range nameStripPatterns {
		text = re.ReplaceAllString(text, "")
	}
	text = strings.TrimSpace(text)
	text = rolePrefixRe.ReplaceAllString(text, "")
	text = parensRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = strings.Trim(text, " -–:;,")
	if len([]rune(text)) <= 2 {
		return ""
	}
	return text
}
