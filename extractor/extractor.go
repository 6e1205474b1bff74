// Package extractor turns court-case HTML pages into normalized process records.
//
// The markup these pages carry is inconsistent: unclosed tags, arbitrary
// nesting, fields sometimes in labeled spans and sometimes buried in free
// text. Every field is therefore located through an ordered chain of
// matchers: structural lookups first, plain-text regex fallbacks second.
// Individual fields degrade to a placeholder when nothing matches; the only
// hard miss is a document with no case number anywhere, reported as an empty
// Number on the result, not as an error.
//
// Usage:
//
//	ex := extractor.New(extractor.Config{})
//	data, err := ex.ExtractBytes(raw)
//	if data.Number == "" { /* nothing usable in this document */ }
package extractor

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Config configures an Extractor.
type Config struct {
	// Logger for debug messages. Defaults to slog.Default().
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Extractor extracts process fields from parsed HTML documents.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor with the given configuration.
func New(cfg Config) *Extractor {
	cfg.defaults()
	return &Extractor{logger: cfg.Logger}
}

// ExtractBytes parses raw markup and extracts all process fields.
// html.Parse tolerates malformed input, so the only parse errors are
// reader failures.
func (e *Extractor) ExtractBytes(raw []byte) (*ProcessData, error) {
	return e.ExtractReader(bytes.NewReader(raw))
}

// ExtractReader parses markup from r and extracts all process fields.
func (e *Extractor) ExtractReader(r io.Reader) (*ProcessData, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return e.Extract(doc), nil
}

// Extract runs all field extractions against a parsed document tree.
func (e *Extractor) Extract(doc *html.Node) *ProcessData {
	data := &ProcessData{
		Number:  extractProcessNumber(doc),
		Class:   extractLabeledField(doc, classField),
		Subject: extractLabeledField(doc, subjectField),
		Judge:   extractLabeledField(doc, judgeField),
		Parties: extractParties(doc),
	}
	if data.Number == "" {
		e.logger.Debug("no process number found in document")
	} else {
		e.logger.Debug("extracted process", "number", data.Number, "parties", len(data.Parties))
	}
	return data
}

// walk visits every node in the tree in document order. Returning false
// from fn skips that node's children; siblings and the rest of the tree
// are still visited.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// findAll returns every element matching pred, in document order.
func findAll(doc *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && pred(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// prevElementSibling returns the nearest preceding sibling element,
// skipping text and comment nodes.
func prevElementSibling(n *html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// hasClass reports whether an element's class attribute contains name.
func hasClass(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == name {
					return true
				}
			}
		}
	}
	return false
}

// nodeText extracts the visible text of a subtree, joining text nodes
// with single spaces. Script and style content is skipped.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return false
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		return true
	})
	return sb.String()
}

// documentText extracts the visible text of a subtree with one text node
// per line. The textual fallback matchers capture to end-of-line, so
// keeping element boundaries as newlines stops a capture from swallowing
// unrelated trailing content.
func documentText(n *html.Node) string {
	var lines []string
	walk(n, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return false
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				lines = append(lines, text)
			}
		}
		return true
	})
	return strings.Join(lines, "\n")
}
