// Package markup is a thin read-only view over parsed HTML. It exposes just
// what the page extractors need: selector queries, trimmed text and the next
// element sibling.
package markup

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Selector is a compiled CSS selector.
type Selector = cascadia.Selector

// MustCompile compiles a CSS selector and panics on invalid syntax.
// Selectors are package-level constants in practice, so a bad one is a programming error.
func MustCompile(sel string) Selector {
	return cascadia.MustCompile(sel)
}

// Document is a parsed HTML page.
type Document struct {
	doc *goquery.Document
}

// Node is one element inside a Document. The zero Node matches nothing.
type Node struct {
	sel *goquery.Selection
}

// Parse reads and parses an HTML document. Malformed markup is repaired by the
// HTML5 parsing algorithm; only read failures are reported.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("markup.Parse: %w", err)
	}
	return &Document{doc: goquery.NewDocumentFromNode(root)}, nil
}

// ParseString parses markup held in memory.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document node.
func (d *Document) Root() Node {
	return Node{sel: d.doc.Selection}
}

// SelectAll returns every descendant matching sel in document order.
func (d *Document) SelectAll(sel Selector) []Node {
	return d.Root().SelectAll(sel)
}

// SelectAll returns every descendant of n matching sel in document order.
func (n Node) SelectAll(sel Selector) []Node {
	if n.sel == nil {
		return nil
	}
	found := n.sel.FindMatcher(sel)
	nodes := make([]Node, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, Node{sel: s})
	})
	return nodes
}

// First returns the first descendant matching sel.
func (n Node) First(sel Selector) (Node, bool) {
	return n.Nth(sel, 0)
}

// Nth returns the i-th (zero-based) descendant matching sel.
func (n Node) Nth(sel Selector, i int) (Node, bool) {
	if n.sel == nil || i < 0 {
		return Node{}, false
	}
	found := n.sel.FindMatcher(sel).Eq(i)
	if found.Length() == 0 {
		return Node{}, false
	}
	return Node{sel: found}, true
}

// NextSibling returns the next element sibling, skipping text and comments.
func (n Node) NextSibling() (Node, bool) {
	if n.sel == nil {
		return Node{}, false
	}
	next := n.sel.Next()
	if next.Length() == 0 {
		return Node{}, false
	}
	return Node{sel: next}, true
}

// Text is the concatenated text content of n and its descendants, with
// surrounding whitespace trimmed.
func (n Node) Text() string {
	if n.sel == nil {
		return ""
	}
	return strings.TrimSpace(n.sel.Text())
}

// Exists reports whether n refers to an element.
func (n Node) Exists() bool {
	return n.sel != nil && n.sel.Length() > 0
}
