package htmlutil

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Scope is a subtree of a parsed document that can be queried with css selectors.
// Extraction code only depends on this interface so the parsing engine stays swappable.
type Scope interface {
	// FindOne returns the first descendant matching the selector.
	FindOne(selector string) (Scope, bool)
	// FindAll returns every descendant matching the selector in document order.
	FindAll(selector string) []Scope
	// Text returns the text content with runs of whitespace collapsed and trimmed.
	Text() string
	// Attr returns the value of an attribute on the scope's root element.
	Attr(name string) (string, bool)
}

// Parse parses an html document into a goquery backed Scope.
func Parse(body []byte) (Scope, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	return selection{sel: doc.Selection}, nil
}

type selection struct {
	sel *goquery.Selection
}

func (s selection) FindOne(selector string) (Scope, bool) {
	found := s.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, false
	}
	return selection{sel: found}, true
}

func (s selection) FindAll(selector string) []Scope {
	found := s.sel.Find(selector)
	out := make([]Scope, 0, found.Length())
	found.Each(func(_ int, child *goquery.Selection) {
		out = append(out, selection{sel: child})
	})
	return out
}

func (s selection) Text() string {
	var buffer bytes.Buffer
	for _, n := range s.sel.Nodes {
		getTextRecursive(n, &buffer)
	}
	return CleanText(buffer.String())
}

func (s selection) Attr(name string) (string, bool) {
	return s.sel.Attr(name)
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// CleanText trims the text and collapses inner whitespace (non-breaking spaces included)
// into single spaces.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
