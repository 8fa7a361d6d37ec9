package extractor

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Document is the read-only view of a rendered page the pipeline scans.
// A QueryAll error is treated as fatal for the whole run.
type Document interface {
	QueryAll(selector string) ([]Element, error)
}

// Element is a single matched DOM element.
type Element interface {
	Attr(name string) (string, bool)
	Text() string
}

// htmlDocument adapts a goquery document to Document. Compiled selectors
// are cached per document.
type htmlDocument struct {
	doc      *goquery.Document
	matchers map[string]goquery.Matcher
}

// NewDocument parses r as HTML.
func NewDocument(r io.Reader) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("extractor: parse html: %w", err)
	}
	return FromGoquery(doc), nil
}

// NewDocumentFromString parses an HTML string.
func NewDocumentFromString(rawHTML string) (Document, error) {
	return NewDocument(strings.NewReader(rawHTML))
}

// FromGoquery wraps an already parsed goquery document.
func FromGoquery(doc *goquery.Document) Document {
	return &htmlDocument{doc: doc, matchers: make(map[string]goquery.Matcher)}
}

func (d *htmlDocument) QueryAll(selector string) ([]Element, error) {
	m, ok := d.matchers[selector]
	if !ok {
		sel, err := cascadia.Compile(selector)
		if err != nil {
			return nil, fmt.Errorf("extractor: compile selector %q: %w", selector, err)
		}
		m = sel
		d.matchers[selector] = m
	}

	found := d.doc.FindMatcher(m)
	out := make([]Element, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		out = append(out, selectionElement{s})
	})
	return out, nil
}

type selectionElement struct {
	s *goquery.Selection
}

func (e selectionElement) Attr(name string) (string, bool) { return e.s.Attr(name) }

func (e selectionElement) Text() string { return e.s.Text() }
