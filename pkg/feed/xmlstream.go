package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Element is one fully-closed XML element produced by a Scanner. For
// captured container elements (Store, Item) the children of the subtree are
// reachable by tag name; for leaf elements only the text is meaningful.
type Element struct {
	Name     string
	text     string
	children map[string][]*Element
}

// Text returns the element's trimmed character data.
func (e *Element) Text() string {
	return e.text
}

// Child returns the trimmed text of the first descendant with the given tag
// name, matched case-insensitively. Returns "" when no such element exists.
// The feeds publish the same schema in several tag casings (ItemCode,
// ITEMCODE, itemCode), so all lookups go through this.
func (e *Element) Child(tag string) string {
	if c := e.find(strings.ToLower(tag)); c != nil {
		return c.text
	}
	return ""
}

// HasChild reports whether a descendant with the given tag name exists.
func (e *Element) HasChild(tag string) bool {
	return e.find(strings.ToLower(tag)) != nil
}

func (e *Element) find(lower string) *Element {
	if cs, ok := e.children[lower]; ok && len(cs) > 0 {
		return cs[0]
	}
	for _, cs := range e.children {
		for _, c := range cs {
			if found := c.find(lower); found != nil {
				return found
			}
		}
	}
	return nil
}

func (e *Element) addChild(c *Element) {
	if e.children == nil {
		e.children = make(map[string][]*Element)
	}
	key := strings.ToLower(c.Name)
	e.children[key] = append(e.children[key], c)
}

// Scanner is a pull iterator over the closed elements of an XML stream. Only
// elements whose tag is in the watch set are emitted; everything else is
// skipped without being materialized. A watched element appearing inside an
// already-watched subtree is folded into that subtree and not emitted on its
// own.
//
// Next reads nothing from the underlying stream until it is called, so a
// consumer that finishes a database write before asking for the next element
// gets the back-pressure the ingestion pipeline relies on: peak memory is one
// element subtree plus one in-flight write, regardless of document size.
type Scanner struct {
	dec   *xml.Decoder
	watch map[string]struct{}
}

// NewScanner creates a Scanner over r emitting the given tags
// (case-insensitive). r must already be UTF-8 (see NewUTF8Reader).
func NewScanner(r io.Reader, tags ...string) *Scanner {
	dec := xml.NewDecoder(r)
	// The stream is already normalized to UTF-8, but the XML declaration may
	// still claim UTF-16. Pass the bytes through untouched.
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	watch := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		watch[strings.ToLower(t)] = struct{}{}
	}
	return &Scanner{dec: dec, watch: watch}
}

// Next returns the next closed watched element, or io.EOF at end of
// document. Any other error is an unrecoverable parse failure.
func (s *Scanner) Next() (*Element, error) {
	for {
		tok, err := s.dec.Token()
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("read xml token: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if _, watched := s.watch[strings.ToLower(start.Name.Local)]; !watched {
			continue
		}
		return s.capture(start.Name.Local)
	}
}

// capture consumes the subtree of an already-started element and returns it
// as a single Element with its children attached.
func (s *Scanner) capture(name string) (*Element, error) {
	el := &Element{Name: name}
	var text strings.Builder

	for {
		tok, err := s.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read %s subtree: %w", name, err)
		}

		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			child, err := s.capture(t.Name.Local)
			if err != nil {
				return nil, err
			}
			el.addChild(child)
		case xml.EndElement:
			el.text = strings.TrimSpace(text.String())
			return el, nil
		}
	}
}
