// Package markup turns raw page markup into the read-only element view the
// classifier and field extractor work on.
package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// Element is an input-like element with its attributes. Attribute keys are
// lower-cased by the HTML tokenizer.
type Element struct {
	Tag   string            `json:"tag"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// Attr returns the trimmed attribute value, or "" when absent.
func (e Element) Attr(name string) string {
	return strings.TrimSpace(e.Attrs[name])
}

// Label is a <label> element: its for= reference and its visible text.
type Label struct {
	For  string `json:"for,omitempty"`
	Text string `json:"text"`
}

// Document is the parsed view of one page. It is built once per call and
// never mutated afterwards.
type Document struct {
	Forms    int       `json:"forms"`
	Inputs   []Element `json:"inputs"`
	Labels   []Label   `json:"labels"`
	Headings []string  `json:"headings"`
	Text     string    `json:"text"`
}

// inputTags are the element names treated as fillable.
var inputTags = map[string]bool{
	"input":    true,
	"select":   true,
	"textarea": true,
}

// headingTags carry the text used for title-based classification.
var headingTags = map[string]bool{
	"h1":    true,
	"h2":    true,
	"h3":    true,
	"title": true,
}

// Parse builds a Document from markup. Malformed input yields whatever the
// HTML5 parser recovers; an unparseable input yields an empty Document.
func Parse(raw string) *Document {
	doc := &Document{}
	if strings.TrimSpace(raw) == "" {
		return doc
	}

	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return doc
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "form":
				doc.Forms++
			case inputTags[n.Data]:
				doc.Inputs = append(doc.Inputs, newElement(n))
			case n.Data == "label":
				doc.Labels = append(doc.Labels, Label{
					For:  strings.TrimSpace(attr(n, "for")),
					Text: nodeText(n),
				})
			}
			if headingTags[n.Data] {
				if text := nodeText(n); text != "" {
					doc.Headings = append(doc.Headings, text)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	doc.Text = nodeText(root)
	return doc
}

// InputCount returns the number of input-like elements.
func (d *Document) InputCount() int {
	return len(d.Inputs)
}

// TitleText joins heading and title text with single spaces.
func (d *Document) TitleText() string {
	return strings.Join(d.Headings, " ")
}

// LabelFor returns the text of the first label bound to id via for=.
func (d *Document) LabelFor(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	for _, l := range d.Labels {
		if l.For == id {
			return l.Text, true
		}
	}
	return "", false
}

func newElement(n *html.Node) Element {
	el := Element{Tag: n.Data, Attrs: make(map[string]string, len(n.Attr))}
	for _, a := range n.Attr {
		// first occurrence wins, matching browser behavior
		if _, seen := el.Attrs[a.Key]; !seen {
			el.Attrs[a.Key] = a.Val
		}
	}
	return el
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nodeText collects descendant text, skipping script and style, with
// whitespace collapsed to single spaces.
func nodeText(n *html.Node) string {
	var parts []string
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
