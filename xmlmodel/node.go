// Package xmlmodel provides an order-preserving view over a LIMS XML
// document, so the parser can walk mixed text/element content in document
// order (spec §9, "Mixed content ordering").
package xmlmodel

import (
	"strings"

	"github.com/antchfx/xmlquery"
)

// Node is a tagged recursive variant over an XML element: either an Element
// (with a tag, attributes, and ordered children) or a Text leaf. Modelling
// it this way — rather than a generated struct per LIMS tag — keeps child
// order intact and lets handler functions dispatch on Tag without needing a
// type for every element the schema defines (spec §9).
type Node struct {
	Tag      string
	Attrs    map[string]string
	Children []*Node
	Text     string
	isText   bool
}

// IsText reports whether this node is a text leaf rather than an element.
// A node built directly with Text set and no Tag also counts as a text leaf.
func (n *Node) IsText() bool {
	return n != nil && (n.isText || (n.Tag == "" && n.Text != ""))
}

// Attr returns the named attribute's value, or "" if absent. LIMS attributes
// are namespaced (e.g. "lims:fid"); callers pass the local name and Attr
// checks both the bare and "lims:"-prefixed forms.
func (n *Node) Attr(name string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	if v, ok := n.Attrs[name]; ok {
		return v
	}
	if v, ok := n.Attrs["lims:"+name]; ok {
		return v
	}
	return ""
}

// Parse builds a Node tree from raw LIMS XML bytes.
func Parse(xmlBytes []byte) (*Node, error) {
	doc, err := xmlquery.Parse(strings.NewReader(string(xmlBytes)))
	if err != nil {
		return nil, err
	}
	root := firstElementChild(doc)
	if root == nil {
		return nil, nil
	}
	return fromXMLQuery(root), nil
}

func firstElementChild(n *xmlquery.Node) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c
		}
	}
	return nil
}

func fromXMLQuery(n *xmlquery.Node) *Node {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		key := a.Name.Local
		if a.Name.Space != "" {
			key = a.Name.Space + ":" + a.Name.Local
		}
		attrs[key] = a.Value
	}

	out := &Node{Tag: n.Data, Attrs: attrs}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.ElementNode:
			out.Children = append(out.Children, fromXMLQuery(c))
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if strings.TrimSpace(c.Data) == "" {
				continue
			}
			out.Children = append(out.Children, &Node{Text: c.Data, isText: true})
		}
	}
	return out
}

// Elements returns the direct child elements, optionally filtered by tag.
// With no tags given, all child elements are returned in document order.
func (n *Node) Elements(tags ...string) []*Node {
	if n == nil {
		return nil
	}
	var want map[string]bool
	if len(tags) > 0 {
		want = make(map[string]bool, len(tags))
		for _, t := range tags {
			want[t] = true
		}
	}
	var out []*Node
	for _, c := range n.Children {
		if c.IsText() {
			continue
		}
		if want != nil && !want[c.Tag] {
			continue
		}
		out = append(out, c)
	}
	return out
}

// FirstElement returns the first direct child element with the given tag,
// or nil.
func (n *Node) FirstElement(tag string) *Node {
	for _, c := range n.Elements(tag) {
		return c
	}
	return nil
}

// FlattenText concatenates all #text descendants in document order,
// collapsing inter-element boundaries with a single space so adjacent
// inline elements don't run words together.
func (n *Node) FlattenText() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*Node)
	walk = func(node *Node) {
		if node.IsText() {
			b.WriteString(node.Text)
			b.WriteByte(' ')
			return
		}
		for _, c := range node.Children {
			walk(c)
		}
	}
	walk(n)
	return collapseWhitespace(b.String())
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
