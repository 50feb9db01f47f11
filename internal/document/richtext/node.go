package richtext

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type NodeKind int

const (
	TextNode NodeKind = iota
	TagNode
)

type Node struct {
	Kind     NodeKind
	Text     string
	Name     string
	Attrs    map[string]string
	Children []*Node
}

// Parse parses an HTML fragment in body context. Comments and doctypes are dropped.
func Parse(src string) ([]*Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	roots, err := html.ParseFragment(strings.NewReader(src), ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Node, 0, len(roots))
	for _, r := range roots {
		if n := convert(r); n != nil {
			out = append(out, n)
		}
	}
	return out, nil
}

func convert(h *html.Node) *Node {
	switch h.Type {
	case html.TextNode:
		return &Node{Kind: TextNode, Text: h.Data}
	case html.ElementNode:
		n := &Node{Kind: TagNode, Name: strings.ToLower(h.Data)}
		if len(h.Attr) > 0 {
			n.Attrs = make(map[string]string, len(h.Attr))
			for _, a := range h.Attr {
				n.Attrs[strings.ToLower(a.Key)] = a.Val
			}
		}
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			if child := convert(c); child != nil {
				n.Children = append(n.Children, child)
			}
		}
		return n
	default:
		return nil
	}
}

func (n *Node) Attr(key string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

func isTag(n *Node, names ...string) bool {
	if n == nil || n.Kind != TagNode {
		return false
	}
	for _, name := range names {
		if n.Name == name {
			return true
		}
	}
	return false
}

// HeadingLevel maps h1..h6 to 1..6.
func HeadingLevel(n *Node) (int, bool) {
	if n == nil || n.Kind != TagNode || len(n.Name) != 2 || n.Name[0] != 'h' {
		return 0, false
	}
	lvl := int(n.Name[1] - '0')
	if lvl < 1 || lvl > 6 {
		return 0, false
	}
	return lvl, true
}

// ListKind reports whether n is a list and whether it is ordered.
func ListKind(n *Node) (ordered bool, ok bool) {
	switch {
	case isTag(n, "ol"):
		return true, true
	case isTag(n, "ul"):
		return false, true
	default:
		return false, false
	}
}

func IsListItem(n *Node) bool   { return isTag(n, "li") }
func IsLink(n *Node) bool       { return isTag(n, "a") }
func IsParagraph(n *Node) bool  { return isTag(n, "p", "div") }
func IsBold(n *Node) bool       { return isTag(n, "b", "strong") }
func IsItalic(n *Node) bool     { return isTag(n, "i", "em") }
func IsUnderline(n *Node) bool  { return isTag(n, "u") }
func IsImage(n *Node) bool      { return isTag(n, "img") }
func IsTable(n *Node) bool      { return isTag(n, "table") }
func IsTableRow(n *Node) bool   { return isTag(n, "tr") }
func IsHeaderCell(n *Node) bool { return isTag(n, "th") }
func IsBodyCell(n *Node) bool   { return isTag(n, "td") }
func IsLineBreak(n *Node) bool  { return isTag(n, "br") }

func isTableSection(n *Node) bool { return isTag(n, "thead", "tbody", "tfoot") }

// isBlockLevel reports whether n occupies its own layout box.
func isBlockLevel(n *Node) bool {
	if _, ok := HeadingLevel(n); ok {
		return true
	}
	if _, ok := ListKind(n); ok {
		return true
	}
	return IsParagraph(n) || IsTable(n)
}

func hasBlockDescendant(n *Node) bool {
	for _, c := range n.Children {
		if isBlockLevel(c) || hasBlockDescendant(c) {
			return true
		}
	}
	return false
}
