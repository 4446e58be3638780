// Package document holds the rich-text tree edited by a session: a tagged-variant node model,
// an HTML codec, the text-leaf walk used to anchor diagram insertions, and transactional edits.
//
// Positions follow a single flat numbering over the tree content: entering or leaving a
// non-leaf node costs 1, every rune of text costs 1 and every atom (hard break, diagram)
// costs 1. Position 0 is the start of the root's content.
package document

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind tags the variant a Node represents.
type Kind string

const (
	KindDoc         Kind = "doc"
	KindParagraph   Kind = "paragraph"
	KindHeading     Kind = "heading"
	KindBlockquote  Kind = "blockquote"
	KindBulletList  Kind = "bullet_list"
	KindOrderedList Kind = "ordered_list"
	KindListItem    Kind = "list_item"
	KindCodeBlock   Kind = "code_block"
	KindText        Kind = "text"
	KindHardBreak   Kind = "hard_break"
	KindDiagram     Kind = "diagram"
)

// Mark is an inline text decoration.
type Mark string

const (
	MarkBold      Mark = "bold"
	MarkItalic    Mark = "italic"
	MarkUnderline Mark = "underline"
	MarkStrike    Mark = "strike"
	MarkCode      Mark = "code"
)

// markOrder is the canonical nesting order, outermost first.
var markOrder = []Mark{MarkBold, MarkItalic, MarkUnderline, MarkStrike, MarkCode}

const (
	AttrLevel  = "level"
	AttrSyntax = "syntax"
	AttrTitle  = "title"
)

// Node is one element of the document tree. Only the fields relevant to Kind are set:
// Text and Marks for text, Attrs for headings and diagrams, Children for containers.
type Node struct {
	Kind     Kind
	Text     string
	Marks    []Mark
	Attrs    map[string]string
	Children []*Node
}

func NewDoc(children ...*Node) *Node {
	return &Node{Kind: KindDoc, Children: children}
}

func NewParagraph(children ...*Node) *Node {
	return &Node{Kind: KindParagraph, Children: children}
}

func NewHeading(level int, children ...*Node) *Node {
	return &Node{Kind: KindHeading, Attrs: map[string]string{AttrLevel: strconv.Itoa(level)}, Children: children}
}

func NewText(text string, marks ...Mark) *Node {
	return &Node{Kind: KindText, Text: text, Marks: normalizeMarks(marks)}
}

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func NewHardBreak() *Node {
	return &Node{Kind: KindHardBreak}
}

// NewDiagram builds an atomic diagram block. Line endings of the syntax are stored as "\n",
// the form HTML attribute parsing yields. An empty title is not stored.
func NewDiagram(syntax, title string) *Node {
	syntax = lineEndings.Replace(syntax)
	attrs := map[string]string{AttrSyntax: syntax}
	if title != "" {
		attrs[AttrTitle] = title
	}
	return &Node{Kind: KindDiagram, Attrs: attrs}
}

func (n *Node) IsText() bool { return n.Kind == KindText }

// IsAtom reports nodes that occupy a single position and cannot be edited inside.
func (n *Node) IsAtom() bool {
	return n.Kind == KindHardBreak || n.Kind == KindDiagram
}

func (n *Node) IsLeaf() bool { return n.IsText() || n.IsAtom() }

// IsTextblock reports block nodes whose content is inline.
func (n *Node) IsTextblock() bool {
	switch n.Kind {
	case KindParagraph, KindHeading, KindCodeBlock:
		return true
	}
	return false
}

func (n *Node) IsInline() bool {
	return n.Kind == KindText || n.Kind == KindHardBreak
}

func (n *Node) Attr(key string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

// Level returns a heading's level, clamped to 1..6.
func (n *Node) Level() int {
	level, err := strconv.Atoi(n.Attr(AttrLevel))
	if err != nil || level < 1 {
		return 1
	}
	if level > 6 {
		return 6
	}
	return level
}

// Size is the number of positions the node occupies in its parent.
func (n *Node) Size() int {
	switch {
	case n.IsText():
		return utf8.RuneCountInString(n.Text)
	case n.IsAtom():
		return 1
	}
	return n.ContentSize() + 2
}

// ContentSize is the number of positions between the node's opening and closing boundary.
func (n *Node) ContentSize() int {
	size := 0
	for _, child := range n.Children {
		size += child.Size()
	}
	return size
}

// Clone returns a deep copy.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Kind: n.Kind, Text: n.Text}
	if n.Marks != nil {
		c.Marks = append([]Mark(nil), n.Marks...)
	}
	if n.Attrs != nil {
		c.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			c.Attrs[k] = v
		}
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// shell copies a node's kind and attributes without its content.
func (n *Node) shell() *Node {
	c := n.Clone()
	c.Text = ""
	c.Children = nil
	return c
}

func (n *Node) hasMark(m Mark) bool {
	for _, mark := range n.Marks {
		if mark == m {
			return true
		}
	}
	return false
}

func sameMarks(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// normalizeMarks removes duplicates and sorts marks into canonical order.
func normalizeMarks(marks []Mark) []Mark {
	if len(marks) == 0 {
		return nil
	}
	var out []Mark
	for _, m := range markOrder {
		for _, candidate := range marks {
			if candidate == m {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// mergeText joins adjacent text nodes carrying the same marks and drops empty ones.
func mergeText(children []*Node) []*Node {
	var out []*Node
	for _, child := range children {
		if child.IsText() {
			if child.Text == "" {
				continue
			}
			if last := len(out) - 1; last >= 0 && out[last].IsText() && sameMarks(out[last].Marks, child.Marks) {
				out[last] = NewText(out[last].Text+child.Text, out[last].Marks...)
				continue
			}
		}
		out = append(out, child)
	}
	return out
}
