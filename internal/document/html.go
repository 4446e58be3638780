package document

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DiagramType is the data-type attribute identifying a persisted diagram block.
const DiagramType = "mermaid-diagram"

var markTags = map[Mark]string{
	MarkBold:      "strong",
	MarkItalic:    "em",
	MarkUnderline: "u",
	MarkStrike:    "s",
	MarkCode:      "code",
}

// Render serializes a tree to HTML.
func Render(root *Node) string {
	var sb strings.Builder
	renderNode(&sb, root)
	return sb.String()
}

func renderChildren(sb *strings.Builder, n *Node) {
	for _, child := range n.Children {
		renderNode(sb, child)
	}
}

func renderNode(sb *strings.Builder, n *Node) {
	switch n.Kind {
	case KindDoc:
		renderChildren(sb, n)
	case KindParagraph:
		wrap(sb, "p", n)
	case KindHeading:
		wrap(sb, "h"+strconv.Itoa(n.Level()), n)
	case KindBlockquote:
		wrap(sb, "blockquote", n)
	case KindBulletList:
		wrap(sb, "ul", n)
	case KindOrderedList:
		wrap(sb, "ol", n)
	case KindListItem:
		wrap(sb, "li", n)
	case KindCodeBlock:
		sb.WriteString("<pre><code>")
		sb.WriteString(html.EscapeString(inlineText(n)))
		sb.WriteString("</code></pre>")
	case KindText:
		for _, m := range n.Marks {
			sb.WriteString("<" + markTags[m] + ">")
		}
		sb.WriteString(html.EscapeString(n.Text))
		for i := len(n.Marks) - 1; i >= 0; i-- {
			sb.WriteString("</" + markTags[n.Marks[i]] + ">")
		}
	case KindHardBreak:
		sb.WriteString("<br>")
	case KindDiagram:
		fmt.Fprintf(sb, `<div data-type="%s" data-syntax="%s"`, DiagramType, html.EscapeString(n.Attr(AttrSyntax)))
		if title := n.Attr(AttrTitle); title != "" {
			fmt.Fprintf(sb, ` data-title="%s"`, html.EscapeString(title))
		}
		sb.WriteString("></div>")
	}
}

func wrap(sb *strings.Builder, tag string, n *Node) {
	sb.WriteString("<" + tag + ">")
	renderChildren(sb, n)
	sb.WriteString("</" + tag + ">")
}

// Parse reads HTML into a tree. Unknown containers are flattened into their children and
// loose inline content is wrapped in paragraphs.
func Parse(src string) (*Node, error) {
	body := &nethtml.Node{Type: nethtml.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := nethtml.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		return nil, fmt.Errorf("parse document html: %w", err)
	}
	return NewDoc(parseBlocks(nodes)...), nil
}

func childNodes(n *nethtml.Node) []*nethtml.Node {
	var out []*nethtml.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func parseBlocks(nodes []*nethtml.Node) []*Node {
	var blocks, pending []*Node
	flush := func() {
		if hasVisibleText(pending) {
			blocks = append(blocks, NewParagraph(mergeText(pending)...))
		}
		pending = nil
	}

	for _, n := range nodes {
		switch n.Type {
		case nethtml.TextNode:
			pending = append(pending, NewText(n.Data))
			continue
		case nethtml.ElementNode:
		default:
			continue
		}

		if isDiagramElement(n) {
			flush()
			blocks = append(blocks, NewDiagram(attr(n, "data-syntax"), attr(n, "data-title")))
			continue
		}

		switch n.DataAtom {
		case atom.P:
			flush()
			blocks = append(blocks, NewParagraph(parseInlineChildren(n, nil)...))
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			flush()
			level, _ := strconv.Atoi(n.Data[1:])
			blocks = append(blocks, NewHeading(level, parseInlineChildren(n, nil)...))
		case atom.Blockquote:
			flush()
			blocks = append(blocks, &Node{Kind: KindBlockquote, Children: nonEmptyBlocks(parseBlocks(childNodes(n)))})
		case atom.Ul, atom.Ol:
			flush()
			kind := KindBulletList
			if n.DataAtom == atom.Ol {
				kind = KindOrderedList
			}
			blocks = append(blocks, &Node{Kind: kind, Children: parseListItems(n)})
		case atom.Pre:
			flush()
			code := &Node{Kind: KindCodeBlock}
			if text := textContent(n); text != "" {
				code.Children = []*Node{NewText(text)}
			}
			blocks = append(blocks, code)
		case atom.Br, atom.Strong, atom.B, atom.Em, atom.I, atom.U, atom.S, atom.Strike, atom.Del,
			atom.Code, atom.Span, atom.A, atom.Sub, atom.Sup, atom.Mark, atom.Small:
			pending = append(pending, parseInline(n, nil)...)
		default:
			flush()
			blocks = append(blocks, parseBlocks(childNodes(n))...)
		}
	}
	flush()
	return blocks
}

func parseListItems(list *nethtml.Node) []*Node {
	var items []*Node
	for _, c := range childNodes(list) {
		if c.Type == nethtml.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		var content []*Node
		if c.Type == nethtml.ElementNode && c.DataAtom == atom.Li {
			content = parseBlocks(childNodes(c))
		} else {
			content = parseBlocks([]*nethtml.Node{c})
		}
		items = append(items, &Node{Kind: KindListItem, Children: nonEmptyBlocks(content)})
	}
	return items
}

// nonEmptyBlocks keeps containers valid by giving them at least one paragraph.
func nonEmptyBlocks(blocks []*Node) []*Node {
	if len(blocks) == 0 {
		return []*Node{NewParagraph()}
	}
	return blocks
}

func parseInlineChildren(n *nethtml.Node, marks []Mark) []*Node {
	var out []*Node
	for _, c := range childNodes(n) {
		out = append(out, parseInline(c, marks)...)
	}
	return mergeText(out)
}

func parseInline(n *nethtml.Node, marks []Mark) []*Node {
	switch n.Type {
	case nethtml.TextNode:
		return []*Node{NewText(n.Data, marks...)}
	case nethtml.ElementNode:
	default:
		return nil
	}

	switch n.DataAtom {
	case atom.Br:
		return []*Node{NewHardBreak()}
	case atom.Strong, atom.B:
		marks = withMark(marks, MarkBold)
	case atom.Em, atom.I:
		marks = withMark(marks, MarkItalic)
	case atom.U:
		marks = withMark(marks, MarkUnderline)
	case atom.S, atom.Strike, atom.Del:
		marks = withMark(marks, MarkStrike)
	case atom.Code:
		marks = withMark(marks, MarkCode)
	}
	return parseInlineChildren(n, marks)
}

func withMark(marks []Mark, m Mark) []Mark {
	out := append(append([]Mark(nil), marks...), m)
	return normalizeMarks(out)
}

func textContent(n *nethtml.Node) string {
	var sb strings.Builder
	var visit func(*nethtml.Node)
	visit = func(n *nethtml.Node) {
		switch {
		case n.Type == nethtml.TextNode:
			sb.WriteString(n.Data)
		case n.Type == nethtml.ElementNode && n.DataAtom == atom.Br:
			sb.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visit(c)
	}
	return sb.String()
}

func isDiagramElement(n *nethtml.Node) bool {
	return n.Type == nethtml.ElementNode && attr(n, "data-type") == DiagramType
}

func attr(n *nethtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasVisibleText(nodes []*Node) bool {
	for _, n := range nodes {
		if !n.IsText() || strings.TrimSpace(n.Text) != "" {
			return true
		}
	}
	return false
}
