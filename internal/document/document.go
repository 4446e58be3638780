package document

import (
	"fmt"
	"strings"
)

// Document owns a node tree and a cursor. All mutations go through Apply, so a rejected
// transaction leaves the tree exactly as it was.
type Document struct {
	root      *Node
	selection int
}

// New wraps root in a Document. A nil root yields an empty document.
func New(root *Node) *Document {
	if root == nil {
		root = NewDoc()
	}
	if root.Kind != KindDoc {
		root = NewDoc(root)
	}
	return &Document{root: root}
}

// FromHTML parses serialized content into a Document.
func FromHTML(src string) (*Document, error) {
	root, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return New(root), nil
}

// Root exposes the current tree. Callers must not modify it.
func (d *Document) Root() *Node { return d.root }

func (d *Document) Selection() int { return d.selection }

func (d *Document) HTML() string { return Render(d.root) }

func (d *Document) PlainText() string { return PlainText(d.root) }

func (d *Document) Leaves() []Leaf { return Leaves(d.root) }

// Apply runs every step of tx against a copy of the tree and swaps the copy in only if all
// of them succeed.
func (d *Document) Apply(tx *Transaction) error {
	st := &editState{root: d.root.Clone(), sel: d.selection}
	for i, s := range tx.steps {
		if err := s(st); err != nil {
			return fmt.Errorf("transaction step %d: %w", i+1, err)
		}
	}
	d.root = st.root
	d.selection = st.sel
	return nil
}

// InsertDiagram anchors fragment in the text and splices a diagram block in right after its
// first occurrence: the containing block is split at the match end, the diagram goes between
// the halves, and the remainder becomes the paragraph that follows the diagram.
func (d *Document) InsertDiagram(fragment, syntax, title string) error {
	if strings.TrimSpace(fragment) == "" {
		return ErrEmptyAnchor
	}
	pos, ok := FindAnchor(d.Leaves(), fragment)
	if !ok {
		return ErrNoAnchor
	}
	tx := NewTransaction().
		SetSelection(pos).
		SplitBlock().
		InsertBlock(NewDiagram(syntax, title))
	return d.Apply(tx)
}

// InsertDiagramAfter reports whether the diagram was placed.
func (d *Document) InsertDiagramAfter(fragment, syntax, title string) bool {
	return d.InsertDiagram(fragment, syntax, title) == nil
}

// Diagrams returns the diagram blocks in document order.
func (d *Document) Diagrams() []*Node {
	var out []*Node
	walk(d.root, func(n *Node) {
		if n.Kind == KindDiagram {
			out = append(out, n)
		}
	})
	return out
}

func walk(n *Node, fn func(*Node)) {
	fn(n)
	for _, child := range n.Children {
		walk(child, fn)
	}
}
