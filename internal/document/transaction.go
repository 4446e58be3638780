package document

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyAnchor     = errors.New("anchor fragment is empty")
	ErrNoAnchor        = errors.New("anchor fragment not found")
	ErrInvalidPosition = errors.New("position out of range")
	ErrNotInTextblock  = errors.New("selection is not inside a textblock")
)

// editState is the scratch tree and cursor a transaction works on.
type editState struct {
	root *Node
	sel  int
}

type step func(st *editState) error

// Transaction is an ordered list of edits applied as one unit by Document.Apply.
type Transaction struct {
	steps []step
}

func NewTransaction() *Transaction {
	return &Transaction{}
}

// SetSelection moves the cursor to pos.
func (tx *Transaction) SetSelection(pos int) *Transaction {
	tx.steps = append(tx.steps, func(st *editState) error {
		if pos < 0 || pos > st.root.ContentSize() {
			return fmt.Errorf("%w: %d", ErrInvalidPosition, pos)
		}
		st.sel = pos
		return nil
	})
	return tx
}

// SplitBlock breaks the textblock holding the cursor in two and moves the cursor to the
// start of the second half. An empty heading remainder becomes a paragraph.
func (tx *Transaction) SplitBlock() *Transaction {
	tx.steps = append(tx.steps, func(st *editState) error {
		loc, err := locateTextblock(st.root, st.sel)
		if err != nil {
			return err
		}
		left, right := splitInline(loc.block, loc.offset)
		if len(right.Children) == 0 && right.Kind == KindHeading {
			right = &Node{Kind: KindParagraph}
		}
		loc.parent.Children = replaceAt(loc.parent.Children, loc.index, left, right)
		st.sel = loc.blockPos + left.Size() + 1
		return nil
	})
	return tx
}

// InsertBlock places a block node next to the textblock holding the cursor: before it when
// the cursor is at the block's start, after it when the cursor is at its end. The cursor
// keeps pointing at the same text.
func (tx *Transaction) InsertBlock(node *Node) *Transaction {
	tx.steps = append(tx.steps, func(st *editState) error {
		if node == nil || node.IsInline() {
			return errors.New("insert block: node must be a block")
		}
		loc, err := locateTextblock(st.root, st.sel)
		if err != nil {
			return err
		}
		switch loc.offset {
		case 0:
			loc.parent.Children = replaceAt(loc.parent.Children, loc.index, node.Clone(), loc.block)
			st.sel += node.Size()
		case loc.block.ContentSize():
			loc.parent.Children = replaceAt(loc.parent.Children, loc.index, loc.block, node.Clone())
		default:
			return fmt.Errorf("insert block: selection %d is inside a textblock", st.sel)
		}
		return nil
	})
	return tx
}

type textblockLocation struct {
	parent   *Node
	index    int
	block    *Node
	blockPos int
	offset   int
}

func locateTextblock(root *Node, pos int) (*textblockLocation, error) {
	if pos < 0 || pos > root.ContentSize() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPosition, pos)
	}
	if loc := findTextblock(root, 0, pos); loc != nil {
		return loc, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrNotInTextblock, pos)
}

func findTextblock(parent *Node, start, pos int) *textblockLocation {
	p := start
	for i, child := range parent.Children {
		size := child.Size()
		switch {
		case child.IsTextblock():
			contentStart := p + 1
			if pos >= contentStart && pos <= contentStart+child.ContentSize() {
				return &textblockLocation{parent: parent, index: i, block: child, blockPos: p, offset: pos - contentStart}
			}
		case !child.IsLeaf():
			if pos > p && pos < p+size {
				return findTextblock(child, p+1, pos)
			}
		}
		p += size
	}
	return nil
}

func splitInline(block *Node, offset int) (*Node, *Node) {
	left, right := block.shell(), block.shell()
	pos := 0
	for _, child := range block.Children {
		size := child.Size()
		switch {
		case pos+size <= offset:
			left.Children = append(left.Children, child)
		case pos >= offset:
			right.Children = append(right.Children, child)
		default:
			runes := []rune(child.Text)
			cut := offset - pos
			left.Children = append(left.Children, NewText(string(runes[:cut]), child.Marks...))
			right.Children = append(right.Children, NewText(string(runes[cut:]), child.Marks...))
		}
		pos += size
	}
	return left, right
}

func replaceAt(nodes []*Node, index int, with ...*Node) []*Node {
	out := make([]*Node, 0, len(nodes)-1+len(with))
	out = append(out, nodes[:index]...)
	out = append(out, with...)
	return append(out, nodes[index+1:]...)
}
