package document

import (
	"strings"
	"unicode"
)

// Leaf is a text-bearing leaf together with the position at which its text starts.
type Leaf struct {
	Text string
	Pos  int
}

// Leaves lists the text leaves of root in document order (depth-first, left to right).
func Leaves(root *Node) []Leaf {
	var leaves []Leaf
	collectLeaves(root, 0, &leaves)
	return leaves
}

func collectLeaves(parent *Node, start int, leaves *[]Leaf) {
	pos := start
	for _, child := range parent.Children {
		switch {
		case child.IsText():
			*leaves = append(*leaves, Leaf{Text: child.Text, Pos: pos})
		case child.IsAtom():
		default:
			collectLeaves(child, pos+1, leaves)
		}
		pos += child.Size()
	}
}

// FindAnchor searches leaves in order for the first case-insensitive occurrence of the
// trimmed fragment and returns the position just past it. Matches never span leaves.
// An empty or whitespace-only fragment never matches.
func FindAnchor(leaves []Leaf, fragment string) (int, bool) {
	needle := foldRunes(strings.TrimSpace(fragment))
	if len(needle) == 0 {
		return 0, false
	}
	for _, leaf := range leaves {
		if idx := indexRunes(foldRunes(leaf.Text), needle); idx >= 0 {
			return leaf.Pos + idx + len(needle), true
		}
	}
	return 0, false
}

// foldRunes lower-cases rune by rune so that indexes stay aligned with the original text.
func foldRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}

func indexRunes(haystack, needle []rune) int {
	n := len(needle)
	for i := 0; i+n <= len(haystack); i++ {
		match := true
		for j := 0; j < n; j++ {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
