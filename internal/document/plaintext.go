package document

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var ErrEmptyText = errors.New("document has no text")

// PlainText flattens the tree to one line per non-empty textblock. Diagrams contribute
// nothing and hard breaks become newlines.
func PlainText(root *Node) string {
	var lines []string
	collectLines(root, &lines)
	return strings.Join(lines, "\n")
}

func collectLines(n *Node, lines *[]string) {
	for _, child := range n.Children {
		switch {
		case child.IsTextblock():
			if text := inlineText(child); strings.TrimSpace(text) != "" {
				*lines = append(*lines, text)
			}
		case child.IsLeaf():
		default:
			collectLines(child, lines)
		}
	}
}

func inlineText(block *Node) string {
	var sb strings.Builder
	for _, child := range block.Children {
		switch child.Kind {
		case KindText:
			sb.WriteString(child.Text)
		case KindHardBreak:
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// HTMLToPlainText converts serialized content into the text handed to the assistant.
func HTMLToPlainText(src string) (string, error) {
	root, err := Parse(src)
	if err != nil {
		return "", err
	}
	return PlainText(root), nil
}

// ValidateText checks that text is worth sending to the assistant. maxChars <= 0 disables
// the length limit.
func ValidateText(text string, maxChars int) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	if n := utf8.RuneCountInString(text); maxChars > 0 && n > maxChars {
		return fmt.Errorf("document too long: %d characters, limit is %d", n, maxChars)
	}
	return nil
}
