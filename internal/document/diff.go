package document

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type DiffOp string

const (
	DiffContext DiffOp = "context"
	DiffAdded   DiffOp = "added"
	DiffRemoved DiffOp = "removed"
)

type DiffLine struct {
	Op   DiffOp
	Text string
}

// DiffStats counts added and removed outline lines.
type DiffStats struct {
	Added   int
	Removed int
}

// Outline lists the document one block per line. Diagram blocks appear as a marker line so
// that inserting or removing one shows up in a diff.
func Outline(root *Node) []string {
	var lines []string
	collectOutline(root, &lines)
	return lines
}

func collectOutline(n *Node, lines *[]string) {
	for _, child := range n.Children {
		switch {
		case child.IsTextblock():
			*lines = append(*lines, strings.ReplaceAll(inlineText(child), "\n", " "))
		case child.Kind == KindDiagram:
			marker := "[diagram]"
			if title := child.Attr(AttrTitle); title != "" {
				marker = "[diagram: " + title + "]"
			}
			*lines = append(*lines, marker)
		case child.IsLeaf():
		default:
			collectOutline(child, lines)
		}
	}
}

// Diff compares two serialized documents block by block. Content that fails to parse is
// compared as raw text.
func Diff(beforeHTML, afterHTML string) []DiffLine {
	before := outlineText(beforeHTML)
	after := outlineText(afterHTML)

	dmp := diffmatchpatch.New()
	beforeChars, afterChars, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(beforeChars, afterChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var lines []DiffLine
	for _, diff := range diffs {
		chunk := strings.Split(diff.Text, "\n")
		if len(chunk) > 0 && chunk[len(chunk)-1] == "" {
			chunk = chunk[:len(chunk)-1]
		}
		op := DiffContext
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			op = DiffRemoved
		case diffmatchpatch.DiffInsert:
			op = DiffAdded
		}
		for _, text := range chunk {
			lines = append(lines, DiffLine{Op: op, Text: text})
		}
	}
	return lines
}

func Stats(lines []DiffLine) DiffStats {
	var s DiffStats
	for _, l := range lines {
		switch l.Op {
		case DiffAdded:
			s.Added++
		case DiffRemoved:
			s.Removed++
		}
	}
	return s
}

func outlineText(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	root, err := Parse(src)
	if err != nil {
		return src
	}
	lines := Outline(root)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
