package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutline(t *testing.T) {
	root, err := Parse(`<h1>Claims</h1><p>a<br>b</p><div data-type="mermaid-diagram" data-syntax="pie" data-title="Parts"></div><ul><li><p>item</p></li></ul>`)
	require.NoError(t, err)

	assert.Equal(t, []string{"Claims", "a b", "[diagram: Parts]", "item"}, Outline(root))
}

func TestDiff(t *testing.T) {
	before := `<p>one</p><p>two</p><p>three</p>`
	after := `<p>one</p><p>2</p><div data-type="mermaid-diagram" data-syntax="pie"></div><p>three</p>`

	lines := Diff(before, after)

	assert.Equal(t, []DiffLine{
		{Op: DiffContext, Text: "one"},
		{Op: DiffRemoved, Text: "two"},
		{Op: DiffAdded, Text: "2"},
		{Op: DiffAdded, Text: "[diagram]"},
		{Op: DiffContext, Text: "three"},
	}, lines)
	assert.Equal(t, DiffStats{Added: 2, Removed: 1}, Stats(lines))
}

func TestDiffIdenticalAndEmpty(t *testing.T) {
	assert.Equal(t, DiffStats{}, Stats(Diff(`<p>x</p>`, `<p>x</p>`)))
	assert.Equal(t, DiffStats{Added: 1}, Stats(Diff("", `<p>x</p>`)))
	assert.Empty(t, Diff("", ""))
}
