package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRender(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "canonical content is stable",
			src:  `<h1>Claims</h1><p>Some <em>text</em><br>next</p>`,
			want: `<h1>Claims</h1><p>Some <em>text</em><br>next</p>`,
		},
		{
			name: "loose inline content becomes a paragraph",
			src:  `hello <b>world</b>`,
			want: `<p>hello <strong>world</strong></p>`,
		},
		{
			name: "whitespace between blocks is dropped",
			src:  "<p>a</p>\n  <p>b</p>\n",
			want: `<p>a</p><p>b</p>`,
		},
		{
			name: "list items get a paragraph",
			src:  `<ul><li>one</li><li></li></ul>`,
			want: `<ul><li><p>one</p></li><li><p></p></li></ul>`,
		},
		{
			name: "nested marks use canonical order",
			src:  `<p><em><strong>x</strong></em></p>`,
			want: `<p><strong><em>x</em></strong></p>`,
		},
		{
			name: "unknown containers are flattened",
			src:  `<section><article><p>inside</p></article></section>`,
			want: `<p>inside</p>`,
		},
		{
			name: "code blocks keep their text",
			src:  "<pre><code>a &lt; b\nc</code></pre>",
			want: "<pre><code>a &lt; b\nc</code></pre>",
		},
		{
			name: "diagram block without title",
			src:  `<div data-type="mermaid-diagram" data-syntax="pie"></div>`,
			want: `<div data-type="mermaid-diagram" data-syntax="pie"></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Render(root))
		})
	}
}

func TestDiagramRoundTrip(t *testing.T) {
	syntax := "graph TD\n  A[\"Start\"] --> B{Choice}\n  B -->|yes & no| C"
	tree := NewDoc(
		NewHeading(2, NewText("Flow")),
		NewDiagram(syntax, `Decision "tree"`),
		NewParagraph(NewText("after")),
	)

	serialized := Render(tree)
	parsed, err := Parse(serialized)
	require.NoError(t, err)

	assert.Equal(t, serialized, Render(parsed))
	diagrams := New(parsed).Diagrams()
	require.Len(t, diagrams, 1)
	assert.Equal(t, syntax, diagrams[0].Attr(AttrSyntax))
	assert.Equal(t, `Decision "tree"`, diagrams[0].Attr(AttrTitle))
}

func TestDiagramLineEndingsRoundTrip(t *testing.T) {
	tree := NewDoc(NewDiagram("graph TD\r\n  A --> B\r  B --> C", ""))
	want := "graph TD\n  A --> B\n  B --> C"
	assert.Equal(t, want, New(tree).Diagrams()[0].Attr(AttrSyntax))

	parsed, err := Parse(Render(tree))
	require.NoError(t, err)

	diagrams := New(parsed).Diagrams()
	require.Len(t, diagrams, 1)
	assert.Equal(t, want, diagrams[0].Attr(AttrSyntax))
	assert.Equal(t, Render(tree), Render(parsed))
}

func TestPlainText(t *testing.T) {
	text, err := HTMLToPlainText(`<h1>Claims</h1><p>1. A device<br>with a lid</p>` +
		`<div data-type="mermaid-diagram" data-syntax="pie"></div><p></p><ul><li><p>item</p></li></ul>`)
	require.NoError(t, err)
	assert.Equal(t, "Claims\n1. A device\nwith a lid\nitem", text)
}

func TestValidateText(t *testing.T) {
	assert.ErrorIs(t, ValidateText("  \n", 10), ErrEmptyText)
	assert.NoError(t, ValidateText("short", 10))
	assert.Error(t, ValidateText("much too long", 5))
	assert.NoError(t, ValidateText("no limit at all", 0))
}
