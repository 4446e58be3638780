package diagram

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlowchart(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		direction string
		nodes     []Node
		edges     []Edge
	}{
		{
			name: "shapes and labels",
			src: `flowchart LR
    %% pipeline
    A[Receive request] -->|valid| B(Process)
    B --> C{Done?}
    C -- yes --> D((End))
    C -.-> A
    style A fill:#f9f`,
			direction: "LR",
			nodes: []Node{
				{ID: "A", Label: "Receive request", Shape: ShapeBox},
				{ID: "B", Label: "Process", Shape: ShapeRound},
				{ID: "C", Label: "Done?", Shape: ShapeRhombus},
				{ID: "D", Label: "End", Shape: ShapeCircle},
			},
			edges: []Edge{
				{From: "A", To: "B", Label: "valid"},
				{From: "B", To: "C"},
				{From: "C", To: "D", Label: "yes"},
				{From: "C", To: "A"},
			},
		},
		{
			name:      "ampersand chaining",
			src:       "graph LR
  A --> B & C",
			direction: "LR",
			nodes: []Node{
				{ID: "A", Label: "A", Shape: ShapeDefault},
				{ID: "B", Label: "B", Shape: ShapeDefault},
				{ID: "C", Label: "C", Shape: ShapeDefault},
			},
			edges: []Edge{{From: "A", To: "B"}, {From: "A", To: "C"}},
		},
		{
			name:      "circle and cross heads",
			src:       "graph TD
  A --o B
  B --x C
  C <--> D
  D -.- A",
			direction: "TD",
			nodes: []Node{
				{ID: "A", Label: "A", Shape: ShapeDefault},
				{ID: "B", Label: "B", Shape: ShapeDefault},
				{ID: "C", Label: "C", Shape: ShapeDefault},
				{ID: "D", Label: "D", Shape: ShapeDefault},
			},
			edges: []Edge{
				{From: "A", To: "B"},
				{From: "B", To: "C"},
				{From: "C", To: "D"},
				{From: "D", To: "A"},
			},
		},
		{
			name:      "asymmetric shape",
			src:       "graph TD
  A>asym] --> B",
			direction: "TD",
			nodes: []Node{
				{ID: "A", Label: "asym", Shape: ShapeAsymmetric},
				{ID: "B", Label: "B", Shape: ShapeDefault},
			},
			edges: []Edge{{From: "A", To: "B"}},
		},
		{
			name:      "class suffix",
			src:       "graph TD
  A:::cls --> B[Next]:::other",
			direction: "TD",
			nodes: []Node{
				{ID: "A", Label: "A", Shape: ShapeDefault},
				{ID: "B", Label: "Next", Shape: ShapeBox},
			},
			edges: []Edge{{From: "A", To: "B"}},
		},
		{
			name:      "arrow inside label",
			src:       "graph TD
  A[a-->b] --> C",
			direction: "TD",
			nodes: []Node{
				{ID: "A", Label: "a-->b", Shape: ShapeBox},
				{ID: "C", Label: "C", Shape: ShapeDefault},
			},
			edges: []Edge{{From: "A", To: "C"}},
		},
		{
			name:      "double delimiters",
			src:       "graph TD
  A[[sub]] --> B[(db)]
  B --> C{{hex}}
  C ==> D[\"quoted ] label\"]",
			direction: "TD",
			nodes: []Node{
				{ID: "A", Label: "sub", Shape: ShapeSubroutine},
				{ID: "B", Label: "db", Shape: ShapeCylinder},
				{ID: "C", Label: "hex", Shape: ShapeHexagon},
				{ID: "D", Label: "quoted ] label", Shape: ShapeBox},
			},
			edges: []Edge{{From: "A", To: "B"}, {From: "B", To: "C"}, {From: "C", To: "D"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(tt.src)
			require.NoError(t, err)

			assert.Equal(t, KindFlowchart, d.Kind)
			assert.Equal(t, tt.direction, d.Direction)
			assert.Equal(t, tt.nodes, d.Nodes)
			assert.Equal(t, tt.edges, d.Edges)
		})
	}
}

func TestParseInlineHeader(t *testing.T) {
	d, err := Parse("graph TD; A-->B; B-->C")
	require.NoError(t, err)

	assert.Equal(t, "TD", d.Direction)
	require.Len(t, d.Edges, 2)
	assert.Equal(t, Edge{From: "B", To: "C"}, d.Edges[1])
}

func TestParseLaterMentionSuppliesLabel(t *testing.T) {
	d, err := Parse("graph TD\nA --> B\nB[Second]")
	require.NoError(t, err)

	n, ok := d.Node("B")
	require.True(t, ok)
	assert.Equal(t, "Second", n.Label)
	assert.Equal(t, ShapeBox, n.Shape)
}

func TestParseOtherKinds(t *testing.T) {
	d, err := Parse("sequenceDiagram\n  Alice->>Bob: Hello\n  Bob-->>Alice: Hi")
	require.NoError(t, err)

	assert.Equal(t, KindSequence, d.Kind)
	assert.Equal(t, []string{"Alice->>Bob: Hello", "Bob-->>Alice: Hi"}, d.Lines)
	assert.Empty(t, d.Edges)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
	}{
		{name: "empty", src: "  \n\n", wantErr: ErrEmpty},
		{name: "only comments", src: "%% nothing", wantErr: ErrEmpty},
		{name: "unknown header", src: "venn\nA", wantErr: ErrUnknownKind},
		{name: "bad direction", src: "graph XY\nA-->B"},
		{name: "dangling edge", src: "graph TD\nA -->"},
		{name: "broken node", src: "graph TD\nA[unclosed --> B"},
		{name: "unterminated link text", src: "graph TD\nA -- yes B"},
		{name: "missing link", src: "graph TD\nA B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRender(t *testing.T) {
	a := Render("graph TD\nA[Pencil] --> B[Eraser]", "Parts <1>")

	require.NoError(t, a.Err)
	assert.Equal(t, KindFlowchart, a.Kind)
	assert.Contains(t, a.HTML, `<figure class="diagram" data-kind="flowchart">`)
	assert.Contains(t, a.HTML, "<figcaption>Parts &lt;1&gt;</figcaption>")
	assert.Contains(t, a.HTML, "A[Pencil] --&gt; B[Eraser]")
	assert.Contains(t, a.HTML, "<li>Pencil &rarr; Eraser</li>")
}

func TestRenderMalformedShowsInlineError(t *testing.T) {
	a := Render("not a diagram", "Broken")

	require.Error(t, a.Err)
	assert.True(t, strings.HasPrefix(a.HTML, `<div class="diagram-error">`))
	assert.Contains(t, a.HTML, "Broken")
	assert.Contains(t, a.HTML, "<pre>not a diagram</pre>")
}

func TestRendererCaches(t *testing.T) {
	r := NewRenderer(time.Minute)

	first := r.Render("pie\n\"a\": 1", "")
	second := r.Render("pie\n\"a\": 1", "")
	r.Render("pie\n\"a\": 1", "titled")

	assert.Equal(t, first, second)
	assert.Equal(t, KindPie, first.Kind)
	assert.Equal(t, 2, r.Len())
}
