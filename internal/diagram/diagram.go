// Package diagram parses textual diagram descriptions and renders them into displayable
// artifacts.
package diagram

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind identifies the diagram family declared on the header line.
type Kind string

const (
	KindFlowchart Kind = "flowchart"
	KindSequence  Kind = "sequenceDiagram"
	KindClass     Kind = "classDiagram"
	KindER        Kind = "erDiagram"
	KindGantt     Kind = "gantt"
	KindPie       Kind = "pie"
	KindMindmap   Kind = "mindmap"
)

var (
	ErrEmpty       = errors.New("diagram source is empty")
	ErrUnknownKind = errors.New("unknown diagram type")
)

var headerKinds = map[string]Kind{
	"graph":           KindFlowchart,
	"flowchart":       KindFlowchart,
	"sequencediagram": KindSequence,
	"classdiagram":    KindClass,
	"erdiagram":       KindER,
	"gantt":           KindGantt,
	"pie":             KindPie,
	"mindmap":         KindMindmap,
}

var directions = map[string]bool{"TD": true, "TB": true, "BT": true, "LR": true, "RL": true}

// Shape is how a flowchart node is drawn.
type Shape string

const (
	ShapeDefault Shape = "default"
	ShapeBox     Shape = "box"
	ShapeRound   Shape = "round"
	ShapeRhombus Shape = "rhombus"
	ShapeCircle  Shape = "circle"
	ShapeStadium Shape = "stadium"

	ShapeDoubleCircle  Shape = "double_circle"
	ShapeSubroutine    Shape = "subroutine"
	ShapeCylinder      Shape = "cylinder"
	ShapeParallelogram Shape = "parallelogram"
	ShapeHexagon       Shape = "hexagon"
	ShapeAsymmetric    Shape = "asymmetric"
)

type Node struct {
	ID    string
	Label string
	Shape Shape
}

type Edge struct {
	From  string
	To    string
	Label string
}

// Diagram is the parsed form of a description. Nodes and Edges are only filled for
// flowcharts; other kinds keep their body lines as-is.
type Diagram struct {
	Kind      Kind
	Direction string
	Nodes     []Node
	Edges     []Edge
	Lines     []string
}

// Node returns the node with the given id.
func (d *Diagram) Node(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Parse reads a description. The first meaningful line must declare a known diagram type.
func Parse(source string) (*Diagram, error) {
	lines := meaningfulLines(source)
	if len(lines) == 0 {
		return nil, ErrEmpty
	}

	// The header may share its line with the first statements: "graph TD; A-->B".
	headerText, inline, _ := strings.Cut(lines[0].text, ";")
	header := strings.Fields(headerText)
	if len(header) == 0 {
		return nil, fmt.Errorf("line %d: missing diagram type", lines[0].number)
	}
	kind, ok := headerKinds[strings.ToLower(header[0])]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, header[0])
	}

	body := lines[1:]
	if strings.TrimSpace(inline) != "" {
		body = append([]sourceLine{{number: lines[0].number, text: strings.TrimSpace(inline)}}, body...)
	}

	d := &Diagram{Kind: kind}
	if kind != KindFlowchart {
		for _, l := range body {
			d.Lines = append(d.Lines, l.text)
		}
		return d, nil
	}

	d.Direction = "TD"
	if len(header) > 1 {
		dir := strings.ToUpper(header[1])
		if !directions[dir] {
			return nil, fmt.Errorf("line %d: invalid direction %q", lines[0].number, header[1])
		}
		d.Direction = dir
	}

	p := &flowParser{diagram: d, index: map[string]int{}}
	for _, l := range body {
		for _, stmt := range strings.Split(l.text, ";") {
			if err := p.statement(strings.TrimSpace(stmt)); err != nil {
				return nil, fmt.Errorf("line %d: %w", l.number, err)
			}
		}
	}
	return d, nil
}

type sourceLine struct {
	number int
	text   string
}

func meaningfulLines(source string) []sourceLine {
	var out []sourceLine
	for i, raw := range strings.Split(source, "\n") {
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, "%%") {
			continue
		}
		out = append(out, sourceLine{number: i + 1, text: text})
	}
	return out
}

// flowchart statements that configure rendering and carry no graph structure
var ignoredStatements = map[string]bool{
	"subgraph": true, "end": true, "style": true, "classDef": true, "class": true,
	"linkStyle": true, "click": true, "direction": true, "accTitle": true, "accDescr": true,
}

type flowParser struct {
	diagram *Diagram
	index   map[string]int
}

// statement parses "group link group link ...", where a group is one or more nodes joined
// by "&". Every node of a group is linked to every node of the next one.
func (p *flowParser) statement(stmt string) error {
	if stmt == "" {
		return nil
	}
	if ignoredStatements[strings.TrimSuffix(strings.Fields(stmt)[0], ":")] {
		return nil
	}

	sc := &flowScanner{s: stmt}
	group, err := sc.nodeGroup()
	if err != nil {
		return err
	}
	p.addAll(group)

	for {
		sc.skipSpace()
		if sc.done() {
			return nil
		}
		label, err := sc.link()
		if err != nil {
			return err
		}
		next, err := sc.nodeGroup()
		if err != nil {
			return err
		}
		p.addAll(next)
		for _, from := range group {
			for _, to := range next {
				p.diagram.Edges = append(p.diagram.Edges, Edge{From: from.ID, To: to.ID, Label: label})
			}
		}
		group = next
	}
}

func (p *flowParser) addAll(nodes []Node) {
	for _, n := range nodes {
		p.add(n)
	}
}

// add registers a node; a later mention may supply the label of an earlier bare reference.
func (p *flowParser) add(n Node) {
	if i, ok := p.index[n.ID]; ok {
		if p.diagram.Nodes[i].Shape == ShapeDefault && n.Shape != ShapeDefault {
			p.diagram.Nodes[i] = n
		}
		return
	}
	p.index[n.ID] = len(p.diagram.Nodes)
	p.diagram.Nodes = append(p.diagram.Nodes, n)
}

// longer openings come first so that "((" wins over "("
var shapeDelims = []struct {
	open   string
	closes []string
	shape  Shape
}{
	{"(((", []string{")))"}, ShapeDoubleCircle},
	{"((", []string{"))"}, ShapeCircle},
	{"([", []string{"])"}, ShapeStadium},
	{"[[", []string{"]]"}, ShapeSubroutine},
	{"[(", []string{")]"}, ShapeCylinder},
	{"[/", []string{"/]", `\]`}, ShapeParallelogram},
	{`[\`, []string{`\]`, "/]"}, ShapeParallelogram},
	{"{{", []string{"}}"}, ShapeHexagon},
	{"[", []string{"]"}, ShapeBox},
	{"(", []string{")"}, ShapeRound},
	{"{", []string{"}"}, ShapeRhombus},
	{">", []string{"]"}, ShapeAsymmetric},
}

type flowScanner struct {
	s   string
	pos int
}

func (sc *flowScanner) rest() string { return sc.s[sc.pos:] }

func (sc *flowScanner) done() bool { return sc.pos >= len(sc.s) }

func (sc *flowScanner) skipSpace() {
	for !sc.done() && unicode.IsSpace(rune(sc.s[sc.pos])) {
		sc.pos++
	}
}

func (sc *flowScanner) nodeGroup() ([]Node, error) {
	var nodes []Node
	for {
		sc.skipSpace()
		n, err := sc.node()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)

		sc.skipSpace()
		if !strings.HasPrefix(sc.rest(), "&") {
			return nodes, nil
		}
		sc.pos++
	}
}

func (sc *flowScanner) node() (Node, error) {
	if sc.done() {
		return Node{}, errors.New("edge is missing a node")
	}
	id := sc.ident()
	if id == "" {
		return Node{}, fmt.Errorf("invalid node %q", sc.rest())
	}
	n := Node{ID: id, Label: id, Shape: ShapeDefault}

	for _, d := range shapeDelims {
		if !strings.HasPrefix(sc.rest(), d.open) {
			continue
		}
		label, size, ok := scanLabel(sc.s[sc.pos+len(d.open):], d.closes)
		if !ok {
			return Node{}, fmt.Errorf("invalid node %q: missing %q", id+sc.rest(), d.closes[0])
		}
		sc.pos += len(d.open) + size
		n.Label, n.Shape = label, d.shape
		break
	}

	if strings.HasPrefix(sc.rest(), ":::") {
		sc.pos += 3
		if sc.ident() == "" {
			return Node{}, fmt.Errorf("node %s: missing class name", id)
		}
	}
	return n, nil
}

func (sc *flowScanner) ident() string {
	start := sc.pos
	for !sc.done() {
		r, size := utf8.DecodeRuneInString(sc.rest())
		if !isIdentRune(r) {
			break
		}
		sc.pos += size
	}
	return sc.s[start:sc.pos]
}

// scanLabel reads a label up to the first closing delimiter. A quoted label may contain
// the delimiters.
func scanLabel(body string, closes []string) (label string, size int, ok bool) {
	trimmed := strings.TrimLeft(body, " ")
	if strings.HasPrefix(trimmed, `"`) {
		offset := len(body) - len(trimmed)
		end := strings.Index(trimmed[1:], `"`)
		if end < 0 {
			return "", 0, false
		}
		after := offset + 1 + end + 1
		tail := strings.TrimLeft(body[after:], " ")
		for _, c := range closes {
			if strings.HasPrefix(tail, c) {
				return trimmed[1 : 1+end], len(body) - len(tail) + len(c), true
			}
		}
		return "", 0, false
	}

	best, bestClose := -1, ""
	for _, c := range closes {
		if i := strings.Index(body, c); i >= 0 && (best < 0 || i < best) {
			best, bestClose = i, c
		}
	}
	if best < 0 {
		return "", 0, false
	}
	return strings.TrimSpace(body[:best]), best + len(bestClose), true
}

// link consumes one link and its optional "|label|" or "-- label -->" text.
func (sc *flowScanner) link() (string, error) {
	rest := sc.rest()

	if open := textLinkOpening(rest); open != "" {
		body := rest[len(open):]
		k, size := closingLink(body, open)
		if k < 0 {
			return "", fmt.Errorf("unterminated link text %q", strings.TrimSpace(rest))
		}
		sc.pos += len(open) + k + size
		return strings.TrimSpace(body[:k]), nil
	}

	n := arrowLen(rest)
	if n == 0 {
		return "", fmt.Errorf("expected a link before %q", strings.TrimSpace(rest))
	}
	sc.pos += n

	sc.skipSpace()
	if !strings.HasPrefix(sc.rest(), "|") {
		return "", nil
	}
	end := strings.Index(sc.rest()[1:], "|")
	if end < 0 {
		return "", fmt.Errorf("unterminated link label %q", sc.rest())
	}
	label := strings.TrimSpace(sc.rest()[1 : 1+end])
	sc.pos += end + 2
	return label, nil
}

// textLinkOpening recognizes the first half of "A -- text --> B", "A == text ==> B" and
// "A -. text .-> B".
func textLinkOpening(s string) string {
	for _, open := range []string{"--", "==", "-."} {
		if len(s) > len(open) && strings.HasPrefix(s, open) && unicode.IsSpace(rune(s[len(open)])) {
			return open
		}
	}
	return ""
}

// closingLink finds the second half of a text link in s and returns its offset and length.
func closingLink(s, open string) (int, int) {
	for k := 0; k < len(s); k++ {
		if open == "-." {
			if s[k] != '.' {
				continue
			}
			j := k
			for j < len(s) && s[j] == '.' {
				j++
			}
			if j < len(s) && s[j] == '-' {
				j++
				return k, j - k + headLen(s[j:])
			}
			continue
		}
		if s[k] != open[0] {
			continue
		}
		if n := arrowLen(s[k:]); n > 0 {
			return k, n
		}
	}
	return -1, 0
}

// arrowLen returns the length of the arrow at the start of s, or 0. Supported: "---",
// "-->", "==>", "-.-", "-.->", "~~~", with optional "<", "o" or "x" heads on either end.
func arrowLen(s string) int {
	i := 0
	if strings.HasPrefix(s, "<") || (len(s) > 1 && (s[0] == 'o' || s[0] == 'x') && (s[1] == '-' || s[1] == '=')) {
		i = 1
	}

	switch {
	case strings.HasPrefix(s[i:], "~~~"):
		for i < len(s) && s[i] == '~' {
			i++
		}
		return i
	case strings.HasPrefix(s[i:], "-."):
		j := i + 1
		for j < len(s) && s[j] == '.' {
			j++
		}
		if j >= len(s) || s[j] != '-' {
			return 0
		}
		i = j + 1
	default:
		if i >= len(s) || (s[i] != '-' && s[i] != '=') {
			return 0
		}
		c, j := s[i], i
		for j < len(s) && s[j] == c {
			j++
		}
		if j-i < 2 {
			return 0
		}
		i = j
	}
	return i + headLen(s[i:])
}

// headLen returns 1 when s starts with an arrow head. "o" and "x" only count when they do
// not start a node id.
func headLen(s string) int {
	if s == "" {
		return 0
	}
	switch s[0] {
	case '>':
		return 1
	case 'o', 'x':
		if r, _ := utf8.DecodeRuneInString(s[1:]); len(s) == 1 || !isIdentRune(r) {
			return 1
		}
	}
	return 0
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
