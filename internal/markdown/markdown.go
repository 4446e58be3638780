// Package markdown renders assistant replies to HTML and pulls fenced diagram sources out
// of them.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// MermaidLanguage is the info string of fences holding diagram descriptions.
const MermaidLanguage = "mermaid"

// Fence is a fenced code block found in a reply.
type Fence struct {
	Language string
	Body     string
}

type Converter struct {
	md goldmark.Markdown
}

// New builds a converter with GitHub-flavoured extensions and class-free syntax highlighting.
// Raw HTML in replies is escaped.
func New() *Converter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(highlighting.WithStyle("github")),
		),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	return &Converter{md: md}
}

func (c *Converter) ToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Fences lists fenced code blocks in document order.
func (c *Converter) Fences(src string) []Fence {
	source := []byte(src)
	doc := c.md.Parser().Parse(text.NewReader(source))

	var fences []Fence
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		var body strings.Builder
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			body.Write(line.Value(source))
		}
		fences = append(fences, Fence{
			Language: strings.ToLower(string(block.Language(source))),
			Body:     strings.TrimRight(body.String(), "\n"),
		})
		return ast.WalkSkipChildren, nil
	})
	return fences
}

// MermaidSources returns the bodies of mermaid fences in document order.
func (c *Converter) MermaidSources(src string) []string {
	var out []string
	for _, f := range c.Fences(src) {
		if f.Language == MermaidLanguage && strings.TrimSpace(f.Body) != "" {
			out = append(out, f.Body)
		}
	}
	return out
}

// MermaidFence formats a diagram description as a fenced block suitable for appending to a
// reply.
func MermaidFence(syntax string) string {
	return "\n```" + MermaidLanguage + "\n" + strings.TrimSpace(syntax) + "\n```\n"
}
