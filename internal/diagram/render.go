package diagram

import (
	"fmt"
	"html"
	"strings"
)

// Artifact is a rendered diagram. When Err is set, HTML holds an inline error indicator
// instead of the drawing.
type Artifact struct {
	Kind  Kind
	Title string
	HTML  string
	Err   error
}

// Render turns a description into an artifact. It never panics and never returns an error
// directly: parse failures are reported through the artifact.
func Render(source, title string) Artifact {
	d, err := Parse(source)
	if err != nil {
		return Artifact{Title: title, HTML: errorHTML(source, title, err), Err: err}
	}
	return Artifact{Kind: d.Kind, Title: title, HTML: diagramHTML(d, source, title)}
}

func diagramHTML(d *Diagram, source, title string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<figure class="diagram" data-kind="%s">`, html.EscapeString(string(d.Kind)))
	if title != "" {
		fmt.Fprintf(&sb, "<figcaption>%s</figcaption>", html.EscapeString(title))
	}
	fmt.Fprintf(&sb, `<pre class="mermaid">%s</pre>`, html.EscapeString(strings.TrimSpace(source)))
	if len(d.Edges) > 0 {
		sb.WriteString(`<ul class="diagram-edges">`)
		for _, e := range d.Edges {
			sb.WriteString("<li>")
			sb.WriteString(html.EscapeString(d.label(e.From)))
			if e.Label != "" {
				fmt.Fprintf(&sb, " &rarr; [%s] &rarr; ", html.EscapeString(e.Label))
			} else {
				sb.WriteString(" &rarr; ")
			}
			sb.WriteString(html.EscapeString(d.label(e.To)))
			sb.WriteString("</li>")
		}
		sb.WriteString("</ul>")
	}
	sb.WriteString("</figure>")
	return sb.String()
}

func errorHTML(source, title string, err error) string {
	var sb strings.Builder
	sb.WriteString(`<div class="diagram-error">`)
	if title != "" {
		fmt.Fprintf(&sb, "<strong>%s</strong>: ", html.EscapeString(title))
	}
	fmt.Fprintf(&sb, "Diagram could not be rendered: %s", html.EscapeString(err.Error()))
	if s := strings.TrimSpace(source); s != "" {
		fmt.Fprintf(&sb, "<pre>%s</pre>", html.EscapeString(s))
	}
	sb.WriteString("</div>")
	return sb.String()
}

func (d *Diagram) label(id string) string {
	if n, ok := d.Node(id); ok && n.Label != "" {
		return n.Label
	}
	return id
}
