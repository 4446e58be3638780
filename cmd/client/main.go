package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docassist-backend/internal/client"
	"docassist-backend/internal/document"
	"docassist-backend/internal/model"
	"docassist-backend/internal/session"
	"docassist-backend/pkg/logger"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"
)

const helpText = `Commands:
  :list          list documents
  :open <id>     load a document
  :show          print the current document as text
  :diff          show unsaved changes
  :save          save the current document
  :review        review the current document
  :quit          exit
Anything else is sent to the assistant.`

type repl struct {
	backend  *client.Client
	session  *session.Session
	line     *liner.State
	renderer *glamour.TermRenderer
}

func main() {
	var (
		serverURL string
		timeout   time.Duration
		logLevel  string
	)
	flag.StringVar(&serverURL, "server", "http://localhost:8000", "backend base URL")
	flag.DurationVar(&timeout, "timeout", 0, "HTTP timeout, 0 for none")
	flag.StringVar(&logLevel, "log-level", "warn", "log level")
	flag.Parse()

	if err := logger.Init(logger.Options{Level: logLevel, Format: "text"}); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	backend := client.New(serverURL, timeout)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		renderer = nil
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyFile := filepath.Join(os.TempDir(), "docassist_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.OpenFile(historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	r := &repl{
		backend:  backend,
		session:  session.New(backend),
		line:     line,
		renderer: renderer,
	}
	fmt.Println(helpText)
	r.run(context.Background())
}

func (r *repl) run(ctx context.Context) {
	for {
		input, err := r.line.Prompt(r.prompt())
		if err != nil {
			if !errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println()
			}
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.line.AppendHistory(input)

		if !strings.HasPrefix(input, ":") {
			r.chat(ctx, input)
			continue
		}

		cmd, arg, _ := strings.Cut(input, " ")
		switch cmd {
		case ":quit", ":q":
			if r.session.View.Dirty() {
				fmt.Println("Unsaved changes discarded.")
			}
			return
		case ":help":
			fmt.Println(helpText)
		case ":list":
			r.list(ctx)
		case ":open":
			r.open(ctx, strings.TrimSpace(arg))
		case ":show":
			r.show()
		case ":diff":
			r.diff()
		case ":save":
			r.save(ctx)
		case ":review":
			r.review(ctx)
		default:
			fmt.Printf("Unknown command %s\n", cmd)
		}
	}
}

func (r *repl) prompt() string {
	if doc := r.session.View.Current(); doc != nil {
		if r.session.View.Dirty() {
			return doc.ID + "*> "
		}
		return doc.ID + "> "
	}
	return "> "
}

func (r *repl) list(ctx context.Context) {
	docs, err := r.backend.ListDocuments(ctx)
	if err != nil {
		fmt.Printf("Could not list documents: %v\n", err)
		return
	}
	for _, d := range docs {
		fmt.Printf("  %-8s %s\n", d.ID, d.Title)
	}
}

func (r *repl) open(ctx context.Context, id string) {
	if id == "" {
		fmt.Println("Usage: :open <id>")
		return
	}
	if err := r.session.View.Select(ctx, id); err != nil {
		fmt.Printf("Could not load %s: %v\n", id, err)
		return
	}
	doc := r.session.View.Current()
	fmt.Printf("Opened %s %s\n", doc.ID, doc.Title)
}

func (r *repl) show() {
	doc := r.session.View.Current()
	if doc == nil {
		fmt.Println("No document open.")
		return
	}
	text, err := document.HTMLToPlainText(doc.Content)
	if err != nil {
		fmt.Println(doc.Content)
		return
	}
	fmt.Println(text)
	root, err := document.Parse(doc.Content)
	if err != nil {
		return
	}
	for _, d := range document.New(root).Diagrams() {
		fmt.Printf("\n[diagram %s]\n%s\n", d.Attr(document.AttrTitle), d.Attr(document.AttrSyntax))
	}
}

func (r *repl) diff() {
	if r.session.View.Current() == nil {
		fmt.Println("No document open.")
		return
	}
	lines := r.session.View.Changes()
	stats := document.Stats(lines)
	if stats.Added == 0 && stats.Removed == 0 {
		fmt.Println("No changes.")
		return
	}
	for _, l := range lines {
		switch l.Op {
		case document.DiffAdded:
			fmt.Println("+ " + l.Text)
		case document.DiffRemoved:
			fmt.Println("- " + l.Text)
		default:
			fmt.Println("  " + l.Text)
		}
	}
	fmt.Printf("%d added, %d removed\n", stats.Added, stats.Removed)
}

func (r *repl) save(ctx context.Context) {
	if err := r.session.View.Save(ctx); err != nil {
		fmt.Printf("Save failed: %v\n", err)
		return
	}
	fmt.Printf("Saved at %s\n", r.session.View.Current().LastModified.Local().Format(time.Kitchen))
}

func (r *repl) review(ctx context.Context) {
	doc := r.session.View.Current()
	if doc == nil {
		fmt.Println("No document open.")
		return
	}
	err := r.backend.Review(ctx, doc.ID, doc.Content, func(ev model.ReviewEvent) {
		switch ev.Type {
		case model.ReviewSuggestions:
			if ev.Data == nil || len(ev.Data.Issues) == 0 {
				fmt.Println("No issues found.")
			} else {
				for _, s := range ev.Data.Issues {
					fmt.Printf("[%s] %s (paragraph %d)\n  %q -> %q\n  %s\n",
						s.Severity, s.Type, s.Paragraph, s.OriginalText, s.ReplaceTo, s.Description)
				}
			}
			applied, err := r.session.ApplyReview(ev.Data)
			if err != nil {
				fmt.Printf("Diagram proposals not applied: %v\n", err)
			} else if applied > 0 {
				fmt.Printf("Inserted %d diagram(s) into %s. Use :save to keep them.\n", applied, doc.ID)
			}
		default:
			if ev.Message != "" {
				fmt.Println(ev.Message)
			}
		}
	})
	if err != nil {
		fmt.Printf("Review failed: %v\n", err)
	}
}

func (r *repl) chat(ctx context.Context, text string) {
	reply, applied, err := r.session.Send(ctx, text)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(r.render(reply.Content))
	if applied > 0 {
		fmt.Printf("Inserted %d diagram(s) into %s. Use :save to keep them.\n", applied, r.session.View.Current().ID)
	}
}

func (r *repl) render(markdown string) string {
	if r.renderer == nil {
		return markdown
	}
	out, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
