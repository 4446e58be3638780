// Package assistant talks to the language model: document-aware chat that may propose
// diagrams, and claims review that produces merged suggestions.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"docassist-backend/internal/document"
	"docassist-backend/internal/markdown"
	"docassist-backend/internal/model"
	"docassist-backend/pkg/logger"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type Options struct {
	ChatTemperature   float32
	ReviewTemperature float32
}

type Assistant struct {
	model einoModel.ChatModel
	opts  Options
}

// New wraps a chat model that already has Tools bound.
func New(chatModel einoModel.ChatModel, opts Options) *Assistant {
	return &Assistant{model: chatModel, opts: opts}
}

// ChatReply is the outcome of one chat turn.
type ChatReply struct {
	Text       string
	Insertions []model.DiagramInsertion
}

// ChatWithDocument answers the last message of history with the current document as
// context. create_diagram calls are appended to the text as mermaid fences and
// insert_diagram calls become insertion proposals.
func (a *Assistant) ChatWithDocument(ctx context.Context, history []model.ChatMessage, documentHTML string) (*ChatReply, error) {
	plainText := ""
	if strings.TrimSpace(documentHTML) != "" {
		text, err := document.HTMLToPlainText(documentHTML)
		if err != nil {
			return nil, fmt.Errorf("convert document: %w", err)
		}
		plainText = text
		logger.Infof("Document context length: %d", len(plainText))
	}

	messages := chatMessages(history, plainText)
	logger.Infof("Starting document chat, messages: %d", len(messages))

	content, calls, err := a.stream(ctx, messages, a.opts.ChatTemperature)
	if err != nil {
		return nil, err
	}

	reply := &ChatReply{Text: content}
	for _, call := range calls {
		switch call.Function.Name {
		case ToolCreateDiagram:
			args, err := parseDiagramArgs(call.Function.Arguments)
			if err != nil {
				logger.Warnf("Skipping %s call: %v", ToolCreateDiagram, err)
				continue
			}
			reply.Text += markdown.MermaidFence(args.MermaidSyntax)
		case ToolInsertDiagram:
			args, err := parseDiagramArgs(call.Function.Arguments)
			if err != nil {
				logger.Warnf("Skipping %s call: %v", ToolInsertDiagram, err)
				continue
			}
			logger.Infof("Assistant proposes a diagram after %q", truncate(args.InsertAfterText, 50))
			reply.Insertions = append(reply.Insertions, args.insertion())
		default:
			logger.Debugf("Ignoring tool call %q in chat", call.Function.Name)
		}
	}
	return reply, nil
}

func chatMessages(history []model.ChatMessage, documentText string) []*schema.Message {
	if len(history) == 0 {
		return nil
	}
	last := history[len(history)-1].Content

	messages := make([]*schema.Message, 0, len(history)+1)
	messages = append(messages, schema.SystemMessage(chatSystemPrompt(documentText, last)))
	for _, msg := range history[:len(history)-1] {
		if msg.Role == model.RoleAssistant {
			messages = append(messages, schema.AssistantMessage(msg.Content, nil))
		} else {
			messages = append(messages, schema.UserMessage(msg.Content))
		}
	}
	return append(messages, schema.UserMessage(last))
}

// Review checks plain document text against the claim rules.
func (a *Assistant) Review(ctx context.Context, plainText string) (*model.ReviewResult, error) {
	logger.Infof("Starting review, document length: %d", len(plainText))

	messages := []*schema.Message{
		schema.SystemMessage(reviewPrompt),
		schema.UserMessage(plainText),
	}
	_, calls, err := a.stream(ctx, messages, a.opts.ReviewTemperature)
	if err != nil {
		return nil, err
	}
	logger.Infof("Collected %d function calls", len(calls))

	result := &model.ReviewResult{
		Issues:            []model.Suggestion{},
		DiagramInsertions: []model.DiagramInsertion{},
	}
	for _, call := range calls {
		switch call.Function.Name {
		case ToolCreateSuggestion:
			s, ok, err := parseSuggestion(call.Function.Arguments)
			if err != nil {
				logger.Errorf("Skipping %s call: %v; arguments: %s", ToolCreateSuggestion, err, truncate(call.Function.Arguments, 200))
				continue
			}
			if ok {
				result.Issues = append(result.Issues, s)
			}
		case ToolInsertDiagram:
			args, err := parseDiagramArgs(call.Function.Arguments)
			if err != nil {
				logger.Errorf("Skipping %s call: %v", ToolInsertDiagram, err)
				continue
			}
			result.DiagramInsertions = append(result.DiagramInsertions, args.insertion())
		}
	}
	logger.Infof("Review produced %d suggestions and %d diagram insertions", len(result.Issues), len(result.DiagramInsertions))
	return result, nil
}

// stream runs one streamed completion and returns the concatenated text with the tool calls
// reassembled from their fragments.
func (a *Assistant) stream(ctx context.Context, messages []*schema.Message, temperature float32) (string, []schema.ToolCall, error) {
	reader, err := a.model.Stream(ctx, messages, einoModel.WithTemperature(temperature))
	if err != nil {
		return "", nil, fmt.Errorf("start completion: %w", err)
	}
	defer reader.Close()

	var content strings.Builder
	acc := newToolCallAccumulator()
	for {
		chunk, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("receive completion: %w", err)
		}
		if chunk == nil {
			continue
		}
		content.WriteString(chunk.Content)
		acc.add(chunk.ToolCalls)
	}
	return content.String(), acc.calls(), nil
}

// toolCallAccumulator rebuilds tool calls streamed as fragments keyed by index. A fragment
// carrying a function name starts a new call at its index; later fragments without a name
// extend the arguments of the call at the same index.
type toolCallAccumulator struct {
	finished []schema.ToolCall
	current  map[int]*schema.ToolCall
	order    []int
}

func newToolCallAccumulator() *toolCallAccumulator {
	return &toolCallAccumulator{current: map[int]*schema.ToolCall{}}
}

func (acc *toolCallAccumulator) add(fragments []schema.ToolCall) {
	for i, f := range fragments {
		index := i
		if f.Index != nil {
			index = *f.Index
		}

		existing, ok := acc.current[index]
		if f.Function.Name != "" && !(ok && f.ID != "" && f.ID == existing.ID) {
			if ok {
				acc.finished = append(acc.finished, *existing)
			} else {
				acc.order = append(acc.order, index)
			}
			call := f
			call.Index = nil
			acc.current[index] = &call
			continue
		}
		if ok {
			existing.Function.Arguments += f.Function.Arguments
		}
	}
}

func (acc *toolCallAccumulator) calls() []schema.ToolCall {
	out := append([]schema.ToolCall(nil), acc.finished...)
	for _, index := range acc.order {
		out = append(out, *acc.current[index])
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
