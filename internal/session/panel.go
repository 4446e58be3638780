package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"docassist-backend/internal/model"
	"docassist-backend/pkg/logger"

	"github.com/google/uuid"
)

// FallbackMessage replaces the reply when the assistant cannot be reached.
const FallbackMessage = "Sorry, I couldn't reach the assistant. Please try again."

var (
	ErrBusy         = errors.New("a message is already being sent")
	ErrEmptyMessage = errors.New("message is empty")
)

// Message is one entry of the conversation log.
type Message struct {
	ID        string
	Role      string
	Content   string
	Timestamp time.Time
}

// ProposalHandler receives the diagram proposals of one reply.
type ProposalHandler func([]model.DiagramInsertion)

// Panel is the conversation with the assistant. The log is append-only.
type Panel struct {
	backend  Backend
	document func() string

	mu        sync.Mutex
	log       []Message
	busy      bool
	proposals ProposalHandler
}

// NewPanel creates a panel. document supplies the current document content for each send.
func NewPanel(backend Backend, document func() string) *Panel {
	if document == nil {
		document = func() string { return "" }
	}
	return &Panel{backend: backend, document: document}
}

// OnDiagramProposals registers the handler for diagram proposals. Without one they are dropped.
func (p *Panel) OnDiagramProposals(fn ProposalHandler) {
	p.mu.Lock()
	p.proposals = fn
	p.mu.Unlock()
}

// Send appends text as a user message, posts the whole conversation and appends the reply.
// Transport failures never surface: the reply is FallbackMessage instead.
func (p *Panel) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return Message{}, ErrBusy
	}
	p.busy = true
	p.log = append(p.log, newMessage(model.RoleUser, text))
	history := make([]model.ChatMessage, 0, len(p.log))
	for _, m := range p.log {
		history = append(history, model.ChatMessage{Role: m.Role, Content: m.Content})
	}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.busy = false
		p.mu.Unlock()
	}()

	resp, err := p.backend.Chat(ctx, history, p.document())
	if err != nil {
		logger.Errorf("Chat request failed: %v", err)
		return p.appendReply(FallbackMessage), nil
	}

	reply := p.appendReply(resp.Response)

	if len(resp.DiagramInsertions) > 0 {
		p.mu.Lock()
		handler := p.proposals
		p.mu.Unlock()

		if handler == nil {
			logger.Warnf("Dropped %d diagram proposals: no handler registered", len(resp.DiagramInsertions))
		} else {
			handler(resp.DiagramInsertions)
		}
	}

	return reply, nil
}

// Busy reports whether a send is in flight.
func (p *Panel) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// Messages returns a copy of the log.
func (p *Panel) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Message, len(p.log))
	copy(out, p.log)
	return out
}

func (p *Panel) appendReply(content string) Message {
	m := newMessage(model.RoleAssistant, content)
	p.mu.Lock()
	p.log = append(p.log, m)
	p.mu.Unlock()
	return m
}

func newMessage(role, content string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}
