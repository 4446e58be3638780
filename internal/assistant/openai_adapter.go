package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"docassist-backend/internal/config"
	"docassist-backend/pkg/logger"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// openaiChatModel adapts the go-openai client to eino's ChatModel, including function
// calling in both Generate and Stream.
type openaiChatModel struct {
	client *openai.Client
	model  string
	tools  []openai.Tool
}

func newOpenAIChatModel(cfg config.OpenAIConfig) (*openaiChatModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is not configured")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = newDebugHTTPClient(cfg.Timeout, false)
	}

	return &openaiChatModel{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}, nil
}

func (m *openaiChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	req := m.request(messages, opts)
	logger.Debugf("openai generate: model=%s messages=%d tools=%d", req.Model, len(req.Messages), len(req.Tools))

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	choice := resp.Choices[0].Message
	return &schema.Message{
		Role:      schema.Assistant,
		Content:   choice.Content,
		ToolCalls: fromOpenAIToolCalls(choice.ToolCalls),
	}, nil
}

func (m *openaiChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	req := m.request(messages, opts)
	req.Stream = true

	stream, err := m.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion stream: %w", err)
	}

	reader, writer := schema.Pipe[*schema.Message](100)
	go func() {
		defer writer.Close()
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				writer.Send(nil, fmt.Errorf("openai stream: %w", err))
				return
			}
			if len(response.Choices) == 0 {
				continue
			}

			delta := response.Choices[0].Delta
			if delta.Content == "" && len(delta.ToolCalls) == 0 {
				continue
			}
			closed := writer.Send(&schema.Message{
				Role:      schema.Assistant,
				Content:   delta.Content,
				ToolCalls: fromOpenAIToolCalls(delta.ToolCalls),
			}, nil)
			if closed {
				return
			}
		}
	}()

	return reader, nil
}

// BindTools converts tool definitions to OpenAI function declarations. Only tools known to
// this package can be converted.
func (m *openaiChatModel) BindTools(tools []*schema.ToolInfo) error {
	converted := make([]openai.Tool, 0, len(tools))
	for _, info := range tools {
		def, ok := lookupToolDef(info.Name)
		if !ok {
			return fmt.Errorf("bind tools: unknown tool %q", info.Name)
		}
		params := objectDefinition(def.params)
		converted = append(converted, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        info.Name,
				Description: info.Desc,
				Parameters:  params,
			},
		})
	}
	m.tools = converted
	return nil
}

func (m *openaiChatModel) request(messages []*schema.Message, opts []einoModel.Option) openai.ChatCompletionRequest {
	options := einoModel.GetCommonOptions(&einoModel.Options{Model: &m.model}, opts...)

	req := openai.ChatCompletionRequest{
		Model:    m.model,
		Messages: convertMessages(messages),
	}
	if options.Model != nil && *options.Model != "" {
		req.Model = *options.Model
	}
	if options.Temperature != nil {
		req.Temperature = *options.Temperature
	}
	if options.MaxTokens != nil {
		req.MaxTokens = *options.MaxTokens
	}
	if len(m.tools) > 0 {
		req.Tools = m.tools
		req.ToolChoice = "auto"
	}
	return req
}

func convertMessages(messages []*schema.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case schema.Assistant:
			role = openai.ChatMessageRoleAssistant
		case schema.System:
			role = openai.ChatMessageRoleSystem
		}

		// Empty assistant turns are rejected by the API.
		if msg.Content == "" && role == openai.ChatMessageRoleAssistant {
			continue
		}
		result = append(result, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	return result
}

func fromOpenAIToolCalls(calls []openai.ToolCall) []schema.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]schema.ToolCall, 0, len(calls))
	for _, c := range calls {
		out = append(out, schema.ToolCall{
			Index: c.Index,
			ID:    c.ID,
			Type:  string(c.Type),
			Function: schema.FunctionCall{
				Name:      c.Function.Name,
				Arguments: c.Function.Arguments,
			},
		})
	}
	return out
}

func objectDefinition(params map[string]*schema.ParameterInfo) jsonschema.Definition {
	def := jsonschema.Definition{
		Type:       jsonschema.Object,
		Properties: make(map[string]jsonschema.Definition, len(params)),
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := params[name]
		def.Properties[name] = parameterDefinition(p)
		if p.Required {
			def.Required = append(def.Required, name)
		}
	}
	return def
}

func parameterDefinition(p *schema.ParameterInfo) jsonschema.Definition {
	if p.Type == schema.Object {
		def := objectDefinition(p.SubParams)
		def.Description = p.Desc
		return def
	}
	def := jsonschema.Definition{
		Type:        jsonschema.DataType(p.Type),
		Description: p.Desc,
		Enum:        p.Enum,
	}
	if p.Type == schema.Array && p.ElemInfo != nil {
		items := parameterDefinition(p.ElemInfo)
		def.Items = &items
	}
	return def
}
