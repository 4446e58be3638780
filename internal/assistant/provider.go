package assistant

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"docassist-backend/internal/config"
	"docassist-backend/pkg/logger"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	einoModel "github.com/cloudwego/eino/components/model"
)

// NewChatModel builds the chat model of the configured provider with the assistant tools
// bound.
func NewChatModel(ctx context.Context, cfg *config.Config) (einoModel.ChatModel, error) {
	var (
		chatModel einoModel.ChatModel
		err       error
	)

	switch cfg.Model.Provider {
	case "doubao":
		chatModel, err = createDoubaoModel(ctx, cfg.Doubao)
	case "openai":
		logger.Infof("Using OpenAI model: %s", cfg.OpenAI.Model)
		chatModel, err = newOpenAIChatModel(cfg.OpenAI)
	case "qwen":
		chatModel, err = createQwenModel(ctx, cfg.Qwen)
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Model.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s model: %w", cfg.Model.Provider, err)
	}

	if err := chatModel.BindTools(Tools()); err != nil {
		return nil, fmt.Errorf("bind tools: %w", err)
	}
	return chatModel, nil
}

func createDoubaoModel(ctx context.Context, cfg config.DoubaoConfig) (einoModel.ChatModel, error) {
	logger.Infof("Using Doubao API key: %s, model: %s", maskKey(cfg.APIKey), cfg.Model)

	arkCfg := &ark.ChatModelConfig{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
		CustomHeader: map[string]string{
			"X-Ark-Thinking-Mode": "disable",
		},
	}
	if cfg.BaseURL != "" {
		arkCfg.BaseURL = cfg.BaseURL
	}
	if cfg.MaxTokens > 0 {
		arkCfg.MaxTokens = &cfg.MaxTokens
	}
	if cfg.Timeout > 0 {
		arkCfg.Timeout = &cfg.Timeout
	}
	return ark.NewChatModel(ctx, arkCfg)
}

func createQwenModel(ctx context.Context, cfg config.QwenConfig) (einoModel.ChatModel, error) {
	logger.Infof("Using Qwen API key: %s, model: %s, base url: %s", maskKey(cfg.APIKey), cfg.Model, cfg.BaseURL)

	qwenCfg := &qwen.ChatModelConfig{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		Timeout:    cfg.Timeout,
		HTTPClient: newDebugHTTPClient(cfg.Timeout, cfg.DebugRequest),
	}
	if cfg.MaxTokens > 0 {
		qwenCfg.MaxTokens = &cfg.MaxTokens
	}
	if cfg.TopP > 0 {
		qwenCfg.TopP = &cfg.TopP
	}
	if cfg.Temperature > 0 {
		qwenCfg.Temperature = &cfg.Temperature
	}
	return qwen.NewChatModel(ctx, qwenCfg)
}

func maskKey(key string) string {
	if len(key) > 10 {
		return key[:10] + "..."
	}
	if key == "" {
		return "(empty)"
	}
	return "***"
}

func newDebugHTTPClient(timeout time.Duration, debug bool) *http.Client {
	return &http.Client{
		Transport: &debugTransport{base: http.DefaultTransport, enabled: debug},
		Timeout:   timeout,
	}
}

// debugTransport logs outgoing POST requests with credentials redacted.
type debugTransport struct {
	base    http.RoundTripper
	enabled bool
}

var sensitiveHeaders = []string{"Authorization", "X-Api-Key", "X-Auth-Token", "Cookie"}

var sensitiveFields = regexp.MustCompile(`(?i)"(api_key|apikey|password|secret|token)"\s*:\s*"[^"]*"`)

func (t *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.enabled && req.Method == http.MethodPost {
		t.logRequest(req)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil && t.enabled {
		logger.Errorf("[model debug] request to %s failed: %v", req.URL, err)
	}
	return resp, err
}

func (t *debugTransport) logRequest(req *http.Request) {
	entry := logger.WithFields(map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	var headers []string
	for name, values := range req.Header {
		value := strings.Join(values, ", ")
		for _, sensitive := range sensitiveHeaders {
			if strings.EqualFold(name, sensitive) {
				value = "[REDACTED]"
				break
			}
		}
		headers = append(headers, name+": "+value)
	}
	entry = entry.WithField("headers", strings.Join(headers, "; "))

	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			entry.Errorf("[model debug] read request body: %v", err)
			return
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
		entry = entry.WithField("body_size", len(body))
		if len(body) > 0 {
			entry = entry.WithField("body", sensitiveFields.ReplaceAllString(string(body), `"$1": "[REDACTED]"`))
		}
	}
	entry.Info("[model debug] request")
}
