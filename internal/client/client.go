// Package client talks to the document assistant backend over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docassist-backend/internal/model"
	"docassist-backend/internal/utils"

	"github.com/tmaxmax/go-sse"
)

const maxResponseSize = 10 * 1024 * 1024

// ErrStatus wraps every non-2xx answer from the backend.
var ErrStatus = errors.New("unexpected status")

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the backend at baseURL. A zero timeout means none.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: utils.NewHTTPClient(timeout),
	}
}

func (c *Client) ListDocuments(ctx context.Context) ([]model.DocumentSummary, error) {
	var resp struct {
		Documents []model.DocumentSummary `json:"documents"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/documents", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

func (c *Client) FetchDocument(ctx context.Context, id string) (*model.DocumentResponse, error) {
	var resp model.DocumentResponse
	if err := c.do(ctx, http.MethodGet, "/api/documents/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SaveDocument(ctx context.Context, id, content string) (*model.SaveDocumentResponse, error) {
	var resp model.SaveDocumentResponse
	body := model.SaveDocumentRequest{Content: content}
	if err := c.do(ctx, http.MethodPost, "/api/documents/"+url.PathEscape(id)+"/save", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Chat(ctx context.Context, messages []model.ChatMessage, documentContent string) (*model.ChatResponse, error) {
	var resp model.ChatResponse
	body := model.ChatRequest{Messages: messages, CurrentDocumentContent: documentContent}
	if err := c.do(ctx, http.MethodPost, "/api/chat", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Review requests a review of the document and calls fn for every review event in order.
// An empty content reviews the stored revision.
func (c *Client) Review(ctx context.Context, id, content string, fn func(model.ReviewEvent)) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/documents/"+url.PathEscape(id)+"/review",
		model.ReviewRequest{Content: content})
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("review request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	for ev, err := range sse.Read(resp.Body, nil) {
		if err != nil {
			return fmt.Errorf("read review stream: %w", err)
		}
		if ev.Type == utils.EventDone {
			return nil
		}
		if ev.Type == "heartbeat" {
			continue
		}

		var reviewEvent model.ReviewEvent
		if err := json.Unmarshal([]byte(ev.Data), &reviewEvent); err != nil {
			return fmt.Errorf("decode review event: %w", err)
		}
		fn(reviewEvent)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, body.Error)
	}
	return fmt.Errorf("%w %d", ErrStatus, resp.StatusCode)
}
