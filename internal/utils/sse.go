package utils

import (
	"encoding/json"
	"net/http"

	"github.com/tmaxmax/go-sse"
)

// EventDone is sent by Close as the final event of a stream.
const EventDone = "done"

type SSEWriter struct {
	w http.ResponseWriter
}

func NewSSEWriter(w http.ResponseWriter) *SSEWriter {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &SSEWriter{w: w}
}

func (s *SSEWriter) Write(event, data string) error {
	msg := &sse.Message{}
	if event != "" {
		msg.Type = sse.Type(event)
	}
	msg.AppendData(data)

	if _, err := msg.WriteTo(s.w); err != nil {
		return err
	}

	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}

	return nil
}

// WriteJSON marshals v as the event payload.
func (s *SSEWriter) WriteJSON(event string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Write(event, string(data))
}

func (s *SSEWriter) Close() error {
	return s.Write(EventDone, "[DONE]")
}
