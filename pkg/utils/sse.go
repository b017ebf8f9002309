package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

var ErrNoFlush = errors.New("sse: response writer cannot flush")

type SSEWriter struct {
	w    http.ResponseWriter
	fl   http.Flusher
	done bool
}

// NewSSEWriter writes event-stream headers and returns a writer.
func NewSSEWriter(c echo.Context) (*SSEWriter, error) {
	res := c.Response()
	fl, ok := res.Writer.(http.Flusher)
	if !ok {
		return nil, ErrNoFlush
	}
	h := res.Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	fl.Flush()
	return &SSEWriter{w: res, fl: fl}, nil
}

// Event sends one event. Non-string data is JSON encoded.
func (s *SSEWriter) Event(event string, data any) error {
	if s.done {
		return nil
	}
	payload, ok := data.(string)
	if !ok {
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		payload = string(b)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	s.fl.Flush()
	return nil
}

// Close sends the terminal close event once.
func (s *SSEWriter) Close() {
	if s.done {
		return
	}
	s.done = true
	fmt.Fprint(s.w, "event: close\ndata: null\n\n")
	s.fl.Flush()
}
