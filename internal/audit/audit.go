package audit

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Event is the audit record delivered to external sinks. It mirrors what the
// durable security log keeps, plus the outcome and error text of the
// operation that produced it.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Email     string            `json:"email,omitempty"`
	Device    string            `json:"device,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives emitted audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink buffers audit events in a channel for in-process consumers.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan Event, buffer)}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line to w.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	line, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.writer.Write(line)
	_, _ = s.writer.Write([]byte{'\n'})
}

// MaskingSink wraps a Sink and masks the email field before delivery, for
// deployments whose audit destination must not receive raw addresses.
type MaskingSink struct {
	next Sink
}

func NewMaskingSink(next Sink) *MaskingSink {
	return &MaskingSink{next: next}
}

func (s *MaskingSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.next == nil {
		return
	}
	event.Email = MaskEmail(event.Email)
	if v, ok := event.Metadata["email"]; ok {
		masked := make(map[string]string, len(event.Metadata))
		for k, mv := range event.Metadata {
			masked[k] = mv
		}
		masked["email"] = MaskEmail(v)
		event.Metadata = masked
	}
	s.next.Emit(ctx, event)
}

// MaskEmail keeps the first character of the local part and the full domain:
// "alice@example.com" becomes "a***@example.com". Strings without an "@" are
// masked entirely.
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}
	first, _ := utf8.DecodeRuneInString(local)
	return string(first) + "***@" + domain
}
