package secureauth

import (
	"context"
	"io"

	internalaudit "github.com/MrEthical07/secureauth/internal/audit"
)

// AuditEvent is the record delivered to an [AuditSink]: the external,
// fire-and-forget mirror of what the durable event log keeps.
type AuditEvent = internalaudit.Event

// AuditSink receives emitted audit events.
type AuditSink = internalaudit.Sink

// NoOpSink drops audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers audit events in a channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// MaskingSink redacts address fields before forwarding to another sink.
// [Config.Audit.MaskEmails] applies it automatically.
type MaskingSink = internalaudit.MaskingSink

// NewChannelSink creates a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a JSONWriterSink over w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewMaskingSink wraps next with address redaction.
func NewMaskingSink(next AuditSink) *MaskingSink {
	return internalaudit.NewMaskingSink(next)
}

// emitAudit forwards one event to the external sink, if dispatching is on.
func (s *Service) emitAudit(ctx context.Context, eventType string, success bool, email string, err error, metadata map[string]string) {
	if s.audit == nil {
		return
	}

	errText := ""
	if err != nil {
		errText = err.Error()
	}
	deviceID := ""
	if fp, fpErr := s.device.Fingerprint(ctx); fpErr == nil {
		deviceID = fp
	}

	s.audit.Emit(ctx, AuditEvent{
		Timestamp: s.now(),
		EventType: eventType,
		Email:     email,
		Device:    deviceID,
		Success:   success,
		Error:     errText,
		Metadata:  metadata,
	})
}
