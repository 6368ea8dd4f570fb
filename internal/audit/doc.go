// Package audit implements async event dispatching for security-relevant
// operations.
//
// # Components
//
//   - [Sink] — interface for event consumers (channel, JSON writer, masking, no-op).
//   - [Dispatcher] — buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event] — structured audit record with timestamp, type, email, device, metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide
// which events to emit — that responsibility belongs to the Service. The
// durable, bounded security log lives in the events package; this package is
// the fan-out to external consumers only.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import secureauth or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
