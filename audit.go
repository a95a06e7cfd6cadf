package gatekeeper

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Severity classifies a security event for downstream alerting.
type Severity string

const (
	// SeverityLow marks informational events.
	SeverityLow Severity = "LOW"
	// SeverityMedium marks policy denials from ordinary client misuse.
	SeverityMedium Severity = "MEDIUM"
	// SeverityHigh marks authorization failures and abuse escalations.
	SeverityHigh Severity = "HIGH"
	// SeverityCritical marks threat vetoes and other incidents.
	SeverityCritical Severity = "CRITICAL"
)

// Security event types emitted by the pipeline. One event per decision
// point; successful allows are not audited at this layer to bound volume.
const (
	EventCORSViolation           = "CORS_VIOLATION"
	EventRateLimitExceeded       = "RATE_LIMIT_EXCEEDED"
	EventRequestSizeExceeded     = "REQUEST_SIZE_EXCEEDED"
	EventAuthMissing             = "AUTH_MISSING"
	EventAuthInvalid             = "AUTH_INVALID"
	EventAuthBlocked             = "AUTH_BLOCKED"
	EventAdminAccessDenied       = "ADMIN_ACCESS_DENIED"
	EventHierarchyViolation      = "HIERARCHY_VIOLATION"
	EventSessionValidationFailed = "SESSION_VALIDATION_FAILED"
	EventHighThreatUserBlocked   = "HIGH_THREAT_USER_BLOCKED"
	EventMiddlewareError         = "MIDDLEWARE_ERROR"
)

// SecurityEvent is the immutable record of one pipeline decision point.
// Ownership transfers to the audit sink on emission.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Severity  Severity          `json:"severity"`
	IP        string            `json:"ip,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	Endpoint  string            `json:"endpoint,omitempty"`
	Method    string            `json:"method,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// AuditSink receives emitted security events.
type AuditSink interface {
	Emit(ctx context.Context, event SecurityEvent)
}

// NoOpSink drops security events.
type NoOpSink struct{}

// Emit implements [AuditSink].
func (NoOpSink) Emit(context.Context, SecurityEvent) {}

// ChannelSink writes security events into a buffered channel.
type ChannelSink struct {
	events chan SecurityEvent
}

// NewChannelSink creates a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan SecurityEvent, buffer),
	}
}

// Emit implements [AuditSink].
func (s *ChannelSink) Emit(ctx context.Context, event SecurityEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events exposes the receiving side of the sink.
func (s *ChannelSink) Events() <-chan SecurityEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink creates a line-delimited JSON sink over w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

// Emit implements [AuditSink]. Marshal or write failures are swallowed:
// observability must never become an availability hazard.
func (s *JSONWriterSink) Emit(_ context.Context, event SecurityEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
