package gatekeeper

import (
	"context"

	"go.uber.org/zap"
)

// ZapSink forwards security events to a zap logger, mapping event severity
// onto log levels so existing alerting on zap output picks them up.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates a sink over the given logger. A nil logger yields a
// sink that drops events.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger}
}

// Emit implements [AuditSink].
func (s *ZapSink) Emit(_ context.Context, event SecurityEvent) {
	if s == nil || s.logger == nil {
		return
	}

	fields := []zap.Field{
		zap.Time("timestamp", event.Timestamp),
		zap.String("event_type", event.EventType),
		zap.String("severity", string(event.Severity)),
		zap.String("ip", event.IP),
		zap.String("endpoint", event.Endpoint),
		zap.String("method", event.Method),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	switch event.Severity {
	case SeverityLow:
		s.logger.Info("security event", fields...)
	case SeverityMedium:
		s.logger.Warn("security event", fields...)
	default:
		s.logger.Error("security event", fields...)
	}
}
