package gatekeeper

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// blockingSink holds every Emit until released, to exercise backpressure.
type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Emit(_ context.Context, _ SecurityEvent) {
	<-s.release
}

func TestDispatcherDeliversEvents(t *testing.T) {
	sink := NewChannelSink(8)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8}, sink)
	defer d.Close()

	d.Emit(context.Background(), SecurityEvent{
		EventType: EventRateLimitExceeded,
		Severity:  SeverityMedium,
		IP:        "1.2.3.4",
	})

	select {
	case got := <-sink.Events():
		if got.EventType != EventRateLimitExceeded || got.IP != "1.2.3.4" {
			t.Fatalf("delivered event = %+v, want emitted event", got)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered within 1s")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// First event occupies the worker, second fills the buffer; the rest
	// must drop rather than stall the caller.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), SecurityEvent{EventType: EventAuthInvalid})
	}

	if d.Dropped() == 0 {
		t.Fatal("no events dropped with a full buffer and DropIfFull set")
	}

	close(sink.release)
	d.Close()
}

func TestDispatcherCloseDrainsBuffer(t *testing.T) {
	sink := NewChannelSink(16)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), SecurityEvent{EventType: EventAuthMissing})
	}
	d.Close()

	delivered := 0
	for {
		select {
		case <-sink.Events():
			delivered++
		default:
			if delivered != 5 {
				t.Fatalf("delivered %d events after Close, want 5", delivered)
			}
			return
		}
	}
}

func TestDispatcherEmitAfterCloseIsNoOp(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4}, NoOpSink{})
	d.Close()

	// Must not panic or block.
	d.Emit(context.Background(), SecurityEvent{EventType: EventAuthInvalid})
	d.Close()
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("disabled config produced a live dispatcher")
	}

	// All methods tolerate the nil receiver.
	d.Emit(context.Background(), SecurityEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

func TestJSONWriterSinkWritesOneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), SecurityEvent{
		Timestamp: time.Now(),
		EventType: EventCORSViolation,
		Severity:  SeverityMedium,
		IP:        "1.2.3.4",
		Endpoint:  "/api/data",
		Method:    "GET",
		Details:   map[string]string{"origin": "https://evil.example"},
	})
	sink.Emit(context.Background(), SecurityEvent{
		Timestamp: time.Now(),
		EventType: EventAuthBlocked,
		Severity:  SeverityHigh,
		IP:        "1.2.3.4",
	})

	scanner := bufio.NewScanner(&buf)
	lines := 0
	for scanner.Scan() {
		var ev SecurityEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
		lines++
	}
	if lines != 2 {
		t.Fatalf("wrote %d lines, want 2", lines)
	}
}

func TestChannelSinkHonorsContext(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Emit(context.Background(), SecurityEvent{EventType: EventAuthMissing})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		sink.Emit(ctx, SecurityEvent{EventType: EventAuthInvalid})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full channel despite cancelled context")
	}
}

func TestZapSinkMapsSeverityToLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewZapSink(zap.New(core))

	cases := []struct {
		severity Severity
		want     zapcore.Level
	}{
		{SeverityLow, zapcore.InfoLevel},
		{SeverityMedium, zapcore.WarnLevel},
		{SeverityHigh, zapcore.ErrorLevel},
		{SeverityCritical, zapcore.ErrorLevel},
	}
	for i, tc := range cases {
		sink.Emit(context.Background(), SecurityEvent{
			EventType: EventAuthInvalid,
			Severity:  tc.severity,
			IP:        "1.2.3.4",
		})
		entries := logs.TakeAll()
		if len(entries) != 1 {
			t.Fatalf("case %d: logged %d entries, want 1", i, len(entries))
		}
		if entries[0].Level != tc.want {
			t.Errorf("severity %s logged at %s, want %s", tc.severity, entries[0].Level, tc.want)
		}
	}
}

func TestZapSinkFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewZapSink(zap.New(core))

	sink.Emit(context.Background(), SecurityEvent{
		EventType: EventRateLimitExceeded,
		Severity:  SeverityLow,
		IP:        "1.2.3.4",
		Endpoint:  "/api/orders",
		Method:    "GET",
		Details:   map[string]string{"limit": "100"},
	})

	entries := logs.TakeAll()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["event_type"] != EventRateLimitExceeded {
		t.Errorf("event_type = %v", fields["event_type"])
	}
	if fields["detail_limit"] != "100" {
		t.Errorf("detail_limit = %v", fields["detail_limit"])
	}
	if _, ok := fields["user_id"]; ok {
		t.Error("user_id field present for anonymous event")
	}
}

func TestZapSinkNilLoggerDropsEvents(t *testing.T) {
	sink := NewZapSink(nil)
	sink.Emit(context.Background(), SecurityEvent{EventType: EventAuthInvalid})
}
