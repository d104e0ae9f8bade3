package audit

import (
	"context"
	"testing"
)

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Fatalf("request id = %q", got)
	}
}

func TestWithRequestIDIgnoresBlank(t *testing.T) {
	ctx := WithRequestID(context.Background(), "   ")
	if got := RequestIDFromContext(ctx); got != "" {
		t.Fatalf("blank request id stored: %q", got)
	}
}

func TestRequestIDFromBareContext(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("got %q from bare context", got)
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("blank event name accepted")
	}
}

func TestLogEvent(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	if err := LogEvent(ctx, "session.created", map[string]any{"organization_id": "org-1"}); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}
}
