package reqid

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestWithAndFrom(t *testing.T) {
	if _, ok := From(context.Background()); ok {
		t.Fatalf("expected no id on empty context")
	}
	ctx := With(context.Background(), "abc123")
	if got, ok := From(ctx); !ok || got != "abc123" {
		t.Fatalf("expected abc123, got %q %v", got, ok)
	}
	if _, ok := From(With(context.Background(), "")); ok {
		t.Fatalf("empty id must not be reported")
	}
}

func TestLoggerAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))
	Logger(With(context.Background(), "r-1"), l).Info("hello")
	if !strings.Contains(buf.String(), "request_id=r-1") {
		t.Fatalf("expected request_id in %q", buf.String())
	}
	buf.Reset()
	Logger(context.Background(), l).Info("hello")
	if strings.Contains(buf.String(), "request_id") {
		t.Fatalf("unexpected request_id in %q", buf.String())
	}
}
