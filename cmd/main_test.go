package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/tinoosan/uniquefile/internal/data"
	"github.com/tinoosan/uniquefile/internal/metrics"
	"github.com/tinoosan/uniquefile/internal/repo"
)

type failingReader struct{ repo.AttachmentReader }

func (failingReader) List(ctx context.Context) (data.Attachments, error) {
	return nil, errors.New("db down")
}

func TestSeedStoredAttachments(t *testing.T) {
	ctx := context.Background()
	r := repo.NewInMemoryAttachmentRepo()
	_, _ = r.Add(ctx, &data.Attachment{File: "a.jpg"})
	_, _ = r.Add(ctx, &data.Attachment{File: "b.jpg"})

	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))

	seedStoredAttachments(ctx, r, l)
	if got := testutil.ToFloat64(metrics.StoredAttachments); got != 2 {
		t.Fatalf("expected gauge 2, got %v", got)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no log output, got %q", buf.String())
	}

	seedStoredAttachments(ctx, failingReader{}, l)
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "db down") {
		t.Fatalf("expected warning with cause, got %q", out)
	}
}
