package guard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/tinoosan/uniquefile/internal/data"
)

type stubResolver struct {
	file, url       string
	fileErr, urlErr error
	urlCalls        int
}

func (s *stubResolver) StoredFile(ctx context.Context, id string) (string, error) {
	return s.file, s.fileErr
}

func (s *stubResolver) PublicURL(ctx context.Context, id string) (string, error) {
	s.urlCalls++
	return s.url, s.urlErr
}

func newGuard(r Resolver) *Guard {
	return New(r, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestMayDelete(t *testing.T) {
	tests := []struct {
		name   string
		res    *stubResolver
		intent bool
		want   bool
	}{
		{"file metadata blocks", &stubResolver{file: "2026/10/abc.jpg"}, true, false},
		{"url blocks", &stubResolver{url: "https://example.com/abc.jpg"}, true, false},
		{"both block", &stubResolver{file: "abc.jpg", url: "https://example.com/abc.jpg"}, true, false},
		{"file metadata with intent false", &stubResolver{file: "2026/10/abc.jpg"}, false, false},
		{"url with intent false", &stubResolver{url: "https://example.com/abc.jpg"}, false, false},
		{"both with intent false", &stubResolver{file: "abc.jpg", url: "https://example.com/abc.jpg"}, false, false},
		{"unreferenced passes intent true", &stubResolver{}, true, true},
		{"unreferenced passes intent false", &stubResolver{}, false, false},
		{"missing record passes intent", &stubResolver{fileErr: data.ErrNotFound, urlErr: data.ErrNotFound}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, force := range []bool{false, true} {
				got, err := newGuard(tt.res).MayDelete(context.Background(), tt.intent, "id-1", force)
				if err != nil {
					t.Fatalf("MayDelete: %v", err)
				}
				if got != tt.want {
					t.Fatalf("force=%v: expected %v got %v", force, tt.want, got)
				}
			}
		})
	}
}

func TestMayDeleteShortCircuitsOnFile(t *testing.T) {
	res := &stubResolver{file: "abc.jpg"}
	if ok, _ := newGuard(res).MayDelete(context.Background(), true, "id", false); ok {
		t.Fatalf("expected deletion to be blocked")
	}
	if res.urlCalls != 0 {
		t.Fatalf("url lookup should be skipped, got %d calls", res.urlCalls)
	}
}

func TestMayDeleteLookupErrorDenies(t *testing.T) {
	boom := errors.New("db down")
	for _, res := range []*stubResolver{{fileErr: boom}, {urlErr: boom}} {
		ok, err := newGuard(res).MayDelete(context.Background(), true, "id", false)
		if ok {
			t.Fatalf("expected deletion denied on lookup error")
		}
		if !errors.Is(err, boom) {
			t.Fatalf("expected wrapped lookup error, got %v", err)
		}
	}
}
