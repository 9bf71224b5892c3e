package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/tinoosan/uniquefile/internal/data"
	"github.com/tinoosan/uniquefile/internal/fp"
	"github.com/tinoosan/uniquefile/internal/guard"
	"github.com/tinoosan/uniquefile/internal/settings"
)

const emptyMD5 = "d41d8cd98f00b204e9800998ecf8427e"

type refs map[string]*data.Attachment

func (r refs) StoredFile(ctx context.Context, id string) (string, error) {
	if a, ok := r[id]; ok {
		return a.File, nil
	}
	return "", data.ErrNotFound
}

func (r refs) PublicURL(ctx context.Context, id string) (string, error) {
	if a, ok := r[id]; ok {
		return a.URL, nil
	}
	return "", data.ErrNotFound
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newPipeline(flags settings.Flags, r refs) *Pipeline {
	return New(flags, fp.MD5, guard.New(r, discard()), discard())
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPreUploadRenames(t *testing.T) {
	p := newPipeline(settings.Defaults(), nil)
	req := data.UploadRequest{TmpPath: writeTemp(t, "php123", ""), Name: "photo.jpg"}
	got, err := p.PreUpload(context.Background(), req)
	if err != nil {
		t.Fatalf("PreUpload: %v", err)
	}
	if got.Name != emptyMD5+".jpg" {
		t.Fatalf("expected %s.jpg got %s", emptyMD5, got.Name)
	}
	if got.TmpPath != req.TmpPath {
		t.Fatalf("payload location must not change")
	}
}

func TestPreUploadExtensionless(t *testing.T) {
	p := newPipeline(settings.Defaults(), nil)
	got, err := p.PreUpload(context.Background(), data.UploadRequest{TmpPath: writeTemp(t, "tmp", ""), Name: "README"})
	if err != nil {
		t.Fatalf("PreUpload: %v", err)
	}
	if got.Name != emptyMD5 {
		t.Fatalf("expected bare fingerprint, got %q", got.Name)
	}
}

func TestPreUploadSameContentSameName(t *testing.T) {
	p := newPipeline(settings.Defaults(), nil)
	a, _ := p.PreUpload(context.Background(), data.UploadRequest{TmpPath: writeTemp(t, "a", "bytes"), Name: "cat.png"})
	b, _ := p.PreUpload(context.Background(), data.UploadRequest{TmpPath: writeTemp(t, "b", "bytes"), Name: "kitten.png"})
	if a.Name != b.Name {
		t.Fatalf("expected same name, got %q and %q", a.Name, b.Name)
	}
}

func TestPreUploadUnreadable(t *testing.T) {
	p := newPipeline(settings.Defaults(), nil)
	_, err := p.PreUpload(context.Background(), data.UploadRequest{TmpPath: filepath.Join(t.TempDir(), "gone"), Name: "x.jpg"})
	if !errors.Is(err, data.ErrUnreadable) {
		t.Fatalf("expected ErrUnreadable got %v", err)
	}
}

func TestPreUploadDisabled(t *testing.T) {
	f := settings.Defaults()
	f.RenameByFingerprint = false
	p := newPipeline(f, nil)
	// The payload is never read when the stage is off.
	req := data.UploadRequest{TmpPath: filepath.Join(t.TempDir(), "gone"), Name: "x.jpg"}
	got, err := p.PreUpload(context.Background(), req)
	if err != nil || got != req {
		t.Fatalf("expected passthrough, got %+v %v", got, err)
	}
}

func TestUniquifyName(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(settings.Defaults(), nil)
	if got := p.UniquifyName(ctx, emptyMD5+"-2.jpg", ".jpg"); got != emptyMD5+".jpg" {
		t.Fatalf("expected collapse, got %q", got)
	}
	if got := p.UniquifyName(ctx, "bad\nname-1.jpg", ".jpg"); got != "bad\nname-1.jpg" {
		t.Fatalf("mismatch must leave name unchanged, got %q", got)
	}

	f := settings.Defaults()
	f.EnforceSingleCopy = false
	if got := newPipeline(f, nil).UniquifyName(ctx, "name-2.jpg", ".jpg"); got != "name-2.jpg" {
		t.Fatalf("disabled stage must pass through, got %q", got)
	}
}

func TestResolvePath(t *testing.T) {
	ctx := context.Background()
	loc := data.UploadsLocation{
		Path:    "/var/uploads/sites/42/2026/10",
		URL:     "http://x/uploads/sites/42/2026/10",
		BaseDir: "/var/uploads/sites/42",
		BaseURL: "http://x/uploads/sites/42",
	}
	got := newPipeline(settings.Defaults(), nil).ResolvePath(ctx, loc)
	if got.BaseDir != "/var/uploads" || got.Path != "/var/uploads/2026/10" {
		t.Fatalf("unexpected %+v", got)
	}

	f := settings.Defaults()
	f.StripSiteSegment = false
	if got := newPipeline(f, nil).ResolvePath(ctx, loc); got != loc {
		t.Fatalf("disabled stage must pass through, got %+v", got)
	}
}

func TestPreDelete(t *testing.T) {
	ctx := context.Background()
	r := refs{
		"used":   {ID: "used", File: "2026/10/abc.jpg", URL: "http://x/abc.jpg"},
		"urlful": {ID: "urlful", URL: "http://x/abc.jpg"},
		"bare":   {ID: "bare"},
	}
	p := newPipeline(settings.Defaults(), r)

	tests := []struct {
		id     string
		intent bool
		want   bool
	}{
		{"used", true, false},
		{"urlful", true, false},
		{"bare", true, true},
		{"bare", false, false},
	}
	for _, tt := range tests {
		got, err := p.PreDelete(ctx, tt.intent, tt.id, true)
		if err != nil {
			t.Fatalf("PreDelete(%s): %v", tt.id, err)
		}
		if got != tt.want {
			t.Fatalf("PreDelete(%s, %v): expected %v got %v", tt.id, tt.intent, tt.want, got)
		}
	}

	f := settings.Defaults()
	f.PreventDeletion = false
	if ok, _ := newPipeline(f, r).PreDelete(ctx, true, "used", false); !ok {
		t.Fatalf("disabled guard must pass intent through")
	}
}
