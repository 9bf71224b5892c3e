package settings

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/tinoosan/uniquefile/internal/auth"
	"github.com/tinoosan/uniquefile/internal/data"
	"github.com/tinoosan/uniquefile/internal/repo"
)

type failingStore struct {
	*repo.InMemoryOptionRepo
	setErr error
}

func (f *failingStore) SetOptions(ctx context.Context, values map[string]string, updatedBy string) error {
	return f.setErr
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestLoadMissingKeysAreEnabled(t *testing.T) {
	f, err := Load(context.Background(), repo.NewInMemoryOptionRepo())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f != Defaults() {
		t.Fatalf("expected defaults, got %+v", f)
	}
}

func TestLoadEncodings(t *testing.T) {
	ctx := context.Background()
	s := repo.NewInMemoryOptionRepo()
	_ = s.SetOptions(ctx, map[string]string{
		KeyRenameByFingerprint: "true",
		KeyEnforceSingleCopy:   "TRUE",
		KeyStripSiteSegment:    "1",
		KeyPreventDeletion:     "false",
		KeyUseDateSubfolders:   "0",
	}, "test")
	f, err := Load(ctx, s)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Flags{RenameByFingerprint: true}
	if f != want {
		t.Fatalf("expected %+v got %+v", want, f)
	}
}

func TestEnsureDefaults(t *testing.T) {
	ctx := context.Background()
	s := repo.NewInMemoryOptionRepo()
	_ = s.SetOptions(ctx, map[string]string{KeyPreventDeletion: "false"}, "admin")

	if err := EnsureDefaults(ctx, s); err != nil {
		t.Fatalf("EnsureDefaults: %v", err)
	}
	if v, _ := s.GetOption(ctx, KeyVersion); v != SchemaVersion {
		t.Fatalf("expected version %q got %q", SchemaVersion, v)
	}
	if v, _ := s.GetOption(ctx, KeyRenameByFingerprint); v != "true" {
		t.Fatalf("expected default true got %q", v)
	}
	if v, _ := s.GetOption(ctx, KeyUseDateSubfolders); v != "1" {
		t.Fatalf("expected host default 1 got %q", v)
	}
	if v, _ := s.GetOption(ctx, KeyPreventDeletion); v != "false" {
		t.Fatalf("existing value overwritten: %q", v)
	}

	// Same version: nothing is re-added.
	_ = s.SetOptions(ctx, map[string]string{KeyRenameByFingerprint: "false"}, "admin")
	if err := EnsureDefaults(ctx, s); err != nil {
		t.Fatalf("EnsureDefaults: %v", err)
	}
	if v, _ := s.GetOption(ctx, KeyRenameByFingerprint); v != "false" {
		t.Fatalf("expected false to survive, got %q", v)
	}
}

func TestManagerUpdate(t *testing.T) {
	ctx := auth.WithRole(context.Background(), auth.RoleAdmin)
	s := repo.NewInMemoryOptionRepo()
	m := NewManager(s, discard())

	want := Flags{RenameByFingerprint: true, UseDateSubfolders: false, PreventDeletion: true}
	got, err := m.Update(ctx, want)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v got %+v", want, got)
	}
	if v, _ := s.GetOption(ctx, KeyEnforceSingleCopy); v != "false" {
		t.Fatalf("unchecked flag should be written as false, got %q", v)
	}
	if v, _ := s.GetOption(ctx, KeyUseDateSubfolders); v != "0" {
		t.Fatalf("expected host encoding 0, got %q", v)
	}
}

func TestManagerUpdatePermissionDenied(t *testing.T) {
	for _, role := range []auth.Role{auth.RoleNone, auth.RoleEditor} {
		s := repo.NewInMemoryOptionRepo()
		m := NewManager(s, discard())
		ctx := auth.WithRole(context.Background(), role)
		if _, err := m.Update(ctx, Flags{}); !errors.Is(err, data.ErrPermissionDenied) {
			t.Fatalf("role %q: expected ErrPermissionDenied got %v", role, err)
		}
		if _, err := s.GetOption(ctx, KeyRenameByFingerprint); !errors.Is(err, data.ErrNotFound) {
			t.Fatalf("role %q: nothing should be written", role)
		}
	}
}

func TestManagerUpdateStoreError(t *testing.T) {
	boom := errors.New("tx aborted")
	m := NewManager(&failingStore{InMemoryOptionRepo: repo.NewInMemoryOptionRepo(), setErr: boom}, discard())
	ctx := auth.WithRole(context.Background(), auth.RoleAdmin)
	if _, err := m.Update(ctx, Defaults()); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
