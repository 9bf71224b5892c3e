// Package settings holds the option keys that switch the four behaviours on
// and off, plus the host-owned dated-subfolder toggle.
//
// Options are persisted as strings. Plugin flags are enabled only by the
// exact value "true"; the host toggle uses "1" and "0". A key that has never
// been written reads as enabled.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tinoosan/uniquefile/internal/auth"
	"github.com/tinoosan/uniquefile/internal/data"
)

// SchemaVersion is stored under KeyVersion. Defaults are re-added whenever
// the stored value differs.
const SchemaVersion = "1.0.0"

const (
	KeyVersion             = "uniquefile.version"
	KeyRenameByFingerprint = "uniquefile.rename_by_fingerprint"
	KeyEnforceSingleCopy   = "uniquefile.enforce_single_copy"
	KeyStripSiteSegment    = "uniquefile.strip_site_segment"
	KeyPreventDeletion     = "uniquefile.prevent_deletion"
	KeyUseDateSubfolders   = "uploads.use_date_subfolders"
)

// Store is the host's key/value option table.
type Store interface {
	// GetOption returns data.ErrNotFound for a key that was never written.
	GetOption(ctx context.Context, key string) (string, error)
	// AddOption writes value only if key is absent.
	AddOption(ctx context.Context, key, value string) error
	// SetOptions upserts all values in a single transaction.
	SetOptions(ctx context.Context, values map[string]string, updatedBy string) error
}

// Flags is a read-only snapshot of the options taken at the start of an
// operation.
type Flags struct {
	RenameByFingerprint bool `json:"renameByFingerprint"`
	EnforceSingleCopy   bool `json:"enforceSingleCopy"`
	StripSiteSegment    bool `json:"stripSiteSegment"`
	PreventDeletion     bool `json:"preventDeletion"`
	UseDateSubfolders   bool `json:"useDateSubfolders"`
}

// Defaults returns every behaviour enabled.
func Defaults() Flags {
	return Flags{
		RenameByFingerprint: true,
		EnforceSingleCopy:   true,
		StripSiteSegment:    true,
		PreventDeletion:     true,
		UseDateSubfolders:   true,
	}
}

func formatFlag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatHostFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Values encodes f as the option values written on a settings submission.
func (f Flags) Values() map[string]string {
	return map[string]string{
		KeyRenameByFingerprint: formatFlag(f.RenameByFingerprint),
		KeyEnforceSingleCopy:   formatFlag(f.EnforceSingleCopy),
		KeyStripSiteSegment:    formatFlag(f.StripSiteSegment),
		KeyPreventDeletion:     formatFlag(f.PreventDeletion),
		KeyUseDateSubfolders:   formatHostFlag(f.UseDateSubfolders),
	}
}

// EnsureDefaults records SchemaVersion and adds any missing option with its
// enabled value. Existing values are never overwritten.
func EnsureDefaults(ctx context.Context, s Store) error {
	v, err := s.GetOption(ctx, KeyVersion)
	if err != nil && !errors.Is(err, data.ErrNotFound) {
		return fmt.Errorf("read %s: %w", KeyVersion, err)
	}
	if v == SchemaVersion {
		return nil
	}
	if err := s.SetOptions(ctx, map[string]string{KeyVersion: SchemaVersion}, "system"); err != nil {
		return fmt.Errorf("write %s: %w", KeyVersion, err)
	}
	for k, val := range Defaults().Values() {
		if err := s.AddOption(ctx, k, val); err != nil {
			return fmt.Errorf("add %s: %w", k, err)
		}
	}
	return nil
}

// Load reads a Flags snapshot from s.
func Load(ctx context.Context, s Store) (Flags, error) {
	var f Flags
	read := func(key, enabled string) (bool, error) {
		v, err := s.GetOption(ctx, key)
		if errors.Is(err, data.ErrNotFound) {
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("read %s: %w", key, err)
		}
		return v == enabled, nil
	}
	var err error
	if f.RenameByFingerprint, err = read(KeyRenameByFingerprint, "true"); err != nil {
		return Flags{}, err
	}
	if f.EnforceSingleCopy, err = read(KeyEnforceSingleCopy, "true"); err != nil {
		return Flags{}, err
	}
	if f.StripSiteSegment, err = read(KeyStripSiteSegment, "true"); err != nil {
		return Flags{}, err
	}
	if f.PreventDeletion, err = read(KeyPreventDeletion, "true"); err != nil {
		return Flags{}, err
	}
	if f.UseDateSubfolders, err = read(KeyUseDateSubfolders, "1"); err != nil {
		return Flags{}, err
	}
	return f, nil
}

// Manager serves the settings form: reading the current flags and writing
// a full submission.
type Manager struct {
	store Store
	log   *slog.Logger
}

func NewManager(store Store, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{store: store, log: log.With("component", "settings")}
}

func (m *Manager) Flags(ctx context.Context) (Flags, error) {
	return Load(ctx, m.store)
}

// Update writes all five options from f. The caller's role must be allowed
// to manage options; otherwise data.ErrPermissionDenied is returned and
// nothing is written.
func (m *Manager) Update(ctx context.Context, f Flags) (Flags, error) {
	role := auth.RoleFrom(ctx)
	if !role.CanManageOptions() {
		return Flags{}, fmt.Errorf("update settings: %w", data.ErrPermissionDenied)
	}
	if err := m.store.SetOptions(ctx, f.Values(), string(role)); err != nil {
		return Flags{}, fmt.Errorf("update settings: %w", err)
	}
	m.log.Info("settings updated",
		"rename_by_fingerprint", f.RenameByFingerprint,
		"enforce_single_copy", f.EnforceSingleCopy,
		"strip_site_segment", f.StripSiteSegment,
		"prevent_deletion", f.PreventDeletion,
		"use_date_subfolders", f.UseDateSubfolders,
	)
	return Load(ctx, m.store)
}
