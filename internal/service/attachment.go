package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tinoosan/uniquefile/internal/auth"
	"github.com/tinoosan/uniquefile/internal/data"
	"github.com/tinoosan/uniquefile/internal/fp"
	"github.com/tinoosan/uniquefile/internal/guard"
	"github.com/tinoosan/uniquefile/internal/metrics"
	"github.com/tinoosan/uniquefile/internal/naming"
	"github.com/tinoosan/uniquefile/internal/pipeline"
	"github.com/tinoosan/uniquefile/internal/reqid"
	"github.com/tinoosan/uniquefile/internal/repo"
	"github.com/tinoosan/uniquefile/internal/settings"
)

type Attachment interface {
	List(ctx context.Context) (data.Attachments, error)
	Get(ctx context.Context, id string) (*data.Attachment, error)
	// Upload stores the payload at req.TmpPath and records an attachment.
	// The temp file is moved, not copied, when possible.
	Upload(ctx context.Context, req data.UploadRequest) (*data.Attachment, error)
	// Delete removes the attachment record. The physical file is removed
	// only when no other record points at it.
	Delete(ctx context.Context, id string, force bool) error
}

// Options configures where uploads land.
type Options struct {
	UploadsDir string
	UploadsURL string
	// SiteID > 0 places uploads under sites/<id>, as a multi-site host does.
	SiteID    int
	Algorithm fp.Algorithm
	// Now defaults to time.Now; tests pin it to get stable dated folders.
	Now func() time.Time
}

type attachment struct {
	repo  repo.AttachmentRepo
	opts  Options
	store settings.Store
	guard *guard.Guard
	log   *slog.Logger
}

func NewAttachment(r repo.AttachmentRepo, store settings.Store, opts Options, log *slog.Logger) Attachment {
	if log == nil {
		log = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Algorithm == "" {
		opts.Algorithm = fp.MD5
	}
	log = log.With("component", "attachments")
	return &attachment{
		repo:  r,
		opts:  opts,
		store: store,
		guard: guard.New(resolver{r: r}, log),
		log:   log,
	}
}

func (s *attachment) pipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	flags, err := settings.Load(ctx, s.store)
	if err != nil {
		return nil, err
	}
	return pipeline.New(flags, s.opts.Algorithm, s.guard, s.log), nil
}

func (s *attachment) List(ctx context.Context) (data.Attachments, error) {
	return s.repo.List(ctx)
}

func (s *attachment) Get(ctx context.Context, id string) (*data.Attachment, error) {
	return s.repo.Get(ctx, id)
}

func (s *attachment) Upload(ctx context.Context, req data.UploadRequest) (*data.Attachment, error) {
	original, err := cleanName(req.Name)
	if err != nil {
		metrics.Uploads.WithLabelValues("invalid").Inc()
		return nil, err
	}
	req.Name = original

	p, err := s.pipeline(ctx)
	if err != nil {
		return nil, err
	}
	req, err = p.PreUpload(ctx, req)
	if err != nil {
		metrics.Uploads.WithLabelValues("error").Inc()
		return nil, err
	}

	loc := p.ResolvePath(ctx, s.location(p.Flags().UseDateSubfolders))
	ext := naming.DotExt(req.Name)
	name := p.UniquifyName(ctx, proposeName(loc.Path, req.Name), ext)

	st, err := os.Stat(req.TmpPath)
	if err != nil {
		metrics.Uploads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", data.ErrUnreadable, err)
	}
	stored := data.StoredFile{Name: name, Ext: ext, Dir: loc.Path}
	dst := stored.Path()
	existed, err := place(req.TmpPath, dst)
	if err != nil {
		metrics.Uploads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("store %s: %w", name, err)
	}

	rel, err := filepath.Rel(loc.BaseDir, dst)
	if err != nil {
		rel = name
	}
	a := &data.Attachment{
		File:         filepath.ToSlash(rel),
		BaseDir:      loc.BaseDir,
		URL:          strings.TrimSuffix(loc.URL, "/") + "/" + name,
		OriginalName: original,
		Size:         st.Size(),
		CreatedAt:    s.opts.Now().UTC(),
	}
	// Only a content-derived name proves the existing file holds the same
	// bytes. Otherwise a same-named file was replaced.
	if p.Flags().RenameByFingerprint {
		a.Fingerprint = strings.TrimSuffix(req.Name, naming.DotExt(original))
		a.Deduplicated = existed
	}
	saved, err := s.repo.Add(ctx, a)
	if err != nil {
		metrics.Uploads.WithLabelValues("error").Inc()
		return nil, err
	}

	result := "stored"
	switch {
	case a.Deduplicated:
		result = "deduplicated"
	case existed:
		result = "replaced"
	}
	metrics.Uploads.WithLabelValues(result).Inc()
	metrics.StoredAttachments.Inc()
	reqid.Logger(ctx, s.log).Info("attachment stored",
		"id", saved.ID, "file", saved.File, "original", original, "result", result)
	return saved, nil
}

func (s *attachment) Delete(ctx context.Context, id string, force bool) error {
	if !auth.RoleFrom(ctx).CanDeleteFiles() {
		return fmt.Errorf("delete %s: %w", id, data.ErrPermissionDenied)
	}
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	p, err := s.pipeline(ctx)
	if err != nil {
		return err
	}
	ok, err := p.PreDelete(ctx, true, id, force)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("delete %s: %w", id, data.ErrDeletionBlocked)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	metrics.StoredAttachments.Dec()
	log := reqid.Logger(ctx, s.log)
	log.Info("attachment deleted", "id", id, "file", a.File)

	if a.File == "" {
		return nil
	}
	base := a.BaseDir
	if base == "" {
		base = p.ResolvePath(ctx, s.location(false)).BaseDir
	}
	n, err := s.repo.CountByFile(ctx, a.BaseDir, a.File)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info("file kept", "file", a.File, "references", n)
		return nil
	}
	return removeUnder(base, a.File)
}

// location builds the upload target the way the host does before any
// filter runs.
func (s *attachment) location(dated bool) data.UploadsLocation {
	dir := strings.TrimSuffix(s.opts.UploadsDir, "/")
	url := strings.TrimSuffix(s.opts.UploadsURL, "/")
	if s.opts.SiteID > 0 {
		site := "/sites/" + strconv.Itoa(s.opts.SiteID)
		dir += site
		url += site
	}
	loc := data.UploadsLocation{Path: dir, URL: url, BaseDir: dir, BaseURL: url}
	if dated {
		sub := s.opts.Now().UTC().Format("/2006/01")
		loc.Path += sub
		loc.URL += sub
	}
	return loc
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	name = path.Base(name)
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", fmt.Errorf("%q: %w", name, data.ErrInvalidName)
	}
	return name, nil
}

// proposeName returns the first of name, name-1, name-2, ... that is not
// already taken in dir.
func proposeName(dir, name string) string {
	ext := naming.DotExt(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 1; exists(filepath.Join(dir, candidate)); i++ {
		candidate = stem + "-" + strconv.Itoa(i) + ext
	}
	return candidate
}

// resolver answers guard lookups from the attachment records.
type resolver struct {
	r repo.AttachmentReader
}

func (rs resolver) StoredFile(ctx context.Context, id string) (string, error) {
	a, err := rs.r.Get(ctx, id)
	if errors.Is(err, data.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return a.File, nil
}

func (rs resolver) PublicURL(ctx context.Context, id string) (string, error) {
	a, err := rs.r.Get(ctx, id)
	if errors.Is(err, data.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return a.URL, nil
}
