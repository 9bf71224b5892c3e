// Package pipeline runs the four dedup stages in the order the host calls
// them: PreUpload, UniquifyName, ResolvePath and PreDelete.
//
// A Pipeline is built per operation from a settings.Flags snapshot. Each
// stage checks its own flag and hands its input back untouched when the
// behaviour is switched off.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/tinoosan/uniquefile/internal/data"
	"github.com/tinoosan/uniquefile/internal/fp"
	"github.com/tinoosan/uniquefile/internal/guard"
	"github.com/tinoosan/uniquefile/internal/metrics"
	"github.com/tinoosan/uniquefile/internal/naming"
	"github.com/tinoosan/uniquefile/internal/reqid"
	"github.com/tinoosan/uniquefile/internal/settings"
	"github.com/tinoosan/uniquefile/internal/uploadpath"
)

const (
	StagePreUpload    = "pre_upload"
	StageUniquifyName = "uniquify_name"
	StageResolvePath  = "resolve_path"
	StagePreDelete    = "pre_delete"
)

type Pipeline struct {
	flags settings.Flags
	alg   fp.Algorithm
	guard *guard.Guard
	log   *slog.Logger
}

func New(flags settings.Flags, alg fp.Algorithm, g *guard.Guard, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{flags: flags, alg: alg, guard: g, log: log}
}

// Flags returns the snapshot the pipeline was built with.
func (p *Pipeline) Flags() settings.Flags { return p.flags }

func observe(stage, outcome string) {
	metrics.StageOutcomes.WithLabelValues(stage, outcome).Inc()
}

// PreUpload replaces req.Name with the fingerprint of the payload plus the
// original extension. A payload that cannot be read aborts the upload.
func (p *Pipeline) PreUpload(ctx context.Context, req data.UploadRequest) (data.UploadRequest, error) {
	if !p.flags.RenameByFingerprint {
		observe(StagePreUpload, "disabled")
		return req, nil
	}
	start := time.Now()
	sum, err := fp.FingerprintFile(req.TmpPath, p.alg)
	metrics.FingerprintLatency.WithLabelValues(string(p.alg)).Observe(time.Since(start).Seconds())
	if err != nil {
		observe(StagePreUpload, "error")
		return req, err
	}
	name := naming.NameFor(req.Name, sum)
	reqid.Logger(ctx, p.log).Debug("renamed upload", "original", req.Name, "name", name)
	req.Name = name
	observe(StagePreUpload, "renamed")
	return req, nil
}

// UniquifyName collapses the host's disambiguated proposal back onto the
// undecorated name so identical content keeps a single file.
func (p *Pipeline) UniquifyName(ctx context.Context, filename, ext string) string {
	if !p.flags.EnforceSingleCopy {
		observe(StageUniquifyName, "disabled")
		return filename
	}
	out, err := naming.StripSuffix(filename, ext)
	if err != nil {
		reqid.Logger(ctx, p.log).Warn("filename left unchanged", "filename", filename, "err", err)
		observe(StageUniquifyName, "mismatch")
		return filename
	}
	if out != filename {
		observe(StageUniquifyName, "collapsed")
	} else {
		observe(StageUniquifyName, "unchanged")
	}
	return out
}

// ResolvePath strips the site segment from loc.
func (p *Pipeline) ResolvePath(ctx context.Context, loc data.UploadsLocation) data.UploadsLocation {
	if !p.flags.StripSiteSegment {
		observe(StageResolvePath, "disabled")
		return loc
	}
	out := uploadpath.Normalize(loc)
	if out != loc {
		observe(StageResolvePath, "stripped")
	} else {
		observe(StageResolvePath, "unchanged")
	}
	return out
}

// PreDelete returns the host's deletion intent, overridden to false while
// the attachment is still reachable.
func (p *Pipeline) PreDelete(ctx context.Context, intent bool, id string, force bool) (bool, error) {
	if !p.flags.PreventDeletion || p.guard == nil {
		observe(StagePreDelete, "disabled")
		return intent, nil
	}
	ok, err := p.guard.MayDelete(ctx, intent, id, force)
	switch {
	case err != nil:
		observe(StagePreDelete, "error")
	case ok:
		observe(StagePreDelete, "allowed")
	default:
		observe(StagePreDelete, "blocked")
	}
	return ok, err
}
