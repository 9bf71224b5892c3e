// Package guard decides whether an attachment may be deleted while its
// physical file can be shared with other attachments.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tinoosan/uniquefile/internal/data"
)

// Resolver answers the two reachability questions for an attachment. Both
// return "" when nothing is recorded.
type Resolver interface {
	// StoredFile returns the recorded file location metadata.
	StoredFile(ctx context.Context, id string) (string, error)
	// PublicURL returns the address the content is served under.
	PublicURL(ctx context.Context, id string) (string, error)
}

type Guard struct {
	res Resolver
	log *slog.Logger
}

func New(res Resolver, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.Default()
	}
	return &Guard{res: res, log: log}
}

// MayDelete returns false when the attachment still has stored-file
// metadata or a public URL, and intent otherwise. force does not change the
// decision. A lookup failure denies deletion and is returned to the caller.
func (g *Guard) MayDelete(ctx context.Context, intent bool, id string, force bool) (bool, error) {
	file, err := g.res.StoredFile(ctx, id)
	if err != nil && !errors.Is(err, data.ErrNotFound) {
		return false, fmt.Errorf("resolve stored file %s: %w", id, err)
	}
	if file != "" {
		g.log.Info("deletion blocked", "id", id, "reason", "stored_file", "file", file, "force", force)
		return false, nil
	}
	url, err := g.res.PublicURL(ctx, id)
	if err != nil && !errors.Is(err, data.ErrNotFound) {
		return false, fmt.Errorf("resolve url %s: %w", id, err)
	}
	if url != "" {
		g.log.Info("deletion blocked", "id", id, "reason", "public_url", "url", url, "force", force)
		return false, nil
	}
	return intent, nil
}
