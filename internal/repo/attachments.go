package repo

import (
	"context"

	"github.com/tinoosan/uniquefile/internal/data"
)

type AttachmentRepo interface {
	AttachmentReader
	AttachmentWriter
	Ping(ctx context.Context) error
}

type AttachmentReader interface {
	List(ctx context.Context) (data.Attachments, error)
	Get(ctx context.Context, id string) (*data.Attachment, error)
	// CountByFile returns how many attachments record file under baseDir.
	CountByFile(ctx context.Context, baseDir, file string) (int, error)
}

type AttachmentWriter interface {
	// Add assigns a new ID and stores a copy of a.
	Add(ctx context.Context, a *data.Attachment) (*data.Attachment, error)
	Delete(ctx context.Context, id string) error
}

var (
	_ AttachmentRepo = (*InMemoryAttachmentRepo)(nil)
	_ AttachmentRepo = (*PostgresRepo)(nil)
)
