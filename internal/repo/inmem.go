package repo

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tinoosan/uniquefile/internal/data"
)

type InMemoryAttachmentRepo struct {
	mu          sync.RWMutex
	attachments data.Attachments
}

func NewInMemoryAttachmentRepo() *InMemoryAttachmentRepo {
	return &InMemoryAttachmentRepo{
		attachments: make(data.Attachments, 0),
	}
}

func (r *InMemoryAttachmentRepo) Ping(ctx context.Context) error { return nil }

func (r *InMemoryAttachmentRepo) List(ctx context.Context) (data.Attachments, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.attachments.Clone(), nil
}

func (r *InMemoryAttachmentRepo) Get(ctx context.Context, id string) (*data.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexOf(id)
	if i < 0 {
		return nil, data.ErrNotFound
	}
	return r.attachments[i].Clone(), nil
}

func (r *InMemoryAttachmentRepo) CountByFile(ctx context.Context, baseDir, file string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, a := range r.attachments {
		if a.BaseDir == baseDir && a.File == file {
			n++
		}
	}
	return n, nil
}

func (r *InMemoryAttachmentRepo) Add(ctx context.Context, a *data.Attachment) (*data.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := a.Clone()
	c.ID = uuid.NewString()
	r.attachments = append(r.attachments, c)
	return c.Clone(), nil
}

func (r *InMemoryAttachmentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return data.ErrNotFound
	}
	r.attachments = append(r.attachments[:i], r.attachments[i+1:]...)
	return nil
}

func (r *InMemoryAttachmentRepo) indexOf(id string) int {
	for i, a := range r.attachments {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// InMemoryOptionRepo is a map-backed option table.
type InMemoryOptionRepo struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewInMemoryOptionRepo() *InMemoryOptionRepo {
	return &InMemoryOptionRepo{values: make(map[string]string)}
}

func (r *InMemoryOptionRepo) GetOption(ctx context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	if !ok {
		return "", data.ErrNotFound
	}
	return v, nil
}

func (r *InMemoryOptionRepo) AddOption(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.values[key]; !ok {
		r.values[key] = value
	}
	return nil
}

func (r *InMemoryOptionRepo) SetOptions(ctx context.Context, values map[string]string, updatedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range values {
		r.values[k] = v
	}
	return nil
}
