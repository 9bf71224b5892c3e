package data

import (
	"encoding/json"
	"io"
	"time"
)

// Attachment is the host's logical record for an uploaded file. Several
// attachments may point at the same physical file once names are derived
// from content.
type Attachment struct {
	ID           string    `json:"id"`
	File         string    `json:"file,omitempty"`
	URL          string    `json:"url,omitempty"`
	// BaseDir is the uploads root File was stored under. It is fixed at
	// upload time so later settings changes cannot move the file.
	BaseDir      string    `json:"-"`
	Fingerprint  string    `json:"fingerprint,omitempty"`
	OriginalName string    `json:"originalName"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"createdAt"`
	Deduplicated bool      `json:"deduplicated,omitempty"`
}

type Attachments []*Attachment

func (a *Attachments) ToJSON(w io.Writer) error { return json.NewEncoder(w).Encode(a) }

func (a *Attachment) ToJSON(w io.Writer) error { return json.NewEncoder(w).Encode(a) }

// Clone returns a copy safe to hand out of a repository.
func (a *Attachment) Clone() *Attachment {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

func (as Attachments) Clone() Attachments {
	out := make(Attachments, 0, len(as))
	for _, a := range as {
		out = append(out, a.Clone())
	}
	return out
}
