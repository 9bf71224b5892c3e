package data

import "path/filepath"

// UploadRequest is one incoming upload: the payload sits at TmpPath and
// Name is the client-supplied filename. The pre-upload stage replaces Name.
type UploadRequest struct {
	TmpPath string
	Name    string
}

// StoredFile describes where a payload ended up.
type StoredFile struct {
	Name string
	Ext  string
	Dir  string
}

func (f StoredFile) Path() string { return filepath.Join(f.Dir, f.Name) }

// UploadsLocation is the host's description of the upload target for a
// single resolution: the current directory and URL plus their bases.
type UploadsLocation struct {
	Path    string `json:"path"`
	URL     string `json:"url"`
	BaseDir string `json:"basedir"`
	BaseURL string `json:"baseurl"`
}
