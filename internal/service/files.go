package service

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// fileMode is applied to every stored file so the uploads tree can be served
// by a separate static file server.
const fileMode fs.FileMode = 0o644

// place moves src to dst, creating parent directories. An existing dst is
// replaced; existed reports whether it was there before.
func place(src, dst string) (existed bool, err error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, err
	}
	existed = exists(dst)
	if err := os.Rename(src, dst); err == nil {
		return existed, os.Chmod(dst, fileMode)
	}
	// Rename fails across filesystems; copy through a temp file in the
	// destination directory and rename that into place.
	in, err := os.Open(src)
	if err != nil {
		return existed, err
	}
	defer in.Close()
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return existed, err
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return existed, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return existed, err
	}
	if err := os.Chmod(tmp.Name(), fileMode); err != nil {
		os.Remove(tmp.Name())
		return existed, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return existed, err
	}
	_ = os.Remove(src)
	return existed, nil
}

// removeUnder deletes base/rel and prunes directories it leaves empty. It
// refuses paths that escape base or name base itself.
func removeUnder(base, rel string) error {
	base = filepath.Clean(base)
	p := filepath.Clean(filepath.Join(base, filepath.FromSlash(rel)))
	baseWithSep := base
	if !strings.HasSuffix(baseWithSep, string(os.PathSeparator)) {
		baseWithSep += string(os.PathSeparator)
	}
	if p == base || !strings.HasPrefix(p, baseWithSep) {
		return fmt.Errorf("refusing to delete outside base: %s", p)
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	for d := filepath.Dir(p); d != base && strings.HasPrefix(d, baseWithSep); d = filepath.Dir(d) {
		if err := os.Remove(d); err != nil {
			// not empty, or already gone
			break
		}
	}
	return nil
}
