// Package naming derives content-addressed file names.
//
// A canonical name is the payload fingerprint followed by the original
// extension. StripSuffix undoes the host's "-N" collision suffix so that
// identical content always lands on the same name.
package naming

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tinoosan/uniquefile/internal/data"
)

// suffixPattern splits a proposed filename into a prefix, an optional
// trailing "-<digits>" group and an optional trailing extension. The prefix
// is lazy, so a hyphen-digit run directly before the extension is always
// treated as a collision suffix, even when it is part of the real name.
var suffixPattern = regexp.MustCompile(`^(.*?)(-\d+)?(\..+?)?$`)

// Ext returns the extension of the base name of name without the dot, or
// "" when there is none.
func Ext(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

// DotExt is Ext with a leading dot, or "" for extensionless names.
func DotExt(name string) string {
	if ext := Ext(name); ext != "" {
		return "." + ext
	}
	return ""
}

// NameFor returns the canonical name for content with the given
// fingerprint uploaded as original.
func NameFor(original, fingerprint string) string {
	return fingerprint + DotExt(original)
}

// StripSuffix removes a trailing "-<digits>" group and extension from
// filename and appends ext, which carries its own leading dot or is empty.
// "abc-2.jpg" with ".jpg" becomes "abc.jpg". When filename does not parse
// it is returned unchanged together with data.ErrPatternMismatch.
func StripSuffix(filename, ext string) (string, error) {
	m := suffixPattern.FindStringSubmatch(filename)
	if m == nil {
		return filename, fmt.Errorf("%w: %q", data.ErrPatternMismatch, filename)
	}
	return m[1] + ext, nil
}
