// Package uploadpath removes the per-site segment from an uploads location
// so every site of a multi-site install shares one uploads tree.
package uploadpath

import (
	"regexp"
	"strings"

	"github.com/tinoosan/uniquefile/internal/data"
)

// sitePattern captures an optional trailing "/sites/<digits>" or
// "/<digits>" segment of a base directory.
var sitePattern = regexp.MustCompile(`^(.*?)(/(sites/)?\d+)?$`)

// SiteSegment returns the trailing site segment of baseDir, e.g.
// "/sites/42" for "/var/uploads/sites/42".
func SiteSegment(baseDir string) (string, bool) {
	m := sitePattern.FindStringSubmatchIndex(baseDir)
	if m == nil || m[4] < 0 {
		return "", false
	}
	return baseDir[m[4]:m[5]], true
}

// Normalize removes the site segment found at the end of loc.BaseDir from
// all four fields, first occurrence only. Locations without a site segment
// are returned unchanged.
func Normalize(loc data.UploadsLocation) data.UploadsLocation {
	seg, ok := SiteSegment(loc.BaseDir)
	if !ok {
		return loc
	}
	loc.Path = strings.Replace(loc.Path, seg, "", 1)
	loc.URL = strings.Replace(loc.URL, seg, "", 1)
	loc.BaseDir = strings.Replace(loc.BaseDir, seg, "", 1)
	loc.BaseURL = strings.Replace(loc.BaseURL, seg, "", 1)
	return loc
}
