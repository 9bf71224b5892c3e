package fp

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/tinoosan/uniquefile/internal/data"
	"github.com/zeebo/blake3"
)

// Algorithm names the digest used to fingerprint payloads. Changing it
// changes every canonical name, so it is fixed per deployment.
type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA256 Algorithm = "sha256"
	BLAKE3 Algorithm = "blake3"
)

// ParseAlgorithm converts a config string to an Algorithm. An empty string
// selects MD5.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case "", MD5:
		return MD5, nil
	case SHA256:
		return SHA256, nil
	case BLAKE3:
		return BLAKE3, nil
	default:
		return "", fmt.Errorf("unknown fingerprint algorithm %q", s)
	}
}

func (a Algorithm) newHash() hash.Hash {
	switch a {
	case SHA256:
		return sha256.New()
	case BLAKE3:
		return blake3.New()
	default:
		return md5.New()
	}
}

// Size returns the hex length of a fingerprint produced by a.
func (a Algorithm) Size() int { return a.newHash().Size() * 2 }

// Fingerprint hashes everything read from r and returns the lowercase hex
// digest. Read failures wrap data.ErrUnreadable.
func Fingerprint(r io.Reader, alg Algorithm) (string, error) {
	h := alg.newHash()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("%w: %v", data.ErrUnreadable, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FingerprintFile fingerprints the file at path.
func FingerprintFile(path string, alg Algorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", data.ErrUnreadable, err)
	}
	defer f.Close()
	return Fingerprint(f, alg)
}
