package v1

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// decodeJSONStrict checks an optional Content-Type, caps the body at maxBytes
// and decodes into dst, rejecting unknown fields.
func decodeJSONStrict(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return ErrContentType
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v interface{ ToJSON(w io.Writer) error }) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := v.ToJSON(w); err != nil {
		markErr(w, err)
	}
}
