package v1

import (
	"errors"
	"net/http"

	"github.com/tinoosan/uniquefile/internal/data"
)

var (
	ErrContentType = errors.New("Content-Type must be application/json")
	ErrMissingFile = errors.New(`multipart field "file" is required`)
)

// writeError records err for the access log and maps it onto a status code.
func writeError(w http.ResponseWriter, err error) {
	markErr(w, err)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, data.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, data.ErrPermissionDenied):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, data.ErrDeletionBlocked):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, data.ErrUnreadable):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, data.ErrInvalidName), errors.Is(err, ErrMissingFile):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrContentType):
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
	case errors.As(err, &tooLarge):
		http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
