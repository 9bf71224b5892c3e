package v1

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/tinoosan/uniquefile/internal/data"
	"github.com/tinoosan/uniquefile/internal/reqid"
	"github.com/tinoosan/uniquefile/internal/service"
)

// DefaultMaxUpload caps request bodies when no limit is configured.
const DefaultMaxUpload int64 = 64 << 20

type AttachmentHandler struct {
	l         *slog.Logger
	svc       service.Attachment
	tmpDir    string
	maxUpload int64
}

type rwLogger struct {
	http.ResponseWriter
	status int
	bytes  int
	err    error
}

func (w *rwLogger) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *rwLogger) SetErr(err error) {
	w.err = err
}

func (w *rwLogger) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

type errorSetter interface {
	SetErr(error)
}

func markErr(w http.ResponseWriter, err error) {
	if es, ok := w.(errorSetter); ok {
		es.SetErr(err)
	}
}

// NewAttachmentHandler builds the upload handlers. Payloads are spooled into
// tmpDir before the service moves them into the uploads tree.
func NewAttachmentHandler(l *slog.Logger, svc service.Attachment, tmpDir string, maxUpload int64) *AttachmentHandler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &AttachmentHandler{l: l, svc: svc, tmpDir: tmpDir, maxUpload: maxUpload}
}

func (h *AttachmentHandler) GetAttachments(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &list)
}

func (h *AttachmentHandler) GetAttachment(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AttachmentHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	src, hdr, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, err)
			return
		}
		writeError(w, ErrMissingFile)
		return
	}
	defer src.Close()

	tmp, err := os.CreateTemp(h.tmpDir, "upload-*")
	if err != nil {
		writeError(w, err)
		return
	}
	// The service moves the payload on success; this only cleans up failures.
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		writeError(w, err)
		return
	}
	if err := tmp.Close(); err != nil {
		writeError(w, err)
		return
	}

	a, err := h.svc.Upload(r.Context(), data.UploadRequest{TmpPath: tmp.Name(), Name: hdr.Filename})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/attachments/"+a.ID)
	writeJSON(w, http.StatusCreated, a)
}

func (h *AttachmentHandler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			markErr(w, err)
			http.Error(w, "force must be a boolean", http.StatusBadRequest)
			return
		}
		force = b
	}
	if err := h.svc.Delete(r.Context(), id, force); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Log writes one access log line per request, at error level when a
// handler marked the response with an error.
func (h *AttachmentHandler) Log(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		rw := &rwLogger{ResponseWriter: w}
		next.ServeHTTP(rw, r)
		if rw.status == 0 {
			rw.status = http.StatusOK
		}
		l := reqid.Logger(r.Context(), h.l)
		attrs := []any{
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.status,
			"remote", r.RemoteAddr,
			"ua", r.UserAgent(),
			"dur_ms", time.Since(startTime).Milliseconds(),
			"bytes", rw.bytes,
		}
		if rw.err != nil {
			l.Error(rw.err.Error(), attrs...)
			return
		}
		l.Info("", attrs...)
	})
}
