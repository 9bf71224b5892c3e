package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	v1 "github.com/tinoosan/uniquefile/api/v1"
	"github.com/tinoosan/uniquefile/internal/auth"
	"github.com/tinoosan/uniquefile/internal/service"
	"github.com/tinoosan/uniquefile/internal/settings"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	TmpDir    string
	MaxUpload int64
}

// New sets up the application routes and required middleware.
func New(logger *slog.Logger, attachmentSvc service.Attachment, settingsMgr *settings.Manager, store Pinger, opts Options) *mux.Router {

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			logger.Error("write healthz response", "err", err)
		}
	}).Methods("GET")

	r.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			logger.Warn("store not ready", "err", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	attachmentHandler := v1.NewAttachmentHandler(logger, attachmentSvc, opts.TmpDir, opts.MaxUpload)
	settingsHandler := v1.NewSettingsHandler(logger, settingsMgr)

	r.Use(v1.RequestID)
	r.Use(attachmentHandler.Log)
	r.Use(auth.Middleware)

	api := r.PathPrefix("/v1").Subrouter()

	// GETs
	get := api.Methods("GET").Subrouter()
	get.HandleFunc("/attachments", attachmentHandler.GetAttachments)
	get.HandleFunc("/attachments/{id}", attachmentHandler.GetAttachment)
	get.HandleFunc("/settings", settingsHandler.GetSettings)

	// POSTs
	post := api.Methods("POST").Subrouter()
	post.HandleFunc("/attachments", attachmentHandler.UploadAttachment)

	// PUTs
	put := api.Methods("PUT").Subrouter()
	put.HandleFunc("/settings", settingsHandler.UpdateSettings)

	// DELETEs
	del := api.Methods("DELETE").Subrouter()
	del.HandleFunc("/attachments/{id}", attachmentHandler.DeleteAttachment)

	return r
}
