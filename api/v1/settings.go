package v1

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/tinoosan/uniquefile/internal/settings"
)

type settingsBody settings.Flags

func (b *settingsBody) ToJSON(w io.Writer) error { return json.NewEncoder(w).Encode(b) }

type SettingsHandler struct {
	l   *slog.Logger
	mgr *settings.Manager
}

func NewSettingsHandler(l *slog.Logger, mgr *settings.Manager) *SettingsHandler {
	return &SettingsHandler{l: l, mgr: mgr}
}

func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	f, err := h.mgr.Flags(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	b := settingsBody(f)
	writeJSON(w, http.StatusOK, &b)
}

// UpdateSettings replaces all flags. A field missing from the body is
// written as disabled, the way an unticked checkbox is.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body settingsBody
	if err := decodeJSONStrict(w, r, &body, 1<<20); err != nil {
		if err == ErrContentType {
			writeError(w, err)
			return
		}
		markErr(w, err)
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	f, err := h.mgr.Update(r.Context(), settings.Flags(body))
	if err != nil {
		writeError(w, err)
		return
	}
	out := settingsBody(f)
	writeJSON(w, http.StatusOK, &out)
}
