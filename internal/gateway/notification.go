package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chatsync/internal/engine"
	"github.com/chatsync/internal/logger"
	"github.com/chatsync/internal/model"
	"github.com/chatsync/internal/storage"
)

type NotificationHandler struct {
	eng      *engine.NotificationEngine
	settings storage.SettingsStore
}

func NewNotificationHandler(eng *engine.NotificationEngine, settings storage.SettingsStore) *NotificationHandler {
	return &NotificationHandler{eng: eng, settings: settings}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.List())
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"unreadCount": h.eng.UnreadCount()})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.eng.MarkAsRead(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	h.eng.MarkAllAsRead()
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.eng.Delete(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	h.eng.ClearAll()
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.GetNotificationSettings(r.Context())
	if err != nil {
		logger.Errorf("gateway get settings: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *NotificationHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var s model.NotificationSettings
	if err := decodeJSON(r, &s); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := h.settings.SetNotificationSettings(r.Context(), s); err != nil {
		logger.Errorf("gateway update settings: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, s)
}
