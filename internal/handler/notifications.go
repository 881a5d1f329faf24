package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hams/portal-server-go/internal/middleware"
	"github.com/hams/portal-server-go/internal/upstream"
)

type NotificationHandler struct {
	upstream *upstream.Client
}

func NewNotificationHandler(up *upstream.Client) *NotificationHandler {
	return &NotificationHandler{upstream: up}
}

func (h *NotificationHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Put("/{notificationID}/read", h.MarkRead)
	r.Put("/read-all", h.MarkAllRead)

	return r
}

// GET /api/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	notes, err := h.upstream.Notifications(r.Context(), sess.Token, sess.SubjectID, sess.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// PUT /api/notifications/{notificationID}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	id := chi.URLParam(r, "notificationID")
	if err := h.upstream.MarkNotificationRead(r.Context(), sess.Token, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification marked read"})
}

// PUT /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	if err := h.upstream.MarkAllNotificationsRead(r.Context(), sess.Token, sess.SubjectID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "All notifications marked read"})
}
