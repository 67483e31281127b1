package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/paperdeck/internal/model"
)

// NotificationStoreInterface はNotificationHandlerが利用するストアのインターフェース。
type NotificationStoreInterface interface {
	Notifications() []model.Notification
	UnreadCount() int
	MarkNotificationRead(id string) bool
}

// NotificationHandler は通知インボックスのHTTPハンドラー。
type NotificationHandler struct {
	store NotificationStoreInterface
}

// NewNotificationHandler は新しいNotificationHandlerを作成する。
func NewNotificationHandler(store NotificationStoreInterface) *NotificationHandler {
	return &NotificationHandler{store: store}
}

type notificationsResponse struct {
	Notifications []model.Notification `json:"notifications"`
	UnreadCount   int                  `json:"unread_count"`
}

// ListNotifications は通知を未読優先・新着順に未読件数付きで返す。
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	notifications := h.store.Notifications()
	if notifications == nil {
		notifications = []model.Notification{}
	}
	respondJSON(w, http.StatusOK, notificationsResponse{
		Notifications: notifications,
		UnreadCount:   h.store.UnreadCount(),
	})
}

type markReadResponse struct {
	UnreadCount int `json:"unread_count"`
}

// MarkRead は指定された通知を既読にする。
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.store.MarkNotificationRead(id) {
		writeAPIError(w, model.NewNotificationNotFoundError(id))
		return
	}
	respondJSON(w, http.StatusOK, markReadResponse{UnreadCount: h.store.UnreadCount()})
}
