package chat

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/haiintel/dashboard/internal/logging"
	"github.com/haiintel/dashboard/internal/middleware"
	"github.com/haiintel/dashboard/internal/model/chat"
	chatservice "github.com/haiintel/dashboard/internal/service/chat"
	"github.com/haiintel/dashboard/internal/storage"
	"github.com/haiintel/dashboard/pkg/utils"
)

// LiveWidgets clears the widgets mounted for a device.
type LiveWidgets interface {
	Clear(ctx context.Context, device string) (bool, error)
}

// Handler 聊天会话的HTTP处理器
type Handler struct {
	scopes  storage.Registry
	widgets LiveWidgets
	log     *logging.Logger
}

// New 创建聊天处理器
func New(scopes storage.Registry, widgets LiveWidgets, log *logging.Logger) *Handler {
	return &Handler{scopes: scopes, widgets: widgets, log: log}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/session", h.handleGetSession)
	r.Delete("/chat/session", h.handleClearSession)
}

func (h *Handler) store(r *http.Request) *chatservice.SessionStore {
	return chatservice.NewSessionStore(h.scopes.Scope(middleware.DeviceID(r.Context())), h.log)
}

// handleGetSession returns the device's persisted transcript, or an empty list.
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.store(r).Load()
	if !ok {
		session = chat.Session{}
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// handleClearSession clears through the device's mounted widgets when there are any, so a
// live widget cannot write the old transcript back.
func (h *Handler) handleClearSession(w http.ResponseWriter, r *http.Request) {
	if h.widgets != nil {
		cleared, err := h.widgets.Clear(r.Context(), middleware.DeviceID(r.Context()))
		if err != nil {
			utils.RespondError(w, http.StatusServiceUnavailable, "clear interrupted")
			return
		}
		if cleared {
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	h.store(r).Clear()
	w.WriteHeader(http.StatusNoContent)
}
