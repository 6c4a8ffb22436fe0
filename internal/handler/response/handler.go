package response

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/haiintel/dashboard/internal/model/chat"
	"github.com/haiintel/dashboard/pkg/utils"
)

// Lister lists the canned responses.
type Lister interface {
	List() []chat.Response
}

// Handler 预设回复的HTTP处理器
type Handler struct {
	responses Lister
}

// New 创建预设回复处理器
func New(responses Lister) *Handler {
	return &Handler{responses: responses}
}

// RegisterRoutes 注册预设回复相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/responses", h.handleListResponses)
}

func (h *Handler) handleListResponses(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.responses.List())
}
