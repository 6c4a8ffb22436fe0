package auth

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/haiintel/dashboard/internal/logging"
	"github.com/haiintel/dashboard/internal/middleware"
	"github.com/haiintel/dashboard/internal/model/user"
	authservice "github.com/haiintel/dashboard/internal/service/auth"
	"github.com/haiintel/dashboard/pkg/utils"
)

// Service is the part of the auth service the handler needs.
type Service interface {
	Authenticate(email, password string) (user.User, error)
	IssueToken(u user.User) (string, error)
	TokenTTL() time.Duration
	CookieSecure() bool
}

// Handler 登录相关的HTTP处理器
type Handler struct {
	svc Service
	log *logging.Logger
}

// New 创建登录处理器
func New(svc Service, log *logging.Logger) *Handler {
	return &Handler{svc: svc, log: log.Sub("auth")}
}

// RegisterRoutes 注册登录相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/logout", h.handleLogout)
	r.Get("/auth/session", h.handleSession)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin accepts JSON or a url-encoded form.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload credentials
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		payload.Email = r.PostForm.Get("email")
		payload.Password = r.PostForm.Get("password")
	}

	u, err := h.svc.Authenticate(strings.TrimSpace(payload.Email), payload.Password)
	switch {
	case errors.Is(err, authservice.ErrInvalidEmail), errors.Is(err, authservice.ErrEmptyPassword):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, authservice.ErrInvalidCredentials), errors.Is(err, authservice.ErrNotConfigured):
		utils.RespondError(w, http.StatusUnauthorized, authservice.ErrInvalidCredentials.Error())
		return
	case err != nil:
		h.log.Error().Err(err).Msg("login failed")
		utils.RespondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, err := h.svc.IssueToken(u)
	if err != nil {
		h.log.Error().Err(err).Msg("issue session token")
		utils.RespondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.svc.TokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.svc.CookieSecure(),
		SameSite: http.SameSiteLaxMode,
	})
	h.log.Info().Str("email", u.Email).Msg("signed in")
	utils.RespondJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.svc.CookieSecure(),
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"user": u})
}
