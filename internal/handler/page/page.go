package page

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/haiintel/dashboard/internal/logging"
	"github.com/haiintel/dashboard/internal/middleware"
	"github.com/haiintel/dashboard/internal/model/user"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*.css static/*.js
var staticFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

const (
	siteTitle       = "HaiIntel - Human-Centered AI Experience"
	siteDescription = "HaiIntel builds human-centered AI experiences merging design, performance, and intelligence."
)

// Stat is one tile of the quick stats card.
type Stat struct {
	Value string
	Label string
}

type pageData struct {
	Title       string
	Description string
	User        user.User
	Initial     string
	Stats       []Stat
}

// Handler renders the login and dashboard pages and serves static assets.
type Handler struct {
	log *logging.Logger
}

// New 创建页面处理器
func New(log *logging.Logger) *Handler {
	return &Handler{log: log.Sub("page")}
}

// RegisterRoutes 注册页面与静态资源路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/login", h.handleLogin)
	r.Get("/", h.handleDashboard)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login.html", pageData{Title: siteTitle, Description: siteDescription})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	initial := "U"
	if u.Name != "" {
		initial = string([]rune(u.Name)[:1])
	}
	h.render(w, "dashboard.html", pageData{
		Title:       siteTitle,
		Description: siteDescription,
		User:        u,
		Initial:     initial,
		Stats: []Stat{
			{Value: "12", Label: "Chats Today"},
			{Value: "98%", Label: "Accuracy"},
		},
	})
}

func (h *Handler) render(w http.ResponseWriter, name string, data pageData) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.Error().Err(err).Str("template", name).Msg("render page")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
