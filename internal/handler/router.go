package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/haiintel/dashboard/internal/analysis/match"
	"github.com/haiintel/dashboard/internal/config"
	"github.com/haiintel/dashboard/internal/handler/auth"
	"github.com/haiintel/dashboard/internal/handler/chat"
	"github.com/haiintel/dashboard/internal/handler/page"
	"github.com/haiintel/dashboard/internal/handler/response"
	"github.com/haiintel/dashboard/internal/handler/stream"
	"github.com/haiintel/dashboard/internal/handler/widget"
	"github.com/haiintel/dashboard/internal/logging"
	"github.com/haiintel/dashboard/internal/middleware"
	responseModel "github.com/haiintel/dashboard/internal/model/response"
	authService "github.com/haiintel/dashboard/internal/service/auth"
	widgetService "github.com/haiintel/dashboard/internal/service/widget"
	"github.com/haiintel/dashboard/internal/storage"
)

// Deps are the services the router wires into handlers.
type Deps struct {
	Config    *config.Config
	Auth      *authService.Service
	Responses *responseModel.Table
	Matcher   *match.Matcher
	Scopes    storage.Registry
	Log       *logging.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(d.Config.Server.AllowedOrigins))
	r.Use(middleware.Guard(d.Auth))
	r.Use(middleware.Device(d.Config.Auth.CookieSecure))

	interval := d.Config.Chat.TickInterval
	mounts := widgetService.NewMounts()

	page.New(d.Log).RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		auth.New(d.Auth, d.Log).RegisterRoutes(api)
		chat.New(d.Scopes, mounts, d.Log).RegisterRoutes(api)
		response.New(d.Responses).RegisterRoutes(api)
		stream.New(d.Matcher, interval, d.Log).RegisterRoutes(api)
		widget.New(widget.Config{
			Scopes:         d.Scopes,
			Mounts:         mounts,
			Matcher:        d.Matcher,
			Interval:       interval,
			AllowedOrigins: d.Config.Server.AllowedOrigins,
			Log:            d.Log,
		}).RegisterRoutes(api)
	})

	return r
}
