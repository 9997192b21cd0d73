package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/yarnhub/internal/cache"
	"github.com/aussiebroadwan/yarnhub/internal/service"
	"github.com/aussiebroadwan/yarnhub/internal/store"
	"github.com/aussiebroadwan/yarnhub/pkg/httpx"
	"github.com/aussiebroadwan/yarnhub/pkg/jwtx"
	"github.com/aussiebroadwan/yarnhub/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	cookies      CookieConfig

	store     store.Store
	blacklist cache.Blacklist

	SessionService *service.SessionService
	AuthService    *service.AuthService
	UserService    *service.UserService
	StoryService   *service.StoryService
	AdminService   *service.AdminService
}

func NewRouter(
	keys *jwtx.KeySet,
	buildVersion string,
	st store.Store,
	blacklist cache.Blacklist,
	cookies CookieConfig,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		cookies:      cookies,
		store:        st,
		blacklist:    blacklist,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerStories()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		AuthService: r.AuthService,
		Cookies:     r.cookies,
		RefreshTTL:  r.SessionService.RefreshTTL,
	}

	// Registration and every code-consuming endpoint sits behind the strict
	// profile: these are the surfaces a brute-forcer would hammer.
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/send-email-verification-token",
		httpx.Chain(http.HandlerFunc(h.HandleSendEmailVerification),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/confirm-email",
		httpx.Chain(http.HandlerFunc(h.HandleConfirmEmail),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgotPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/change-password",
		httpx.Chain(http.HandlerFunc(h.HandleChangePassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Refresh and logout carry tokens, not passwords; moderate is enough.
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerUsers() {
	me := &MeHandler{UserService: r.UserService, StoryService: r.StoryService}
	r.Mux.Handle("GET /v1/users/me",
		httpx.Chain(http.HandlerFunc(me.HandleGet),
			AuthnMiddleware(r.SessionService),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PATCH /v1/users/me",
		httpx.Chain(http.HandlerFunc(me.HandleUpdate),
			AuthnMiddleware(r.SessionService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/users/me/liked",
		httpx.Chain(http.HandlerFunc(me.HandleLiked),
			AuthnMiddleware(r.SessionService),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	usersHandler := &UsersHandler{UserService: r.UserService}
	r.Mux.Handle("GET /v1/users/{username}",
		httpx.Chain(http.HandlerFunc(usersHandler.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerStories() {
	h := &StoriesHandler{StoryService: r.StoryService}

	// Reads are public.
	r.Mux.Handle("GET /v1/stories",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /v1/stories/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /v1/users/{username}/stories",
		httpx.Chain(http.HandlerFunc(h.HandleListByAuthor),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	// Writes need a live session.
	r.Mux.Handle("POST /v1/stories",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			AuthnMiddleware(r.SessionService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PUT /v1/stories/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			AuthnMiddleware(r.SessionService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/stories/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			AuthnMiddleware(r.SessionService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/stories/{id}/like",
		httpx.Chain(http.HandlerFunc(h.HandleToggleLike),
			AuthnMiddleware(r.SessionService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{AdminService: r.AdminService}

	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			AuthnMiddleware(r.SessionService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /v1/admin/users", secured(h.HandleListUsers))
	r.Mux.Handle("POST /v1/admin/users/{username}/promote", secured(h.HandlePromote))
	r.Mux.Handle("POST /v1/admin/users/{username}/demote", secured(h.HandleDemote))
	r.Mux.Handle("POST /v1/admin/users/{username}/block", secured(h.HandleBlock))
	r.Mux.Handle("POST /v1/admin/users/{username}/unblock", secured(h.HandleUnblock))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	r.Mux.HandleFunc("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.HandleFunc("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys, r.blacklist))
}
