package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/devoptimist/builder/internal/api/service"
	"github.com/devoptimist/builder/internal/api/store"
	"github.com/devoptimist/builder/pkg/httpx"
	"github.com/devoptimist/builder/pkg/slogx"

	_ "github.com/devoptimist/builder/api/docs" // Swagger docs
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	gatherer     prometheus.Gatherer

	store             store.Store
	AuthorizationGate *service.AuthorizationGate
	TokenIssuer       *service.TokenIssuer
	TokenRevoker      *service.TokenRevoker
	ProfileService    *service.ProfileService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		gatherer:     gatherer,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerProfile()
	r.registerTokens()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Builder Profile API
//	@version		0.1.0
//	@description	Account profile and access-token lifecycle service. Tokens are opaque
//	@description	bearer credentials resolved through a session cache with database fallback.
//
//	@license.name				Apache 2.0
//	@license.url				https://www.apache.org/licenses/LICENSE-2.0
//
//	@host						localhost:9636
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerProfile() {
	h := &ProfileHandler{ProfileService: r.ProfileService}

	// GET /v1/profile - lenient rate limit by account (read path)
	securedGet := httpx.Chain(http.HandlerFunc(h.HandleGet),
		AuthnMiddleware(r.AuthorizationGate),
		httpx.RateLimitByAccount(httpx.LenientLimit),
	)

	// PATCH /v1/profile - moderate rate limit by account
	securedUpdate := httpx.Chain(http.HandlerFunc(h.HandleUpdate),
		AuthnMiddleware(r.AuthorizationGate),
		httpx.RateLimitByAccount(httpx.ModerateLimit),
	)

	r.Mux.Handle("GET /v1/profile", securedGet)
	r.Mux.Handle("PATCH /v1/profile", securedUpdate)
}

func (r *Router) registerTokens() {
	h := &TokensHandler{
		ProfileService: r.ProfileService,
		TokenIssuer:    r.TokenIssuer,
		TokenRevoker:   r.TokenRevoker,
	}

	// GET /access-tokens - lenient rate limit by account
	securedList := httpx.Chain(http.HandlerFunc(h.HandleList),
		AuthnMiddleware(r.AuthorizationGate),
		httpx.RateLimitByAccount(httpx.LenientLimit),
	)

	// POST /access-tokens - strict rate limit (token minting)
	securedCreate := httpx.Chain(http.HandlerFunc(h.HandleCreate),
		AuthnMiddleware(r.AuthorizationGate),
		httpx.RateLimitByAccount(httpx.StrictLimit),
	)

	// DELETE /access-tokens/{id} - moderate rate limit by account
	securedRevoke := httpx.Chain(http.HandlerFunc(h.HandleRevoke),
		AuthnMiddleware(r.AuthorizationGate),
		httpx.RateLimitByAccount(httpx.ModerateLimit),
	)

	r.Mux.Handle("GET /v1/profile/access-tokens", securedList)
	r.Mux.Handle("POST /v1/profile/access-tokens", securedCreate)
	r.Mux.Handle("DELETE /v1/profile/access-tokens/{id}", securedRevoke)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("GET /metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))
}
