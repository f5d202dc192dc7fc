package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/model"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/usecase"
	"github.com/vasapolrittideah/portfolio-api/shared/auth"
	"github.com/vasapolrittideah/portfolio-api/shared/middleware"
	"github.com/vasapolrittideah/portfolio-api/shared/ratelimit"
	"github.com/vasapolrittideah/portfolio-api/shared/validator"
)

// RouterConfig holds everything the HTTP surface depends on.
type RouterConfig struct {
	AuthUsecase          usecase.AuthUsecase
	PasswordResetUsecase usecase.PasswordResetUsecase
	ProfileUsecase       usecase.ProfileUsecase
	PublicationUsecase   usecase.PublicationUsecase
	ContactUsecase       usecase.ContactUsecase

	Authenticator     auth.JWTAuthenticator
	AccessTokenSecret string
	Blacklist         auth.TokenBlacklist
	Cookies           *CookieManager
	Validator         *validator.Validator

	// Nil limiters disable rate limiting for their routes.
	AuthLimiter    *ratelimit.Limiter
	ContactLimiter *ratelimit.Limiter
	// ClientIPs decides which forwarding headers are believed. Nil keys
	// clients by RemoteAddr.
	ClientIPs *ratelimit.Resolver

	Mongo MongoPinger
	Cache CachePinger

	AllowedOrigins []string
	MaxBodyBytes   int64
	Logger         *zerolog.Logger
}

// NewRouter builds the HTTP routes of the portfolio service.
func NewRouter(cfg RouterConfig) http.Handler {
	authHandler := newAuthHTTPHandler(cfg.AuthUsecase, cfg.PasswordResetUsecase, cfg.Cookies, cfg.Validator)
	profileHandler := newProfileHTTPHandler(cfg.ProfileUsecase, cfg.Validator)
	publicationHandler := newPublicationHTTPHandler(cfg.PublicationUsecase, cfg.Validator)
	contactHandler := newContactHTTPHandler(cfg.ContactUsecase, cfg.Validator)
	healthHandler := &healthHTTPHandler{mongo: cfg.Mongo, cache: cfg.Cache}

	jwtConfig := middleware.JWTConfig{
		Authenticator: cfg.Authenticator,
		Secret:        cfg.AccessTokenSecret,
		Blacklist:     cfg.Blacklist,
		OnError:       writeError,
	}
	if cfg.Cookies != nil {
		jwtConfig.Fallback = cfg.Cookies.AccessToken
	}
	requireAuth := middleware.NewJWTMiddleware(jwtConfig)

	optionalConfig := jwtConfig
	optionalConfig.Optional = true
	optionalAuth := middleware.NewJWTMiddleware(optionalConfig)

	authLimit := limitWith(cfg.AuthLimiter)
	contactLimit := limitWith(cfg.ContactLimiter)

	r := chi.NewRouter()

	r.Use(hlog.NewHandler(*cfg.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(ratelimit.ResolveClientIP(cfg.ClientIPs))
	r.Use(hlog.RemoteAddrHandler("ip"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.MaxBodyBytes > 0 {
		r.Use(chimiddleware.RequestSize(cfg.MaxBodyBytes))
	}

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Get("/healthz", healthHandler.Serve)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimit).Post("/login", authHandler.Login)
			r.With(authLimit).Post("/google", authHandler.LoginWithGoogle)
			r.With(authLimit).Post("/refresh", authHandler.Refresh)
			r.With(authLimit).Post("/send-otp", authHandler.SendOTP)
			r.With(authLimit).Post("/verify-otp-reset", authHandler.VerifyOTPReset)
			r.With(optionalAuth).Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.With(requireRole(model.RoleSuperAdmin)).Post("/register", authHandler.Register)
				r.Put("/change-password", authHandler.ChangePassword)
				r.Get("/me", profileHandler.GetMe)
				r.Put("/me", profileHandler.UpdateMe)
			})
		})

		r.Get("/profile", profileHandler.GetPublicProfile)

		r.Route("/publications", func(r chi.Router) {
			r.Get("/", publicationHandler.List)
			r.Get("/stats", publicationHandler.Stats)
			r.Get("/{id}", publicationHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/create", publicationHandler.Create)
				r.Patch("/{id}", publicationHandler.Update)
				r.Delete("/{id}", publicationHandler.Delete)
			})
		})

		r.With(contactLimit).Post("/contact", contactHandler.Send)
	})

	return r
}

// requireRole rejects authenticated requests whose role is not listed.
func requireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := middleware.ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, r, middleware.ErrMissingToken)
				return
			}
			for _, role := range roles {
				if model.Role(claims.Role) == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, r, errInsufficientRole)
		})
	}
}

func limitWith(l *ratelimit.Limiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return ratelimit.Middleware(l, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errRateLimited)
	})
}
