package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/config"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/handler"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/repository"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/usecase"
	"github.com/vasapolrittideah/portfolio-api/shared/auth"
	"github.com/vasapolrittideah/portfolio-api/shared/cache"
	"github.com/vasapolrittideah/portfolio-api/shared/mailer"
	"github.com/vasapolrittideah/portfolio-api/shared/provider"
	"github.com/vasapolrittideah/portfolio-api/shared/ratelimit"
	"github.com/vasapolrittideah/portfolio-api/shared/validator"
)

const googleHTTPTimeout = 10 * time.Second

// App owns the long-lived dependencies of the portfolio service.
type App struct {
	cfg    *config.PortfolioServiceConfig
	logger *zerolog.Logger

	mongo *mongo.Client
	cache *cache.Client

	authLimiter    *ratelimit.Limiter
	contactLimiter *ratelimit.Limiter
	clientIPs      *ratelimit.Resolver

	jwtAuth   auth.JWTAuthenticator
	blacklist *auth.TokenStore
	validator *validator.Validator

	AuthUsecase          usecase.AuthUsecase
	PasswordResetUsecase usecase.PasswordResetUsecase
	ProfileUsecase       usecase.ProfileUsecase
	PublicationUsecase   usecase.PublicationUsecase
	ContactUsecase       usecase.ContactUsecase
}

// New connects to MongoDB and Redis and builds every usecase. Indexes are
// ensured by the repository constructors.
func New(ctx context.Context, cfg *config.PortfolioServiceConfig, logger *zerolog.Logger) (*App, error) {
	client, err := connectMongo(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

	db := client.Database(cfg.Mongo.Database)

	cacheClient := cache.New(cfg.Redis, logger)
	if cacheClient.Enabled() {
		if err := cacheClient.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, continuing without cache")
		}
	}

	v, err := validator.New()
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create validator: %w", err)
	}

	clientIPs, err := ratelimit.NewResolver(cfg.HTTP.TrustedProxies)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	userRepo := repository.NewUserMongoRepository(ctx, logger, db)
	sessionRepo := repository.NewSessionMongoRepository(ctx, logger, db)
	identityRepo := repository.NewIdentityMongoRepository(ctx, logger, db)
	otpRepo := repository.NewOTPMongoRepository(ctx, logger, db)
	publicationRepo := repository.NewPublicationMongoRepository(ctx, logger, db)

	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Audience, cfg.Token.Issuer)
	tokenStore := auth.NewTokenStore(cacheClient)
	mail := mailer.NewMailer(&cfg.SMTP, logger)
	google := provider.NewGoogleOAuthProvider(cfg.Google.ClientID, &http.Client{Timeout: googleHTTPTimeout})

	return &App{
		cfg:            cfg,
		logger:         logger,
		mongo:          client,
		cache:          cacheClient,
		authLimiter:    ratelimit.New(cfg.RateLimit.AuthBurst, cfg.RateLimit.AuthWindow),
		contactLimiter: ratelimit.New(cfg.RateLimit.ContactBurst, cfg.RateLimit.ContactWindow),
		clientIPs:      clientIPs,
		jwtAuth:        jwtAuth,
		blacklist:      tokenStore,
		validator:      v,

		AuthUsecase: usecase.NewAuthUsecase(
			identityRepo,
			sessionRepo,
			userRepo,
			jwtAuth,
			tokenStore,
			google,
			cfg.Token,
			logger,
		),
		PasswordResetUsecase: usecase.NewPasswordResetUsecase(userRepo, otpRepo, sessionRepo, mail, cfg.OTP, logger),
		ProfileUsecase:       usecase.NewProfileUsecase(userRepo, cacheClient, logger),
		PublicationUsecase:   usecase.NewPublicationUsecase(publicationRepo, cacheClient, logger),
		ContactUsecase:       usecase.NewContactUsecase(userRepo, mail, cfg.Contact.Recipient, logger),
	}, nil
}

// Router builds the HTTP handler for the service.
func (a *App) Router() (http.Handler, error) {
	sameSite, err := a.cfg.Cookie.SameSiteMode()
	if err != nil {
		return nil, err
	}

	return handler.NewRouter(handler.RouterConfig{
		AuthUsecase:          a.AuthUsecase,
		PasswordResetUsecase: a.PasswordResetUsecase,
		ProfileUsecase:       a.ProfileUsecase,
		PublicationUsecase:   a.PublicationUsecase,
		ContactUsecase:       a.ContactUsecase,
		Authenticator:        a.jwtAuth,
		AccessTokenSecret:    a.cfg.Token.AccessTokenSecret,
		Blacklist:            a.blacklist,
		Cookies: handler.NewCookieManager(
			[]byte(a.cfg.Cookie.HashKey),
			[]byte(a.cfg.Cookie.BlockKey),
			a.cfg.Cookie.Domain,
			a.cfg.Cookie.Secure,
			sameSite,
		),
		Validator:      a.validator,
		AuthLimiter:    a.authLimiter,
		ContactLimiter: a.contactLimiter,
		ClientIPs:      a.clientIPs,
		Mongo:          a.mongo,
		Cache:          a.cache,
		AllowedOrigins: a.cfg.HTTP.AllowedOrigins,
		MaxBodyBytes:   a.cfg.HTTP.MaxBodyBytes,
		Logger:         a.logger,
	}), nil
}

// Close releases the limiters, the cache and the MongoDB connection.
func (a *App) Close(ctx context.Context) error {
	a.authLimiter.Close()
	a.contactLimiter.Close()

	if err := a.cache.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("failed to close redis client")
	}

	a.logger.Info().Msg("disconnecting MongoDB client")
	if err := a.mongo.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}

func connectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI).SetConnectTimeout(cfg.ConnectTimeout))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, nil
}
