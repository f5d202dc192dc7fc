package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/vasapolrittideah/portfolio-api/shared/cache"
	"github.com/vasapolrittideah/portfolio-api/shared/discovery"
	"github.com/vasapolrittideah/portfolio-api/shared/mailer"
	"github.com/vasapolrittideah/portfolio-api/shared/ratelimit"
)

// PortfolioServiceConfig is the complete service configuration, read from the
// environment (optionally seeded by a .env file).
type PortfolioServiceConfig struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty   bool   `env:"LOG_PRETTY" envDefault:"false"`

	HTTP      HTTPConfig       `envPrefix:"HTTP_"`
	Mongo     MongoConfig      `envPrefix:"MONGO_"`
	Token     TokenConfig      `envPrefix:"TOKEN_"`
	Cookie    CookieConfig     `envPrefix:"COOKIE_"`
	OTP       OTPConfig        `envPrefix:"OTP_"`
	SMTP      mailer.Config
	Redis     cache.Config     `envPrefix:"REDIS_"`
	Consul    discovery.Config `envPrefix:"CONSUL_"`
	GRPC      GRPCConfig       `envPrefix:"GRPC_"`
	Google    GoogleConfig     `envPrefix:"GOOGLE_"`
	Contact   ContactConfig    `envPrefix:"CONTACT_"`
	RateLimit RateLimitConfig  `envPrefix:"RATE_LIMIT_"`
}

type HTTPConfig struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	// TrustedProxies lists CIDRs or addresses whose X-Forwarded-For and
	// X-Real-IP headers are believed. Empty keys clients by RemoteAddr.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

type MongoConfig struct {
	URI            string        `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database       string        `env:"DATABASE" envDefault:"portfolio"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

type TokenConfig struct {
	Issuer                string        `env:"ISSUER" envDefault:"portfolio-api"`
	Audience              string        `env:"AUDIENCE" envDefault:"portfolio-web"`
	AccessTokenSecret     string        `env:"ACCESS_SECRET"`
	AccessTokenExpiresIn  time.Duration `env:"ACCESS_EXPIRES_IN" envDefault:"15m"`
	RefreshTokenSecret    string        `env:"REFRESH_SECRET"`
	RefreshTokenExpiresIn time.Duration `env:"REFRESH_EXPIRES_IN" envDefault:"168h"`
}

type CookieConfig struct {
	HashKey  string `env:"HASH_KEY"`
	BlockKey string `env:"BLOCK_KEY"`
	Domain   string `env:"DOMAIN"`
	Secure   bool   `env:"SECURE" envDefault:"true"`
	SameSite string `env:"SAME_SITE" envDefault:"lax"`
}

type OTPConfig struct {
	TTL         time.Duration `env:"TTL" envDefault:"10m"`
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"5"`
}

type GRPCConfig struct {
	// Addr enables the gRPC health endpoint when set, e.g. ":9090".
	Addr string `env:"ADDR"`
}

type GoogleConfig struct {
	ClientID string `env:"CLIENT_ID"`
}

type ContactConfig struct {
	Recipient string `env:"RECIPIENT"`
}

type RateLimitConfig struct {
	AuthBurst     int           `env:"AUTH_BURST" envDefault:"10"`
	AuthWindow    time.Duration `env:"AUTH_WINDOW" envDefault:"1m"`
	ContactBurst  int           `env:"CONTACT_BURST" envDefault:"3"`
	ContactWindow time.Duration `env:"CONTACT_WINDOW" envDefault:"10m"`
}

// Load reads .env (if present) and the environment, then validates the result.
func Load() (*PortfolioServiceConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := env.ParseAs[PortfolioServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *PortfolioServiceConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Validate checks cross-field constraints env tags cannot express.
func (c *PortfolioServiceConfig) Validate() error {
	var problems []string

	if c.Token.AccessTokenSecret == "" {
		problems = append(problems, "TOKEN_ACCESS_SECRET is required")
	}
	if c.Token.RefreshTokenSecret == "" {
		problems = append(problems, "TOKEN_REFRESH_SECRET is required")
	}
	if c.Token.AccessTokenSecret != "" && c.Token.AccessTokenSecret == c.Token.RefreshTokenSecret {
		problems = append(problems, "TOKEN_ACCESS_SECRET and TOKEN_REFRESH_SECRET must differ")
	}
	if c.IsProduction() && len(c.Token.AccessTokenSecret) < 32 {
		problems = append(problems, "TOKEN_ACCESS_SECRET must be at least 32 characters in production")
	}
	if c.Token.AccessTokenExpiresIn <= 0 || c.Token.RefreshTokenExpiresIn <= c.Token.AccessTokenExpiresIn {
		problems = append(problems, "TOKEN_REFRESH_EXPIRES_IN must exceed TOKEN_ACCESS_EXPIRES_IN")
	}
	if len(c.Cookie.HashKey) < 32 {
		problems = append(problems, "COOKIE_HASH_KEY must be at least 32 bytes")
	}
	switch len(c.Cookie.BlockKey) {
	case 16, 24, 32:
	default:
		problems = append(problems, "COOKIE_BLOCK_KEY must be 16, 24 or 32 bytes")
	}
	if _, err := c.Cookie.SameSiteMode(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.OTP.TTL <= 0 {
		problems = append(problems, "OTP_TTL must be positive")
	}
	if c.OTP.MaxAttempts < 1 {
		problems = append(problems, "OTP_MAX_ATTEMPTS must be at least 1")
	}
	if err := c.SMTP.Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := ratelimit.NewResolver(c.HTTP.TrustedProxies); err != nil {
		problems = append(problems, "HTTP_TRUSTED_PROXIES: "+err.Error())
	}
	if c.RateLimit.AuthBurst < 1 {
		problems = append(problems, "RATE_LIMIT_AUTH_BURST must be at least 1")
	}
	if c.RateLimit.AuthWindow <= 0 {
		problems = append(problems, "RATE_LIMIT_AUTH_WINDOW must be positive")
	}
	if c.RateLimit.ContactBurst < 1 {
		problems = append(problems, "RATE_LIMIT_CONTACT_BURST must be at least 1")
	}
	if c.RateLimit.ContactWindow <= 0 {
		problems = append(problems, "RATE_LIMIT_CONTACT_WINDOW must be positive")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// SameSiteMode maps COOKIE_SAME_SITE to http.SameSite.
func (c CookieConfig) SameSiteMode() (http.SameSite, error) {
	switch strings.ToLower(c.SameSite) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return http.SameSiteDefaultMode, fmt.Errorf("COOKIE_SAME_SITE %q is not one of lax, strict, none", c.SameSite)
	}
}
