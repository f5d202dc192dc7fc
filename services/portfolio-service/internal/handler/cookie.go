package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/usecase"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	refreshCookiePath = "/api/auth"
)

// CookieManager writes tokens into encrypted, httpOnly cookies so the SPA
// never handles them in script.
type CookieManager struct {
	codec    *securecookie.SecureCookie
	domain   string
	secure   bool
	sameSite http.SameSite
	now      func() time.Time
}

func NewCookieManager(hashKey, blockKey []byte, domain string, secure bool, sameSite http.SameSite) *CookieManager {
	return &CookieManager{
		// Token expiry is enforced by the JWT itself.
		codec:    securecookie.New(hashKey, blockKey).MaxAge(0),
		domain:   domain,
		secure:   secure,
		sameSite: sameSite,
		now:      time.Now,
	}
}

// SetTokens stores both tokens. Each cookie lives as long as its token.
func (c *CookieManager) SetTokens(w http.ResponseWriter, tokens usecase.Tokens) error {
	if err := c.set(w, AccessTokenCookie, "/", tokens.AccessToken, tokens.AccessTokenExpiresAt); err != nil {
		return err
	}
	return c.set(w, RefreshTokenCookie, refreshCookiePath, tokens.RefreshToken, tokens.RefreshTokenExpiresAt)
}

// Clear expires both token cookies.
func (c *CookieManager) Clear(w http.ResponseWriter) {
	for _, cookie := range []struct{ name, path string }{
		{AccessTokenCookie, "/"},
		{RefreshTokenCookie, refreshCookiePath},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     cookie.name,
			Value:    "",
			Path:     cookie.path,
			Domain:   c.domain,
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   c.secure,
			SameSite: c.sameSite,
		})
	}
}

// AccessToken reads the access token cookie. It has the signature of a
// middleware.TokenSource.
func (c *CookieManager) AccessToken(r *http.Request) (string, bool) {
	return c.get(r, AccessTokenCookie)
}

// RefreshToken reads the refresh token cookie.
func (c *CookieManager) RefreshToken(r *http.Request) (string, bool) {
	return c.get(r, RefreshTokenCookie)
}

func (c *CookieManager) set(w http.ResponseWriter, name, path, value string, expiresAt time.Time) error {
	maxAge := int(expiresAt.Sub(c.now()).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}

	encoded, err := c.codec.Encode(name, value)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     path,
		Domain:   c.domain,
		MaxAge:   maxAge,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: c.sameSite,
	})

	return nil
}

func (c *CookieManager) get(r *http.Request, name string) (string, bool) {
	cookie, err := r.Cookie(name)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	var value string
	if err := c.codec.Decode(name, cookie.Value, &value); err != nil || value == "" {
		return "", false
	}

	return value, true
}
