package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/model"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/payload"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/usecase"
	"github.com/vasapolrittideah/portfolio-api/shared/auth"
	"github.com/vasapolrittideah/portfolio-api/shared/ratelimit"
	"github.com/vasapolrittideah/portfolio-api/shared/validator"
)

const testAccessSecret = "test-access-secret"

type fakeMongo struct{ err error }

func (f fakeMongo) Ping(context.Context, *readpref.ReadPref) error { return f.err }

type routerFixture struct {
	auth        *MockAuthUsecase
	reset       *MockPasswordResetUsecase
	profile     *MockProfileUsecase
	publication *MockPublicationUsecase
	contact     *MockContactUsecase
	jwt         auth.JWTAuthenticator
	cookies     *CookieManager
	handler     http.Handler
}

func newRouterFixture(t *testing.T, configure ...func(*RouterConfig)) *routerFixture {
	t.Helper()

	v, err := validator.New()
	require.NoError(t, err)

	logger := zerolog.Nop()
	f := &routerFixture{
		auth:        new(MockAuthUsecase),
		reset:       new(MockPasswordResetUsecase),
		profile:     new(MockProfileUsecase),
		publication: new(MockPublicationUsecase),
		contact:     new(MockContactUsecase),
		jwt:         auth.NewJWTAuthenticator("portfolio-web", "portfolio-api"),
		cookies: NewCookieManager(
			[]byte("0123456789abcdef0123456789abcdef"),
			[]byte("abcdef0123456789"),
			"",
			false,
			http.SameSiteLaxMode,
		),
	}

	cfg := RouterConfig{
		AuthUsecase:          f.auth,
		PasswordResetUsecase: f.reset,
		ProfileUsecase:       f.profile,
		PublicationUsecase:   f.publication,
		ContactUsecase:       f.contact,
		Authenticator:        f.jwt,
		AccessTokenSecret:    testAccessSecret,
		Cookies:              f.cookies,
		Validator:            v,
		Mongo:                fakeMongo{},
		AllowedOrigins:       []string{"http://localhost:3000"},
		MaxBodyBytes:         1 << 20,
		Logger:               &logger,
	}
	for _, c := range configure {
		c(&cfg)
	}
	f.handler = NewRouter(cfg)

	t.Cleanup(func() {
		f.auth.AssertExpectations(t)
		f.reset.AssertExpectations(t)
		f.profile.AssertExpectations(t)
		f.publication.AssertExpectations(t)
		f.contact.AssertExpectations(t)
	})

	return f
}

func (f *routerFixture) token(t *testing.T, role model.Role) string {
	t.Helper()
	claims := auth.AccessClaims{
		UserID:           "u1",
		SessionID:        "s1",
		Email:            "owner@example.com",
		Role:             string(role),
		RegisteredClaims: f.jwt.NewRegisteredClaims("u1", time.Now(), time.Minute),
	}
	tok, err := f.jwt.GenerateToken(claims, testAccessSecret)
	require.NoError(t, err)
	return tok
}

func (f *routerFixture) do(method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) payload.ErrorResponse {
	t.Helper()
	var body payload.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRouter_Login(t *testing.T) {
	t.Run("wrong password", func(t *testing.T) {
		f := newRouterFixture(t)
		f.auth.On("Login", mock.Anything, mock.MatchedBy(func(p usecase.LoginParams) bool {
			return p.Email == "owner@example.com" && p.Password == "wrong"
		})).Return(nil, usecase.ErrInvalidCredentials)

		rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"owner@example.com","password":"wrong"}`, "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "fail", body.Status)
		assert.Equal(t, usecase.ErrInvalidCredentials.Error(), body.Message)
		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	})

	t.Run("success sets cookies", func(t *testing.T) {
		f := newRouterFixture(t)
		expiresAt := time.Now().Add(15 * time.Minute)
		f.auth.On("Login", mock.Anything, mock.Anything).Return(&usecase.AuthResult{
			User: &model.User{Email: "owner@example.com", Role: model.RoleSuperAdmin},
			Tokens: usecase.Tokens{
				AccessToken:           "access",
				RefreshToken:          "refresh",
				AccessTokenExpiresAt:  expiresAt,
				RefreshTokenExpiresAt: expiresAt.Add(time.Hour),
			},
		}, nil)

		rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"owner@example.com","password":"secret123"}`, "")

		require.Equal(t, http.StatusOK, rec.Code)
		var body payload.AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "access", body.AccessToken)
		assert.Equal(t, "refresh", body.RefreshToken)
		assert.Equal(t, "owner@example.com", body.User.Email)
		assert.NotContains(t, rec.Body.String(), "password")

		access := findCookie(rec, AccessTokenCookie)
		require.NotNil(t, access)
		assert.True(t, access.HttpOnly)
		assert.Equal(t, "/", access.Path)

		refresh := findCookie(rec, RefreshTokenCookie)
		require.NotNil(t, refresh)
		assert.Equal(t, "/api/auth", refresh.Path)
	})

	t.Run("invalid body", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"not-an-email"}`, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Contains(t, body.Errors, "email")
		assert.Contains(t, body.Errors, "password")
	})

	t.Run("unknown field", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"x","admin":true}`, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRouter_Authentication(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodGet, "/api/auth/me", "", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "fail", decodeError(t, rec).Status)
	})

	t.Run("invalid token", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodGet, "/api/auth/me", "", "not-a-jwt")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bearer token", func(t *testing.T) {
		f := newRouterFixture(t)
		f.profile.On("GetMe", mock.Anything, "u1").Return(&model.User{Email: "owner@example.com"}, nil)

		rec := f.do(http.MethodGet, "/api/auth/me", "", f.token(t, model.RoleManager))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "owner@example.com")
	})

	t.Run("cookie fallback", func(t *testing.T) {
		f := newRouterFixture(t)
		f.profile.On("GetMe", mock.Anything, "u1").Return(&model.User{Email: "owner@example.com"}, nil)

		issued := httptest.NewRecorder()
		require.NoError(t, f.cookies.SetTokens(issued, usecase.Tokens{
			AccessToken:           f.token(t, model.RoleManager),
			RefreshToken:          "refresh",
			AccessTokenExpiresAt:  time.Now().Add(time.Minute),
			RefreshTokenExpiresAt: time.Now().Add(time.Hour),
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		for _, c := range issued.Result().Cookies() {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("tampered cookie", func(t *testing.T) {
		f := newRouterFixture(t)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: f.token(t, model.RoleManager)})
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRouter_Register(t *testing.T) {
	body := `{"email":"new@example.com","password":"password123","name":"New User","role":"manager"}`

	t.Run("manager forbidden", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodPost, "/api/auth/register", body, f.token(t, model.RoleManager))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("superadmin creates user", func(t *testing.T) {
		f := newRouterFixture(t)
		f.auth.On("Register", mock.Anything, usecase.RegisterParams{
			Email:    "new@example.com",
			Password: "password123",
			Name:     "New User",
			Role:     model.RoleManager,
		}).Return(&model.User{Email: "new@example.com", Role: model.RoleManager}, nil)

		rec := f.do(http.MethodPost, "/api/auth/register", body, f.token(t, model.RoleSuperAdmin))

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newRouterFixture(t)
		f.auth.On("Register", mock.Anything, mock.Anything).Return(nil, usecase.ErrUserAlreadyExists)

		rec := f.do(http.MethodPost, "/api/auth/register", body, f.token(t, model.RoleSuperAdmin))

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestRouter_RefreshAndLogout(t *testing.T) {
	t.Run("refresh failure clears cookies", func(t *testing.T) {
		f := newRouterFixture(t)
		f.auth.On("Refresh", mock.Anything, mock.MatchedBy(func(p usecase.RefreshParams) bool {
			return p.RefreshToken == "stale"
		})).Return(nil, usecase.ErrRefreshTokenReused)

		rec := f.do(http.MethodPost, "/api/auth/refresh", `{"refresh_token":"stale"}`, "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		cleared := findCookie(rec, AccessTokenCookie)
		require.NotNil(t, cleared)
		assert.Negative(t, cleared.MaxAge)
	})

	t.Run("refresh from cookie with empty body", func(t *testing.T) {
		f := newRouterFixture(t)
		f.auth.On("Refresh", mock.Anything, mock.MatchedBy(func(p usecase.RefreshParams) bool {
			return p.RefreshToken == "from-cookie"
		})).Return(&usecase.AuthResult{
			User:   &model.User{Email: "owner@example.com"},
			Tokens: usecase.Tokens{AccessToken: "a2", RefreshToken: "r2"},
		}, nil)

		issued := httptest.NewRecorder()
		require.NoError(t, f.cookies.SetTokens(issued, usecase.Tokens{
			AccessToken:           "a1",
			RefreshToken:          "from-cookie",
			AccessTokenExpiresAt:  time.Now().Add(time.Minute),
			RefreshTokenExpiresAt: time.Now().Add(time.Hour),
		}))
		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
		for _, c := range issued.Result().Cookies() {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"access_token":"a2"`)
	})

	t.Run("logout without access token", func(t *testing.T) {
		f := newRouterFixture(t)
		f.auth.On("Logout", mock.Anything, usecase.LogoutParams{RefreshToken: "rt"}).Return(nil)

		rec := f.do(http.MethodPost, "/api/auth/logout", `{"refresh_token":"rt"}`, "expired")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotNil(t, findCookie(rec, RefreshTokenCookie))
	})

	t.Run("logout passes access claims", func(t *testing.T) {
		f := newRouterFixture(t)
		f.auth.On("Logout", mock.Anything, mock.MatchedBy(func(p usecase.LogoutParams) bool {
			return p.AccessClaims != nil && p.AccessClaims.SessionID == "s1"
		})).Return(nil)

		rec := f.do(http.MethodPost, "/api/auth/logout", "", f.token(t, model.RoleManager))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouter_PasswordReset(t *testing.T) {
	t.Run("send otp is generic", func(t *testing.T) {
		f := newRouterFixture(t)
		f.reset.On("SendOTP", mock.Anything, "anyone@example.com").Return(nil)

		rec := f.do(http.MethodPost, "/api/auth/send-otp", `{"email":"anyone@example.com"}`, "")

		require.Equal(t, http.StatusOK, rec.Code)
		var body payload.MessageResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "success", body.Status)
		assert.Contains(t, body.Message, "if an account exists")
	})

	verifyBody := `{"email":"owner@example.com","otp":"123456","new_password":"brand-new-pass"}`

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "success", wantCode: http.StatusOK},
		{name: "wrong code", err: usecase.ErrInvalidOTP, wantCode: http.StatusBadRequest},
		{name: "expired", err: usecase.ErrOTPExpired, wantCode: http.StatusBadRequest},
		{name: "locked out", err: usecase.ErrOTPAttemptsExceeded, wantCode: http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t)
			f.reset.On("ResetPassword", mock.Anything, usecase.ResetPasswordParams{
				Email:       "owner@example.com",
				OTP:         "123456",
				NewPassword: "brand-new-pass",
			}).Return(tt.err)

			rec := f.do(http.MethodPost, "/api/auth/verify-otp-reset", verifyBody, "")

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}

	t.Run("malformed otp", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodPost, "/api/auth/verify-otp-reset",
			`{"email":"owner@example.com","otp":"12ab","new_password":"brand-new-pass"}`, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Errors, "otp")
	})
}

func TestRouter_UpdateMe(t *testing.T) {
	f := newRouterFixture(t)
	f.profile.On("UpdateMe", mock.Anything, "u1", mock.MatchedBy(func(p usecase.UpdateProfileParams) bool {
		return p.Name != nil && *p.Name == "Dr. Ada" && p.Skills != nil && len(*p.Skills) == 2 && p.Bio == nil
	})).Return(&model.User{Profile: model.Profile{Name: "Dr. Ada"}}, nil)

	rec := f.do(http.MethodPut, "/api/auth/me", `{"name":"Dr. Ada","skills":["Go","MongoDB"]}`, f.token(t, model.RoleManager))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_UpdateMe_EmptyAfterSanitising(t *testing.T) {
	f := newRouterFixture(t)
	f.profile.On("UpdateMe", mock.Anything, "u1", mock.Anything).Return(nil, &validator.ValidationError{
		Fields: map[string]string{"education[0].degree": "education[0].degree is a required field"},
	})

	rec := f.do(http.MethodPut, "/api/auth/me",
		`{"education":[{"degree":"<i></i>","institution":"MIT"}]}`, f.token(t, model.RoleManager))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Errors, "education[0].degree")
}

func TestRouter_PublicProfile(t *testing.T) {
	f := newRouterFixture(t)
	f.profile.On("GetPublicProfile", mock.Anything).Return(nil, usecase.ErrProfileNotFound)

	rec := f.do(http.MethodGet, "/api/profile", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Publications(t *testing.T) {
	t.Run("create requires title", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodPost, "/api/publications/create",
			`{"authors":["A. Author"],"type":"journal","year":2021}`, f.token(t, model.RoleManager))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "fail", body.Status)
		assert.Contains(t, body.Errors, "title")
	})

	t.Run("create rejects title emptied by sanitising", func(t *testing.T) {
		f := newRouterFixture(t)
		f.publication.On("CreatePublication", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &validator.ValidationError{Fields: map[string]string{
				"title":   "title is a required field",
				"authors": "authors must contain at least 1 item",
			}})

		rec := f.do(http.MethodPost, "/api/publications/create",
			`{"title":"<b></b>","authors":["   "],"type":"journal","year":2024}`, f.token(t, model.RoleManager))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Contains(t, body.Errors, "title")
		assert.Contains(t, body.Errors, "authors")
	})

	t.Run("create requires auth", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodPost, "/api/publications/create",
			`{"title":"T","authors":["A"],"type":"journal","year":2021}`, "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("create", func(t *testing.T) {
		f := newRouterFixture(t)
		f.publication.On("CreatePublication", mock.Anything,
			usecase.Actor{UserID: "u1", Role: model.RoleManager},
			mock.MatchedBy(func(p usecase.CreatePublicationParams) bool {
				return p.Title == "Graph Kernels" && p.Type == model.PublicationJournal && p.Year == 2021
			}),
		).Return(&model.Publication{Title: "Graph Kernels"}, nil)

		rec := f.do(http.MethodPost, "/api/publications/create",
			`{"title":"Graph Kernels","authors":["A. Author"],"type":"journal","year":2021}`,
			f.token(t, model.RoleManager))

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("list query", func(t *testing.T) {
		f := newRouterFixture(t)
		f.publication.On("ListPublications", mock.Anything, mock.MatchedBy(func(p usecase.ListPublicationsParams) bool {
			return p.SortBy != nil && *p.SortBy == "title" && !p.SortDesc &&
				p.Page == 2 && p.Limit == 5 &&
				p.Featured != nil && *p.Featured &&
				p.Year != nil && *p.Year == 2020 &&
				p.Type == nil
		})).Return(&usecase.PublicationPage{Page: 2, Limit: 5}, nil)

		rec := f.do(http.MethodGet, "/api/publications?sort=title&page=2&limit=5&featured=true&year=2020", "", "")

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("list default order is descending", func(t *testing.T) {
		f := newRouterFixture(t)
		f.publication.On("ListPublications", mock.Anything, mock.MatchedBy(func(p usecase.ListPublicationsParams) bool {
			return p.SortBy == nil && p.SortDesc
		})).Return(&usecase.PublicationPage{Page: 1, Limit: 20}, nil)

		rec := f.do(http.MethodGet, "/api/publications", "", "")

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("list rejects bad numbers", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodGet, "/api/publications?year=recent&featured=maybe", "", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Contains(t, body.Errors, "year")
		assert.Contains(t, body.Errors, "featured")
	})

	t.Run("list rejects page beyond cap", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodGet, "/api/publications?page=9000000000000000000&limit=100", "", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Errors, "page")
		f.publication.AssertNotCalled(t, "ListPublications", mock.Anything, mock.Anything)
	})

	t.Run("list rejects unknown sort", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodGet, "/api/publications?sort=random", "", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get missing", func(t *testing.T) {
		f := newRouterFixture(t)
		f.publication.On("GetPublication", mock.Anything, "nope").Return(nil, usecase.ErrPublicationNotFound)

		rec := f.do(http.MethodGet, "/api/publications/nope", "", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("stats route is not an id", func(t *testing.T) {
		f := newRouterFixture(t)
		f.publication.On("GetPublicationStats", mock.Anything).Return(&model.PublicationStats{Total: 3}, nil)

		rec := f.do(http.MethodGet, "/api/publications/stats", "", "")

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("update", func(t *testing.T) {
		f := newRouterFixture(t)
		f.publication.On("UpdatePublication", mock.Anything, mock.Anything, "p1",
			mock.MatchedBy(func(p usecase.UpdatePublicationParams) bool {
				return p.Citations != nil && *p.Citations == 12 && p.Title == nil
			}),
		).Return(&model.Publication{Citations: 12}, nil)

		rec := f.do(http.MethodPatch, "/api/publications/p1", `{"citations":12}`, f.token(t, model.RoleManager))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("update rejects negative citations", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodPatch, "/api/publications/p1", `{"citations":-1}`, f.token(t, model.RoleManager))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete forbidden", func(t *testing.T) {
		f := newRouterFixture(t)
		f.publication.On("DeletePublication", mock.Anything, mock.Anything, "p1").Return(usecase.ErrForbidden)

		rec := f.do(http.MethodDelete, "/api/publications/p1", "", f.token(t, model.RoleManager))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("internal error is hidden", func(t *testing.T) {
		f := newRouterFixture(t)
		f.publication.On("GetPublication", mock.Anything, "p1").Return(nil, errors.New("connection reset"))

		rec := f.do(http.MethodGet, "/api/publications/p1", "", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "error", body.Status)
		assert.Equal(t, "something went wrong", body.Message)
	})
}

func TestRouter_Contact(t *testing.T) {
	f := newRouterFixture(t)
	f.contact.On("SendMessage", mock.Anything, usecase.ContactParams{
		Name:    "Visitor",
		Email:   "visitor@example.com",
		Message: "I enjoyed your paper on kernels.",
	}).Return(nil)

	rec := f.do(http.MethodPost, "/api/contact",
		`{"name":"Visitor","email":"visitor@example.com","message":"I enjoyed your paper on kernels."}`, "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Fallbacks(t *testing.T) {
	t.Run("unknown route", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodGet, "/api/unknown", "", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, "route not found", decodeError(t, rec).Message)
	})

	t.Run("method not allowed", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodPost, "/healthz", "", "")

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("body too large", func(t *testing.T) {
		f := newRouterFixture(t, func(cfg *RouterConfig) { cfg.MaxBodyBytes = 64 })

		rec := f.do(http.MethodPost, "/api/auth/login",
			`{"email":"owner@example.com","password":"`+strings.Repeat("x", 256)+`"}`, "")

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("cors preflight", func(t *testing.T) {
		f := newRouterFixture(t)

		req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestRouter_RateLimit(t *testing.T) {
	limiter := ratelimit.New(1, time.Hour)
	t.Cleanup(limiter.Close)

	f := newRouterFixture(t, func(cfg *RouterConfig) { cfg.AuthLimiter = limiter })
	f.auth.On("Login", mock.Anything, mock.Anything).Return(nil, usecase.ErrInvalidCredentials).Once()

	body := `{"email":"owner@example.com","password":"wrong"}`
	first := f.do(http.MethodPost, "/api/auth/login", body, "")
	second := f.do(http.MethodPost, "/api/auth/login", body, "")

	assert.Equal(t, http.StatusUnauthorized, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "fail", decodeError(t, second).Status)
}

func TestRouter_RateLimit_ForwardedHeaders(t *testing.T) {
	login := func(f *routerFixture, remote, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"email":"owner@example.com","password":"wrong"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwarded)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("untrusted peer shares one bucket", func(t *testing.T) {
		limiter := ratelimit.New(1, time.Hour)
		t.Cleanup(limiter.Close)
		f := newRouterFixture(t, func(cfg *RouterConfig) { cfg.AuthLimiter = limiter })
		f.auth.On("Login", mock.Anything, mock.MatchedBy(func(p usecase.LoginParams) bool {
			return p.Client.IPAddress == "203.0.113.9"
		})).Return(nil, usecase.ErrInvalidCredentials).Once()

		assert.Equal(t, http.StatusUnauthorized, login(f, "203.0.113.9:40000", "10.0.0.1"))
		assert.Equal(t, http.StatusTooManyRequests, login(f, "203.0.113.9:40000", "10.0.0.2"))
		f.auth.AssertExpectations(t)
	})

	t.Run("trusted proxy forwards client address", func(t *testing.T) {
		limiter := ratelimit.New(1, time.Hour)
		t.Cleanup(limiter.Close)
		resolver, err := ratelimit.NewResolver([]string{"10.0.0.0/8"})
		require.NoError(t, err)
		f := newRouterFixture(t, func(cfg *RouterConfig) {
			cfg.AuthLimiter = limiter
			cfg.ClientIPs = resolver
		})
		f.auth.On("Login", mock.Anything, mock.MatchedBy(func(p usecase.LoginParams) bool {
			return p.Client.IPAddress == "198.51.100.7" || p.Client.IPAddress == "198.51.100.8"
		})).Return(nil, usecase.ErrInvalidCredentials).Twice()

		assert.Equal(t, http.StatusUnauthorized, login(f, "10.1.2.3:443", "198.51.100.7"))
		assert.Equal(t, http.StatusUnauthorized, login(f, "10.1.2.3:443", "198.51.100.8"))
		assert.Equal(t, http.StatusTooManyRequests, login(f, "10.1.2.3:443", "198.51.100.7"))
		f.auth.AssertExpectations(t)
	})
}

func TestRouter_Health(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodGet, "/healthz", "", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"database":"connected"`)
	})

	t.Run("mongo down", func(t *testing.T) {
		f := newRouterFixture(t, func(cfg *RouterConfig) {
			cfg.Mongo = fakeMongo{err: errors.New("server selection timeout")}
		})

		rec := f.do(http.MethodGet, "/healthz", "", "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), `"database":"disconnected"`)
	})
}
