package handler

import (
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/model"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/payload"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/usecase"
	"github.com/vasapolrittideah/portfolio-api/shared/middleware"
	"github.com/vasapolrittideah/portfolio-api/shared/ratelimit"
	"github.com/vasapolrittideah/portfolio-api/shared/validator"
)

type authHTTPHandler struct {
	authUsecase          usecase.AuthUsecase
	passwordResetUsecase usecase.PasswordResetUsecase
	cookies              *CookieManager
	validator            *validator.Validator
}

func newAuthHTTPHandler(
	authUsecase usecase.AuthUsecase,
	passwordResetUsecase usecase.PasswordResetUsecase,
	cookies *CookieManager,
	validator *validator.Validator,
) *authHTTPHandler {
	return &authHTTPHandler{
		authUsecase:          authUsecase,
		passwordResetUsecase: passwordResetUsecase,
		cookies:              cookies,
		validator:            validator,
	}
}

func (h *authHTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{
		Email:    req.Email,
		Password: req.Password,
		Client:   clientInfo(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.writeAuthResult(w, r, http.StatusOK, result)
}

func (h *authHTTPHandler) LoginWithGoogle(w http.ResponseWriter, r *http.Request) {
	var req payload.GoogleLoginRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.authUsecase.LoginWithGoogle(r.Context(), usecase.GoogleLoginParams{
		IDToken: req.IDToken,
		Client:  clientInfo(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.writeAuthResult(w, r, http.StatusOK, result)
}

func (h *authHTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.authUsecase.Register(r.Context(), usecase.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, payload.UserResponse{User: user})
}

// Refresh accepts the refresh token from the body or, failing that, the
// refresh cookie. Any failure clears the cookies so the client logs out.
func (h *authHTTPHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req payload.RefreshRequest
	if err := decodeOptionalJSON(r, h.validator, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token := req.RefreshToken
	if token == "" {
		token, _ = h.cookies.RefreshToken(r)
	}

	result, err := h.authUsecase.Refresh(r.Context(), usecase.RefreshParams{
		RefreshToken: token,
		Client:       clientInfo(r),
	})
	if err != nil {
		h.cookies.Clear(w)
		writeError(w, r, err)
		return
	}

	h.writeAuthResult(w, r, http.StatusOK, result)
}

func (h *authHTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req payload.LogoutRequest
	if err := decodeOptionalJSON(r, h.validator, &req); err != nil {
		writeError(w, r, err)
		return
	}

	params := usecase.LogoutParams{RefreshToken: req.RefreshToken}
	if params.RefreshToken == "" {
		params.RefreshToken, _ = h.cookies.RefreshToken(r)
	}
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		params.AccessClaims = claims
	}

	if err := h.authUsecase.Logout(r.Context(), params); err != nil {
		writeError(w, r, err)
		return
	}

	h.cookies.Clear(w)
	writeMessage(w, http.StatusOK, "logged out")
}

func (h *authHTTPHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, middleware.ErrMissingToken)
		return
	}

	var req payload.ChangePasswordRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.authUsecase.ChangePassword(r.Context(), usecase.ChangePasswordParams{
		UserID:          claims.UserID,
		SessionID:       claims.SessionID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "password updated")
}

func (h *authHTTPHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req payload.SendOTPRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.passwordResetUsecase.SendOTP(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "if an account exists for this email, a reset code has been sent")
}

func (h *authHTTPHandler) VerifyOTPReset(w http.ResponseWriter, r *http.Request) {
	var req payload.VerifyOTPResetRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.passwordResetUsecase.ResetPassword(r.Context(), usecase.ResetPasswordParams{
		Email:       req.Email,
		OTP:         req.OTP,
		NewPassword: req.NewPassword,
	}); err != nil {
		writeError(w, r, err)
		return
	}

	h.cookies.Clear(w)
	writeMessage(w, http.StatusOK, "password has been reset, please log in again")
}

func (h *authHTTPHandler) writeAuthResult(w http.ResponseWriter, r *http.Request, status int, result *usecase.AuthResult) {
	if err := h.cookies.SetTokens(w, result.Tokens); err != nil {
		// Bearer tokens in the body still work without cookies.
		hlog.FromRequest(r).Warn().Err(err).Msg("failed to set token cookies")
	}

	writeJSON(w, status, payload.AuthResponse{
		AccessToken:           result.Tokens.AccessToken,
		RefreshToken:          result.Tokens.RefreshToken,
		AccessTokenExpiresAt:  result.Tokens.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: result.Tokens.RefreshTokenExpiresAt,
		User:                  result.User,
	})
}

func clientInfo(r *http.Request) usecase.ClientInfo {
	return usecase.ClientInfo{IPAddress: ratelimit.ClientIP(r), UserAgent: r.UserAgent()}
}
