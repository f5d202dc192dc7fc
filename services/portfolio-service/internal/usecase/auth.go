package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/config"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/model"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/repository"
	"github.com/vasapolrittideah/portfolio-api/shared/auth"
	"github.com/vasapolrittideah/portfolio-api/shared/provider"
	"github.com/vasapolrittideah/portfolio-api/shared/security"
)

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	Login(ctx context.Context, params LoginParams) (*AuthResult, error)
	LoginWithGoogle(ctx context.Context, params GoogleLoginParams) (*AuthResult, error)
	Register(ctx context.Context, params RegisterParams) (*model.User, error)
	Bootstrap(ctx context.Context, params RegisterParams, force bool) (*model.User, error)
	Refresh(ctx context.Context, params RefreshParams) (*AuthResult, error)
	Logout(ctx context.Context, params LogoutParams) error
	ChangePassword(ctx context.Context, params ChangePasswordParams) error
}

// ClientInfo describes where a session was opened from.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// LoginParams defines the parameters for user login.
type LoginParams struct {
	Email    string
	Password string
	Client   ClientInfo
}

// GoogleLoginParams defines the parameters for signing in with a Google ID token.
type GoogleLoginParams struct {
	IDToken string
	Client  ClientInfo
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	Email    string
	Password string
	Name     string
	Role     model.Role
}

// RefreshParams defines the parameters for rotating a refresh token.
type RefreshParams struct {
	RefreshToken string
	Client       ClientInfo
}

// LogoutParams identifies the session to end. Either field may be empty.
type LogoutParams struct {
	AccessClaims *auth.AccessClaims
	RefreshToken string
}

// ChangePasswordParams defines the parameters for changing the caller's password.
type ChangePasswordParams struct {
	UserID          string
	SessionID       string
	CurrentPassword string
	NewPassword     string
}

// Tokens is a freshly issued access/refresh pair.
type Tokens struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
}

// AuthResult is returned by every flow that opens or renews a session.
type AuthResult struct {
	User   *model.User
	Tokens Tokens
}

// GoogleTokenVerifier validates Google ID tokens.
type GoogleTokenVerifier interface {
	ValidateIDToken(ctx context.Context, idToken string) (*provider.GoogleIdentity, error)
}

var (
	ErrUserAlreadyExists       = errors.New("user already exists")
	ErrAlreadyBootstrapped     = errors.New("accounts already exist")
	ErrUserNotFound            = errors.New("user not found")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrInvalidRole             = errors.New("invalid role")
	ErrInvalidRefreshToken     = errors.New("invalid refresh token")
	ErrRefreshTokenReused      = errors.New("refresh token has already been used")
	ErrIncorrectPassword       = errors.New("current password is incorrect")
	ErrPasswordUnchanged       = errors.New("new password must differ from the current password")
	ErrGoogleSignInUnavailable = errors.New("google sign-in is not configured")
)

type authUsecase struct {
	identityRepo repository.IdentityRepository
	sessionRepo  repository.SessionRepository
	userRepo     repository.UserRepository
	jwtAuth      auth.JWTAuthenticator
	blacklist    auth.TokenBlacklist
	google       GoogleTokenVerifier
	tokenCfg     config.TokenConfig
	logger       *zerolog.Logger
	now          func() time.Time
}

func NewAuthUsecase(
	identityRepo repository.IdentityRepository,
	sessionRepo repository.SessionRepository,
	userRepo repository.UserRepository,
	jwtAuth auth.JWTAuthenticator,
	blacklist auth.TokenBlacklist,
	google GoogleTokenVerifier,
	tokenCfg config.TokenConfig,
	logger *zerolog.Logger,
) AuthUsecase {
	return &authUsecase{
		identityRepo: identityRepo,
		sessionRepo:  sessionRepo,
		userRepo:     userRepo,
		jwtAuth:      jwtAuth,
		blacklist:    blacklist,
		google:       google,
		tokenCfg:     tokenCfg,
		logger:       logger,
		now:          time.Now,
	}
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, NormalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if ok, err := security.VerifyPassword(params.Password, user.PasswordHash); err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	return u.openSession(ctx, user, params.Client)
}

func (u *authUsecase) LoginWithGoogle(ctx context.Context, params GoogleLoginParams) (*AuthResult, error) {
	if u.google == nil {
		return nil, ErrGoogleSignInUnavailable
	}

	identity, err := u.google.ValidateIDToken(ctx, params.IDToken)
	if err != nil {
		if errors.Is(err, provider.ErrGoogleDisabled) {
			return nil, ErrGoogleSignInUnavailable
		}
		u.logger.Debug().Err(err).Msg("google id token rejected")
		return nil, ErrInvalidCredentials
	}

	user, err := u.resolveGoogleUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	return u.openSession(ctx, user, params.Client)
}

// resolveGoogleUser finds the account linked to a Google subject, linking it
// by email on first use. Google never creates accounts.
func (u *authUsecase) resolveGoogleUser(ctx context.Context, identity *provider.GoogleIdentity) (*model.User, error) {
	linked, err := u.identityRepo.GetIdentityByProvider(ctx, identity.Subject, model.ProviderGoogle)
	switch {
	case err == nil:
		if err := u.identityRepo.UpdateLastLogin(ctx, linked.ID.Hex(), u.now()); err != nil {
			return nil, err
		}
		user, err := u.userRepo.GetUser(ctx, linked.UserID.Hex())
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return user, err
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	user, err := u.userRepo.GetUserByEmail(ctx, NormalizeEmail(identity.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if _, err := u.identityRepo.CreateIdentity(ctx, &model.Identity{
		UserID:     user.ID,
		Provider:   model.ProviderGoogle,
		ProviderID: identity.Subject,
		Email:      user.Email,
	}); err != nil && !errors.Is(err, repository.ErrDuplicateKey) {
		return nil, err
	}

	return user, nil
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	role := params.Role
	if role == "" {
		role = model.RoleManager
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Email:        NormalizeEmail(params.Email),
		PasswordHash: passwordHash,
		Role:         role,
		Profile:      model.Profile{Name: strings.TrimSpace(params.Name)},
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrUserAlreadyExists
		}

		return nil, err
	}

	return user, nil
}

// Bootstrap registers the first account of a fresh installation. Once any
// account exists it fails with ErrAlreadyBootstrapped unless force is set.
func (u *authUsecase) Bootstrap(ctx context.Context, params RegisterParams, force bool) (*model.User, error) {
	if !force {
		count, err := u.userRepo.CountUsers(ctx)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrAlreadyBootstrapped
		}
	}

	return u.Register(ctx, params)
}

// Refresh exchanges a refresh token for a new pair. The presented token must
// carry the jti currently stored on its session; presenting an older one ends
// the session, since it means the token was copied.
func (u *authUsecase) Refresh(ctx context.Context, params RefreshParams) (*AuthResult, error) {
	claims, err := u.parseRefreshToken(params.RefreshToken)
	if err != nil {
		return nil, err
	}

	session, err := u.sessionRepo.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	if session.UserID.Hex() != claims.UserID {
		return nil, ErrInvalidRefreshToken
	}

	if session.RefreshTokenID != claims.ID {
		u.logger.Warn().
			Str("session_id", claims.SessionID).
			Str("user_id", claims.UserID).
			Msg("refresh token reuse detected, revoking session")
		if err := u.sessionRepo.DeleteSession(ctx, claims.SessionID); err != nil &&
			!errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, ErrRefreshTokenReused
	}

	user, err := u.userRepo.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	now := u.now()
	newTokenID := auth.NewTokenID()
	if _, err := u.sessionRepo.RotateRefreshToken(ctx, claims.SessionID, repository.RotateRefreshTokenParams{
		CurrentTokenID: claims.ID,
		NewTokenID:     newTokenID,
		ExpiresAt:      now.Add(u.tokenCfg.RefreshTokenExpiresIn),
	}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Lost a race with a concurrent refresh of the same token.
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	tokens, err := u.issueTokens(user, claims.SessionID, newTokenID, now)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Tokens: *tokens}, nil
}

func (u *authUsecase) Logout(ctx context.Context, params LogoutParams) error {
	sessionID := ""

	if claims := params.AccessClaims; claims != nil {
		sessionID = claims.SessionID
		if claims.ExpiresAt != nil && u.blacklist != nil {
			if err := u.blacklist.Revoke(ctx, claims.ID, claims.ExpiresAt.Sub(u.now())); err != nil {
				return fmt.Errorf("failed to revoke access token: %w", err)
			}
		}
	}

	if sessionID == "" && params.RefreshToken != "" {
		claims, err := u.parseRefreshToken(params.RefreshToken)
		if err != nil {
			// Nothing to revoke; the client clears its cookies regardless.
			return nil
		}
		sessionID = claims.SessionID
	}

	if sessionID == "" {
		return nil
	}

	if err := u.sessionRepo.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	return nil
}

func (u *authUsecase) ChangePassword(ctx context.Context, params ChangePasswordParams) error {
	user, err := u.userRepo.GetUser(ctx, params.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if ok, err := security.VerifyPassword(params.CurrentPassword, user.PasswordHash); err != nil || !ok {
		return ErrIncorrectPassword
	}

	if params.CurrentPassword == params.NewPassword {
		return ErrPasswordUnchanged
	}

	passwordHash, err := security.HashPassword(params.NewPassword)
	if err != nil {
		return err
	}

	if _, err := u.userRepo.UpdateUser(ctx, params.UserID, repository.UpdateUserParams{
		PasswordHash: &passwordHash,
	}); err != nil {
		return err
	}

	revoked, err := u.sessionRepo.DeleteSessionsByUserExcept(ctx, params.UserID, params.SessionID)
	if err != nil {
		return err
	}
	u.logger.Info().Str("user_id", params.UserID).Int64("revoked_sessions", revoked).Msg("password changed")

	return nil
}

func (u *authUsecase) openSession(ctx context.Context, user *model.User, client ClientInfo) (*AuthResult, error) {
	now := u.now()

	if err := u.userRepo.TouchLastLogin(ctx, user.ID.Hex(), now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	refreshTokenID := auth.NewTokenID()
	session, err := u.sessionRepo.CreateSession(ctx, &model.Session{
		UserID:         user.ID,
		RefreshTokenID: refreshTokenID,
		IPAddress:      client.IPAddress,
		UserAgent:      client.UserAgent,
		ExpiresAt:      now.Add(u.tokenCfg.RefreshTokenExpiresIn),
	})
	if err != nil {
		return nil, err
	}

	tokens, err := u.issueTokens(user, session.ID.Hex(), refreshTokenID, now)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Tokens: *tokens}, nil
}

func (u *authUsecase) issueTokens(user *model.User, sessionID, refreshTokenID string, now time.Time) (*Tokens, error) {
	userID := user.ID.Hex()

	accessClaims := auth.AccessClaims{
		UserID:           userID,
		SessionID:        sessionID,
		Email:            user.Email,
		Role:             string(user.Role),
		RegisteredClaims: u.jwtAuth.NewRegisteredClaims(userID, now, u.tokenCfg.AccessTokenExpiresIn),
	}
	accessToken, err := u.jwtAuth.GenerateToken(accessClaims, u.tokenCfg.AccessTokenSecret)
	if err != nil {
		return nil, err
	}

	refreshClaims := auth.RefreshClaims{
		UserID:           userID,
		SessionID:        sessionID,
		RegisteredClaims: u.jwtAuth.NewRegisteredClaims(userID, now, u.tokenCfg.RefreshTokenExpiresIn),
	}
	refreshClaims.ID = refreshTokenID
	refreshToken, err := u.jwtAuth.GenerateToken(refreshClaims, u.tokenCfg.RefreshTokenSecret)
	if err != nil {
		return nil, err
	}

	return &Tokens{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresAt:  accessClaims.ExpiresAt.Time,
		RefreshTokenExpiresAt: refreshClaims.ExpiresAt.Time,
	}, nil
}

func (u *authUsecase) parseRefreshToken(token string) (*auth.RefreshClaims, error) {
	if token == "" {
		return nil, ErrInvalidRefreshToken
	}

	claims := &auth.RefreshClaims{}
	if _, err := u.jwtAuth.ValidateTokenWithClaims(token, u.tokenCfg.RefreshTokenSecret, claims); err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if claims.SessionID == "" || claims.ID == "" {
		return nil, ErrInvalidRefreshToken
	}

	return claims, nil
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
