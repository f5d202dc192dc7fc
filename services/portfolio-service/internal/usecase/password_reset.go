package usecase

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/config"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/model"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/repository"
	"github.com/vasapolrittideah/portfolio-api/shared/mailer"
	"github.com/vasapolrittideah/portfolio-api/shared/security"
)

// PasswordResetUsecase defines the business logic for OTP based password resets.
type PasswordResetUsecase interface {
	// SendOTP issues a reset code to email. Unknown addresses succeed silently.
	SendOTP(ctx context.Context, email string) error

	// ResetPassword verifies the code and replaces the user's password.
	ResetPassword(ctx context.Context, params ResetPasswordParams) error
}

// ResetPasswordParams defines the parameters for completing a password reset.
type ResetPasswordParams struct {
	Email       string
	OTP         string
	NewPassword string
}

var (
	ErrInvalidOTP          = errors.New("invalid or expired otp")
	ErrOTPExpired          = errors.New("otp has expired")
	ErrOTPAttemptsExceeded = errors.New("too many incorrect otp attempts")
)

type passwordResetUsecase struct {
	userRepo    repository.UserRepository
	otpRepo     repository.OTPRepository
	sessionRepo repository.SessionRepository
	mailer      mailer.Sender
	otpCfg      config.OTPConfig
	logger      *zerolog.Logger
	now         func() time.Time
}

// NewPasswordResetUsecase creates a new instance of PasswordResetUsecase.
func NewPasswordResetUsecase(
	userRepo repository.UserRepository,
	otpRepo repository.OTPRepository,
	sessionRepo repository.SessionRepository,
	mailer mailer.Sender,
	otpCfg config.OTPConfig,
	logger *zerolog.Logger,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		userRepo:    userRepo,
		otpRepo:     otpRepo,
		sessionRepo: sessionRepo,
		mailer:      mailer,
		otpCfg:      otpCfg,
		logger:      logger,
		now:         time.Now,
	}
}

func (u *passwordResetUsecase) SendOTP(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// To prevent email enumeration, do not reveal that the email does not exist.
			u.logger.Debug().Str("email", email).Msg("otp requested for unknown email")
			return nil
		}
		return err
	}

	code, err := security.GenerateOTP()
	if err != nil {
		return err
	}

	codeHash, err := security.HashOTP(code)
	if err != nil {
		return err
	}

	if _, err := u.otpRepo.ReplaceOTP(ctx, &model.OTP{
		Email:     user.Email,
		CodeHash:  codeHash,
		ExpiresAt: u.now().Add(u.otpCfg.TTL),
	}); err != nil {
		return err
	}

	htmlBody := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>We received a request to reset the password for your portfolio account.</p>
		<p>Your one-time code is:</p>

		<p style="font-size:24px;letter-spacing:4px"><strong>%s</strong></p>

		<p>The code expires in %s and can be used once.</p>
		<p>If you did not request a password reset, you can safely ignore this email.</p>
	`, html.EscapeString(displayName(user)), code, u.otpCfg.TTL)

	if err := u.mailer.SendHTML([]string{user.Email}, "Your password reset code", htmlBody); err != nil {
		return fmt.Errorf("failed to send otp email: %w", err)
	}

	return nil
}

func (u *passwordResetUsecase) ResetPassword(ctx context.Context, params ResetPasswordParams) error {
	email := NormalizeEmail(params.Email)

	otp, err := u.otpRepo.GetOTPByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOTP
		}
		return err
	}

	// The TTL monitor runs about once a minute, so expiry is checked here too.
	if !u.now().Before(otp.ExpiresAt) {
		u.discardOTP(ctx, otp)
		return ErrOTPExpired
	}

	if otp.Attempts >= u.otpCfg.MaxAttempts {
		u.discardOTP(ctx, otp)
		return ErrOTPAttemptsExceeded
	}

	if ok, err := security.CompareOTP(otp.CodeHash, params.OTP); err != nil || !ok {
		attempts, err := u.otpRepo.IncrementAttempts(ctx, otp.ID.Hex())
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidOTP
			}
			return err
		}
		if attempts >= u.otpCfg.MaxAttempts {
			u.discardOTP(ctx, otp)
			return ErrOTPAttemptsExceeded
		}
		return ErrInvalidOTP
	}

	// Consuming first makes the code single use even under concurrent requests.
	if err := u.otpRepo.ConsumeOTP(ctx, otp.ID.Hex()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOTP
		}
		return err
	}

	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOTP
		}
		return err
	}

	passwordHash, err := security.HashPassword(params.NewPassword)
	if err != nil {
		return err
	}

	if _, err := u.userRepo.UpdateUser(ctx, user.ID.Hex(), repository.UpdateUserParams{
		PasswordHash: &passwordHash,
	}); err != nil {
		return err
	}

	revoked, err := u.sessionRepo.DeleteSessionsByUser(ctx, user.ID.Hex())
	if err != nil {
		return err
	}

	u.logger.Info().Str("user_id", user.ID.Hex()).Int64("revoked_sessions", revoked).Msg("password reset via otp")

	if err := u.mailer.SendHTML(
		[]string{user.Email},
		"Your password was changed",
		"<p>The password for your portfolio account was just reset. "+
			"If this was not you, request a new code immediately.</p>",
	); err != nil {
		u.logger.Warn().Err(err).Msg("failed to send password change notice")
	}

	return nil
}

func (u *passwordResetUsecase) discardOTP(ctx context.Context, otp *model.OTP) {
	if err := u.otpRepo.ConsumeOTP(ctx, otp.ID.Hex()); err != nil && !errors.Is(err, repository.ErrNotFound) {
		u.logger.Warn().Err(err).Str("email", otp.Email).Msg("failed to discard otp")
	}
}

func displayName(user *model.User) string {
	if user.Profile.Name != "" {
		return user.Profile.Name
	}
	return user.Email
}
