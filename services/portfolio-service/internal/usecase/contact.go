package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/repository"
	"github.com/vasapolrittideah/portfolio-api/shared/mailer"
	"github.com/vasapolrittideah/portfolio-api/shared/sanitize"
)

// ContactUsecase delivers messages from the site's contact form.
type ContactUsecase interface {
	SendMessage(ctx context.Context, params ContactParams) error
}

// ContactParams is a visitor's message.
type ContactParams struct {
	Name    string
	Email   string
	Subject string
	Message string
}

var ErrContactUnavailable = errors.New("contact form is not available")

type contactUsecase struct {
	userRepo  repository.UserRepository
	mailer    mailer.Sender
	recipient string
	logger    *zerolog.Logger
}

// NewContactUsecase creates a contact usecase. Messages go to recipient, or to
// the portfolio owner when recipient is empty.
func NewContactUsecase(
	userRepo repository.UserRepository,
	mailer mailer.Sender,
	recipient string,
	logger *zerolog.Logger,
) ContactUsecase {
	return &contactUsecase{userRepo: userRepo, mailer: mailer, recipient: recipient, logger: logger}
}

func (u *contactUsecase) SendMessage(ctx context.Context, params ContactParams) error {
	recipient, err := u.resolveRecipient(ctx)
	if err != nil {
		return err
	}

	name := sanitize.PlainText(params.Name)
	from := NormalizeEmail(params.Email)
	subject := sanitize.PlainText(params.Subject)
	if subject == "" {
		subject = "New message"
	}

	body := fmt.Sprintf("From: %s <%s>\n\n%s\n", name, from, sanitize.PlainText(params.Message))

	if err := u.mailer.Send(mailer.Email{
		To:      []string{recipient},
		ReplyTo: from,
		Subject: "[Portfolio] " + subject,
		Body:    body,
	}); err != nil {
		return fmt.Errorf("failed to deliver contact message: %w", err)
	}

	u.logger.Info().Str("from", from).Msg("contact message delivered")

	return nil
}

func (u *contactUsecase) resolveRecipient(ctx context.Context) (string, error) {
	if u.recipient != "" {
		return u.recipient, nil
	}

	owner, err := u.userRepo.GetOwner(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrContactUnavailable
		}
		return "", err
	}

	return owner.Email, nil
}
