package provider

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

var (
	ErrInvalidGoogleAudience = errors.New("invalid google audience")
	ErrGoogleEmailUnverified = errors.New("google email is not verified")
	ErrGoogleDisabled        = errors.New("google sign-in is not configured")
)

// GoogleIdentity is the subset of Google token info the service relies on.
type GoogleIdentity struct {
	Subject string
	Email   string
}

// GoogleOAuthProvider validates Google ID tokens against a client ID.
type GoogleOAuthProvider struct {
	clientID   string
	httpClient *http.Client
}

// NewGoogleOAuthProvider creates a provider. An empty clientID disables it.
func NewGoogleOAuthProvider(clientID string, httpClient *http.Client) *GoogleOAuthProvider {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &GoogleOAuthProvider{clientID: clientID, httpClient: httpClient}
}

// ValidateIDToken checks the token with Google's tokeninfo endpoint and
// returns the verified identity.
func (p *GoogleOAuthProvider) ValidateIDToken(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	if p.clientID == "" {
		return nil, ErrGoogleDisabled
	}

	oauth2Service, err := oauth2.NewService(ctx, option.WithHTTPClient(p.httpClient))
	if err != nil {
		return nil, err
	}

	tokenInfo, err := oauth2Service.Tokeninfo().IdToken(idToken).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	if tokenInfo.Audience != p.clientID {
		return nil, ErrInvalidGoogleAudience
	}

	if !tokenInfo.VerifiedEmail {
		return nil, ErrGoogleEmailUnverified
	}

	return &GoogleIdentity{
		Subject: tokenInfo.UserId,
		Email:   tokenInfo.Email,
	}, nil
}
