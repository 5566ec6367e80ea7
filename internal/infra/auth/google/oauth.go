package google

import (
	"context"
	"net/http"
	"strings"

	"gatekeeper/config"
	"gatekeeper/internal/domain/service"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

const providerName = "google"

var defaultScopes = []string{"openid", "profile", "email"}

// idTokenValidator verifies signature, issuer, audience and expiry of a Google ID token.
type idTokenValidator func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// OAuthService drives the Google authorization-code flow and turns the
// returned ID token into a verified identity.
type OAuthService struct {
	oauthConfig *oauth2.Config
	validate    idTokenValidator
	httpClient  *http.Client
}

// NewOAuthService creates a new Google OAuth service
func NewOAuthService(cfg *config.GoogleOAuthConfig) (*OAuthService, error) {
	if cfg == nil || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("google oauth client id and secret must be provided")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("google oauth redirect url must be provided")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}

	return &OAuthService{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     googleoauth.Endpoint,
		},
		validate: idtoken.Validate,
	}, nil
}

// Provider returns the provider name
func (s *OAuthService) Provider() string {
	return providerName
}

// AuthCodeURL constructs the consent URL carrying the anti-forgery state
func (s *OAuthService) AuthCodeURL(state string) string {
	return s.oauthConfig.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange trades the authorization code for tokens and validates the ID token
func (s *OAuthService) Exchange(ctx context.Context, code string) (*service.OAuthUser, error) {
	if strings.TrimSpace(code) == "" {
		return nil, errors.New("authorization code is empty")
	}
	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}

	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "failed to exchange code for token")
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("token response has no id_token")
	}

	payload, err := s.validate(ctx, rawIDToken, s.oauthConfig.ClientID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid ID token")
	}

	return userFromPayload(payload)
}

func userFromPayload(payload *idtoken.Payload) (*service.OAuthUser, error) {
	if payload.Subject == "" {
		return nil, errors.New("ID token has no subject")
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, errors.New("ID token has no email")
	}

	verified, _ := payload.Claims["email_verified"].(bool)
	if !verified {
		return nil, errors.Errorf("google account email %s is not verified", email)
	}

	name, _ := payload.Claims["name"].(string)

	return &service.OAuthUser{
		ID:            payload.Subject,
		Email:         email,
		Name:          name,
		EmailVerified: verified,
	}, nil
}
