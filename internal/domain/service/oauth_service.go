package service

import (
	"context"
)

// OAuthUser is the identity an external provider vouches for.
type OAuthUser struct {
	ID            string // Provider-specific user ID (e.g., Google's 'sub' claim)
	Email         string // User's email address
	Name          string // User's display name
	EmailVerified bool   // Whether the email is verified by the provider
}

// OAuthProvider drives the authorization-code flow of an external identity provider.
type OAuthProvider interface {
	// AuthCodeURL returns the consent URL the browser is redirected to.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for a verified identity.
	Exchange(ctx context.Context, code string) (*OAuthUser, error)

	// Provider returns the provider name, e.g. "google".
	Provider() string
}
